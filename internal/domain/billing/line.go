package billing

import (
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineAmounts are the quantized components of an invoice line.
// Total always equals Subtotal - Discount + Tax exactly.
type LineAmounts struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// LineInput holds the values an invoice line is priced from
type LineInput struct {
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	TaxPercent      decimal.Decimal
	ApplyDiscount   bool
	ApplyTax        bool
}

// CalculateLineAmounts prices a line: quantity*unit_price, then the discount,
// then tax on the discounted amount. Only the total is rounded from the exact
// figure; the rounded tax (or discount when no tax applies) takes up the
// remainder so the components still add up to the total.
func CalculateLineAmounts(in LineInput) LineAmounts {
	gross := in.Quantity.Mul(in.UnitPrice)

	discount := decimal.Zero
	if in.ApplyDiscount && in.DiscountPercent.IsPositive() {
		discount = gross.Mul(in.DiscountPercent).Div(hundred)
	}
	net := gross.Sub(discount)

	taxed := in.ApplyTax && in.TaxPercent.IsPositive()
	tax := decimal.Zero
	if taxed {
		tax = net.Mul(in.TaxPercent).Div(hundred)
	}

	out := LineAmounts{
		Subtotal: gross.Round(valueobject.MoneyScale),
		Total:    net.Add(tax).Round(valueobject.MoneyScale),
	}
	if taxed {
		out.Discount = discount.Round(valueobject.MoneyScale)
		out.Tax = out.Total.Sub(out.Subtotal).Add(out.Discount)
	} else {
		out.Discount = out.Subtotal.Sub(out.Total)
		out.Tax = decimal.Zero
	}
	return out
}

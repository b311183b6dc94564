package billing

import (
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Schedule constants for capped and rent-to-purchase rentals
const (
	rentToPurchaseRentalMonths = 9
	rentToPurchaseFinalMonth   = 10

	cappedFullPriceMonths  = 3
	cappedReducedLastMonth = 15
	cappedGapLastMonth     = 21
	maintenanceStartMonth  = 22
	maintenanceInterval    = 6
)

var cappedReducedRate = decimal.RequireFromString("0.75")

// AmountRequest describes one order line for a single billing month
type AmountRequest struct {
	Type         SaleRentType     `json:"sale_rent_type"`
	BillingMonth int              `json:"billing_month"` // 1-based
	Price        decimal.Decimal  `json:"price"`
	Quantity     decimal.Decimal  `json:"quantity"`
	SalePrice    *decimal.Decimal `json:"sale_price,omitempty"`
	FlatRate     bool             `json:"flat_rate"` // price is the whole-line amount
}

// Validate checks the preconditions shared by allowable and billable amounts
func (r AmountRequest) Validate() error {
	if !r.Type.IsValid() {
		return shared.NewValidationErrorf("INVALID_SALE_RENT_TYPE", "Unknown sale/rent type %q", r.Type)
	}
	if r.BillingMonth < 1 {
		return shared.NewValidationError("INVALID_BILLING_MONTH", "Billing month must be 1 or greater")
	}
	if r.Price.IsNegative() {
		return shared.NewValidationError("INVALID_PRICE", "Price cannot be negative")
	}
	if !r.FlatRate && r.Quantity.IsNegative() {
		return shared.NewValidationError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if r.Type == SaleRentTypeRentToPurchase {
		if r.SalePrice == nil {
			return shared.NewValidationError("MISSING_SALE_PRICE", "Sale price is required for rent-to-purchase")
		}
		if r.SalePrice.IsNegative() {
			return shared.NewValidationError("INVALID_SALE_PRICE", "Sale price cannot be negative")
		}
	}
	return nil
}

// lineAmount is price*quantity, or price alone for flat-rate lines
func (r AmountRequest) lineAmount() decimal.Decimal {
	if r.FlatRate {
		return r.Price
	}
	return r.Price.Mul(r.Quantity)
}

// baseAmount applies the SaleRentType schedule without quantizing
func (r AmountRequest) baseAmount() decimal.Decimal {
	line := r.lineAmount()
	month := r.BillingMonth

	switch r.Type {
	case SaleRentTypeOneTimeSale:
		if month == 1 {
			return line
		}
		return decimal.Zero

	case SaleRentTypeMonthlyRental:
		return line

	case SaleRentTypeRentToPurchase:
		switch {
		case month <= rentToPurchaseRentalMonths:
			return line
		case month == rentToPurchaseFinalMonth:
			remainder := r.SalePrice.Sub(line.Mul(decimal.NewFromInt(rentToPurchaseRentalMonths)))
			if remainder.IsNegative() {
				return decimal.Zero
			}
			return remainder
		default:
			return decimal.Zero
		}

	case SaleRentTypeCappedRental:
		switch {
		case month <= cappedFullPriceMonths:
			return line
		case month <= cappedReducedLastMonth:
			return line.Mul(cappedReducedRate)
		default:
			return maintenanceAmount(month, line)
		}

	case SaleRentTypeParentalCappedRental:
		if month <= cappedReducedLastMonth {
			return line
		}
		return maintenanceAmount(month, line)
	}

	return decimal.Zero
}

// maintenanceAmount bills the full line every sixth month from month 22 and
// nothing during the months 16-21 gap.
func maintenanceAmount(month int, line decimal.Decimal) decimal.Decimal {
	if month <= cappedGapLastMonth {
		return decimal.Zero
	}
	if (month-maintenanceStartMonth)%maintenanceInterval == 0 {
		return line
	}
	return decimal.Zero
}

// AllowableAmount returns the payer-recognized amount for the requested billing month
func AllowableAmount(req AmountRequest) (valueobject.Money, error) {
	if err := req.Validate(); err != nil {
		return valueobject.Money{}, err
	}
	return valueobject.USDOf(req.baseAmount()).Quantize(), nil
}

// BillableRequest extends AmountRequest with the adjustments applied on top of the schedule
type BillableRequest struct {
	AmountRequest
	DiscountPercent decimal.Decimal `json:"discount_percent"` // 0-100
	TaxRate         decimal.Decimal `json:"tax_rate"`         // fraction, e.g. 0.08
}

// Validate checks the schedule inputs plus discount and tax bounds
func (r BillableRequest) Validate() error {
	if err := r.AmountRequest.Validate(); err != nil {
		return err
	}
	if r.DiscountPercent.IsNegative() || r.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewValidationError("INVALID_DISCOUNT", "Discount percent must be between 0 and 100")
	}
	if r.TaxRate.IsNegative() {
		return shared.NewValidationError("INVALID_TAX_RATE", "Tax rate cannot be negative")
	}
	return nil
}

// BillableAmount applies discount and then tax to the scheduled base amount,
// quantizing only the final result.
func BillableAmount(req BillableRequest) (valueobject.Money, error) {
	if err := req.Validate(); err != nil {
		return valueobject.Money{}, err
	}
	base := valueobject.USDOf(req.baseAmount())
	return base.ApplyDiscount(req.DiscountPercent).ApplyTaxRate(req.TaxRate).Quantize(), nil
}

// PeriodAmount is one month of a projected schedule
type PeriodAmount struct {
	Month  int               `json:"month"`
	Amount valueobject.Money `json:"amount"`
}

// RentalSchedule is the allowable amount for months 1..n and their sum
type RentalSchedule struct {
	Type    SaleRentType      `json:"sale_rent_type"`
	Periods []PeriodAmount    `json:"periods"`
	Total   valueobject.Money `json:"total"`
}

// ProjectSchedule computes the allowable amount for each of the first months
// billing months of req. req.BillingMonth is ignored.
func ProjectSchedule(req AmountRequest, months int) (RentalSchedule, error) {
	if months < 1 {
		return RentalSchedule{}, shared.NewValidationError("INVALID_MONTHS", "Schedule must cover at least one month")
	}
	req.BillingMonth = 1
	if err := req.Validate(); err != nil {
		return RentalSchedule{}, err
	}

	schedule := RentalSchedule{
		Type:    req.Type,
		Periods: make([]PeriodAmount, 0, months),
		Total:   valueobject.Zero(valueobject.USD),
	}
	for month := 1; month <= months; month++ {
		req.BillingMonth = month
		amount := valueobject.USDOf(req.baseAmount()).Quantize()
		schedule.Periods = append(schedule.Periods, PeriodAmount{Month: month, Amount: amount})
		schedule.Total, _ = schedule.Total.Add(amount)
	}
	return schedule, nil
}

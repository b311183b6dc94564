package billing

import (
	"testing"

	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestAllowableAmount_OneTimeSale(t *testing.T) {
	req := AmountRequest{Type: SaleRentTypeOneTimeSale, Price: dec("100.00"), Quantity: dec("2")}

	req.BillingMonth = 1
	amount, err := AllowableAmount(req)
	require.NoError(t, err)
	assert.Equal(t, "200.00", amount.StringFixed())

	req.BillingMonth = 2
	amount, err = AllowableAmount(req)
	require.NoError(t, err)
	assert.Equal(t, "0.00", amount.StringFixed())
}

func TestAllowableAmount_CappedRental(t *testing.T) {
	tests := []struct {
		month    int
		expected string
	}{
		{1, "100.00"},
		{3, "100.00"},
		{4, "75.00"},
		{15, "75.00"},
		{16, "0.00"},
		{21, "0.00"},
		{22, "100.00"},
		{25, "0.00"},
		{28, "100.00"},
		{34, "100.00"},
		{35, "0.00"},
	}

	for _, tt := range tests {
		req := AmountRequest{Type: SaleRentTypeCappedRental, BillingMonth: tt.month, Price: dec("100.00"), Quantity: dec("1")}
		amount, err := AllowableAmount(req)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, amount.StringFixed(), "month %d", tt.month)
	}
}

func TestAllowableAmount_CappedRentalNonZeroMonths(t *testing.T) {
	for month := 1; month <= 100; month++ {
		req := AmountRequest{Type: SaleRentTypeCappedRental, BillingMonth: month, Price: dec("42.50"), Quantity: dec("1")}
		amount, err := AllowableAmount(req)
		require.NoError(t, err)

		expectNonZero := month <= 15 || (month >= 22 && (month-22)%6 == 0)
		assert.Equal(t, expectNonZero, !amount.IsZero(), "month %d", month)
	}
}

func TestAllowableAmount_ParentalCappedRental(t *testing.T) {
	tests := []struct {
		month    int
		expected string
	}{
		{1, "80.00"},
		{4, "80.00"},
		{15, "80.00"},
		{16, "0.00"},
		{21, "0.00"},
		{22, "80.00"},
		{23, "0.00"},
		{28, "80.00"},
	}

	for _, tt := range tests {
		req := AmountRequest{Type: SaleRentTypeParentalCappedRental, BillingMonth: tt.month, Price: dec("40.00"), Quantity: dec("2")}
		amount, err := AllowableAmount(req)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, amount.StringFixed(), "month %d", tt.month)
	}
}

func TestAllowableAmount_MonthlyRental(t *testing.T) {
	t.Run("multiplies by quantity", func(t *testing.T) {
		amount, err := AllowableAmount(AmountRequest{
			Type: SaleRentTypeMonthlyRental, BillingMonth: 40, Price: dec("12.50"), Quantity: dec("3"),
		})
		require.NoError(t, err)
		assert.Equal(t, "37.50", amount.StringFixed())
	})

	t.Run("flat rate ignores quantity", func(t *testing.T) {
		amount, err := AllowableAmount(AmountRequest{
			Type: SaleRentTypeMonthlyRental, BillingMonth: 2, Price: dec("12.50"), Quantity: dec("3"), FlatRate: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "12.50", amount.StringFixed())
	})
}

func TestAllowableAmount_RentToPurchase(t *testing.T) {
	t.Run("final month is the remainder", func(t *testing.T) {
		req := AmountRequest{
			Type: SaleRentTypeRentToPurchase, Price: dec("50.00"), Quantity: dec("1"), SalePrice: decPtr("700.00"),
		}

		req.BillingMonth = 9
		amount, err := AllowableAmount(req)
		require.NoError(t, err)
		assert.Equal(t, "50.00", amount.StringFixed())

		req.BillingMonth = 10
		amount, err = AllowableAmount(req)
		require.NoError(t, err)
		assert.Equal(t, "250.00", amount.StringFixed())

		req.BillingMonth = 11
		amount, err = AllowableAmount(req)
		require.NoError(t, err)
		assert.Equal(t, "0.00", amount.StringFixed())
	})

	t.Run("remainder never goes negative", func(t *testing.T) {
		amount, err := AllowableAmount(AmountRequest{
			Type: SaleRentTypeRentToPurchase, BillingMonth: 10, Price: dec("100.00"), Quantity: dec("1"), SalePrice: decPtr("500.00"),
		})
		require.NoError(t, err)
		assert.True(t, amount.IsZero())
	})

	t.Run("schedule sums to sale price", func(t *testing.T) {
		cases := []struct{ price, salePrice string }{
			{"50.00", "700.00"},
			{"33.33", "400.00"},
			{"99.99", "1500.01"},
			{"0.01", "0.10"},
		}
		for _, c := range cases {
			schedule, err := ProjectSchedule(AmountRequest{
				Type: SaleRentTypeRentToPurchase, Price: dec(c.price), Quantity: dec("1"), SalePrice: decPtr(c.salePrice),
			}, 12)
			require.NoError(t, err)
			assert.True(t, schedule.Total.Amount().Equal(dec(c.salePrice)),
				"price %s: got %s want %s", c.price, schedule.Total.StringFixed(), c.salePrice)
		}
	})

	t.Run("missing sale price", func(t *testing.T) {
		_, err := AllowableAmount(AmountRequest{
			Type: SaleRentTypeRentToPurchase, BillingMonth: 1, Price: dec("50.00"), Quantity: dec("1"),
		})
		require.Error(t, err)
		assert.True(t, shared.IsValidationError(err))
		assert.Contains(t, err.Error(), "Sale price is required")
	})
}

func TestAllowableAmount_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  AmountRequest
		code string
	}{
		{"unknown type", AmountRequest{Type: "LEASE", BillingMonth: 1, Price: dec("1"), Quantity: dec("1")}, "INVALID_SALE_RENT_TYPE"},
		{"month zero", AmountRequest{Type: SaleRentTypeMonthlyRental, Price: dec("1"), Quantity: dec("1")}, "INVALID_BILLING_MONTH"},
		{"negative price", AmountRequest{Type: SaleRentTypeMonthlyRental, BillingMonth: 1, Price: dec("-1"), Quantity: dec("1")}, "INVALID_PRICE"},
		{"negative quantity", AmountRequest{Type: SaleRentTypeMonthlyRental, BillingMonth: 1, Price: dec("1"), Quantity: dec("-1")}, "INVALID_QUANTITY"},
		{"negative sale price", AmountRequest{Type: SaleRentTypeRentToPurchase, BillingMonth: 1, Price: dec("1"), Quantity: dec("1"), SalePrice: decPtr("-5")}, "INVALID_SALE_PRICE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AllowableAmount(tt.req)
			require.Error(t, err)
			var verr *shared.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.code, verr.Code)
		})
	}
}

func TestBillableAmount(t *testing.T) {
	base := AmountRequest{Type: SaleRentTypeMonthlyRental, BillingMonth: 1, Price: dec("100.00"), Quantity: dec("1")}

	t.Run("discount before tax", func(t *testing.T) {
		amount, err := BillableAmount(BillableRequest{AmountRequest: base, DiscountPercent: dec("10"), TaxRate: dec("0.08")})
		require.NoError(t, err)
		assert.Equal(t, "97.20", amount.StringFixed())
	})

	t.Run("quantizes only at the end", func(t *testing.T) {
		req := base
		req.Price = dec("10.005")
		amount, err := BillableAmount(BillableRequest{AmountRequest: req, DiscountPercent: dec("0"), TaxRate: dec("0.1")})
		require.NoError(t, err)
		// 10.005 * 1.1 = 11.0055
		assert.Equal(t, "11.01", amount.StringFixed())
	})

	t.Run("no adjustments", func(t *testing.T) {
		amount, err := BillableAmount(BillableRequest{AmountRequest: base})
		require.NoError(t, err)
		assert.Equal(t, "100.00", amount.StringFixed())
	})

	t.Run("discount out of range", func(t *testing.T) {
		_, err := BillableAmount(BillableRequest{AmountRequest: base, DiscountPercent: dec("101")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "between 0 and 100")
	})

	t.Run("negative tax rate", func(t *testing.T) {
		_, err := BillableAmount(BillableRequest{AmountRequest: base, TaxRate: dec("-0.01")})
		require.Error(t, err)
		assert.True(t, shared.IsValidationError(err))
	})
}

func TestProjectSchedule(t *testing.T) {
	t.Run("capped rental", func(t *testing.T) {
		schedule, err := ProjectSchedule(AmountRequest{Type: SaleRentTypeCappedRental, Price: dec("100"), Quantity: dec("1")}, 28)
		require.NoError(t, err)
		require.Len(t, schedule.Periods, 28)
		assert.Equal(t, 1, schedule.Periods[0].Month)
		assert.Equal(t, "75.00", schedule.Periods[3].Amount.StringFixed())
		// 3*100 + 12*75 + 100 (month 22) + 100 (month 28)
		assert.Equal(t, "1400.00", schedule.Total.StringFixed())
	})

	t.Run("invalid months", func(t *testing.T) {
		_, err := ProjectSchedule(AmountRequest{Type: SaleRentTypeCappedRental, Price: dec("100"), Quantity: dec("1")}, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one month")
	})
}

func TestCalculateLineAmounts(t *testing.T) {
	tests := []struct {
		name                           string
		in                             LineInput
		subtotal, discount, tax, total string
	}{
		{
			name:     "discount then tax",
			in:       LineInput{Quantity: dec("10"), UnitPrice: dec("100"), DiscountPercent: dec("10"), TaxPercent: dec("8.25"), ApplyDiscount: true, ApplyTax: true},
			subtotal: "1000", discount: "100", tax: "74.25", total: "974.25",
		},
		{
			name:     "adjustments disabled",
			in:       LineInput{Quantity: dec("10"), UnitPrice: dec("100"), DiscountPercent: dec("10"), TaxPercent: dec("8.25")},
			subtotal: "1000", discount: "0", tax: "0", total: "1000",
		},
		{
			name:     "total rounds once from the exact amount",
			in:       LineInput{Quantity: dec("3"), UnitPrice: dec("3.333"), DiscountPercent: dec("15"), TaxPercent: dec("7"), ApplyDiscount: true, ApplyTax: true},
			subtotal: "10", discount: "1.5", tax: "0.59", total: "9.09",
		},
		{
			name:     "tax absorbs the rounding remainder",
			in:       LineInput{Quantity: dec("1"), UnitPrice: dec("33.33"), DiscountPercent: dec("10"), TaxPercent: dec("8.25"), ApplyDiscount: true, ApplyTax: true},
			subtotal: "33.33", discount: "3.33", tax: "2.47", total: "32.47",
		},
		{
			name:     "discount absorbs the remainder without tax",
			in:       LineInput{Quantity: dec("3"), UnitPrice: dec("0.335"), DiscountPercent: dec("50"), ApplyDiscount: true},
			subtotal: "1.01", discount: "0.51", tax: "0", total: "0.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateLineAmounts(tt.in)
			assert.True(t, got.Subtotal.Equal(dec(tt.subtotal)), "subtotal %s", got.Subtotal)
			assert.True(t, got.Discount.Equal(dec(tt.discount)), "discount %s", got.Discount)
			assert.True(t, got.Tax.Equal(dec(tt.tax)), "tax %s", got.Tax)
			assert.True(t, got.Total.Equal(dec(tt.total)), "total %s", got.Total)
			assert.True(t, got.Total.Equal(got.Subtotal.Sub(got.Discount).Add(got.Tax)))
		})
	}
}

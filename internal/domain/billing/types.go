package billing

import "strings"

// SaleRentType selects which per-period amount schedule applies to an order line
type SaleRentType string

const (
	SaleRentTypeOneTimeSale          SaleRentType = "ONE_TIME_SALE"
	SaleRentTypeMonthlyRental        SaleRentType = "MONTHLY_RENTAL"
	SaleRentTypeRentToPurchase       SaleRentType = "RENT_TO_PURCHASE"
	SaleRentTypeCappedRental         SaleRentType = "CAPPED_RENTAL"
	SaleRentTypeParentalCappedRental SaleRentType = "PARENTAL_CAPPED_RENTAL"
)

// String returns the string representation of SaleRentType
func (t SaleRentType) String() string {
	return string(t)
}

// IsValid returns true if the sale/rent type is known
func (t SaleRentType) IsValid() bool {
	switch t {
	case SaleRentTypeOneTimeSale, SaleRentTypeMonthlyRental, SaleRentTypeRentToPurchase,
		SaleRentTypeCappedRental, SaleRentTypeParentalCappedRental:
		return true
	}
	return false
}

// IsRental returns true for every type billed over more than one period
func (t SaleRentType) IsRental() bool {
	return t.IsValid() && t != SaleRentTypeOneTimeSale
}

// BillingFrequency is the cadence an item is ordered or billed at
type BillingFrequency string

const (
	FrequencyOneTime BillingFrequency = "ONE_TIME"
	FrequencyDaily   BillingFrequency = "DAILY"
	FrequencyWeekly  BillingFrequency = "WEEKLY"
	FrequencyMonthly BillingFrequency = "MONTHLY"
)

// String returns the string representation of BillingFrequency
func (f BillingFrequency) String() string {
	return string(f)
}

// IsValid returns true if the frequency is known
func (f BillingFrequency) IsValid() bool {
	switch f {
	case FrequencyOneTime, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// RoundMethod controls how partial weeks or months are turned into whole units
type RoundMethod string

const (
	RoundFloor RoundMethod = "floor"
	RoundCeil  RoundMethod = "ceil"
)

// IsValid returns true if the round method is known
func (m RoundMethod) IsValid() bool {
	return m == RoundFloor || m == RoundCeil
}

// ParseRoundMethod parses a round method, defaulting to floor for empty input
func ParseRoundMethod(s string) (RoundMethod, bool) {
	if s == "" {
		return RoundFloor, true
	}
	m := RoundMethod(strings.ToLower(s))
	return m, m.IsValid()
}

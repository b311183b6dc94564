package billing

import (
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// QuantityRule maps a quantity range to a multiplier, optionally priced as a flat rate.
// A nil MaxQuantity leaves the range open-ended.
type QuantityRule struct {
	MinQuantity decimal.Decimal  `json:"min_quantity"`
	MaxQuantity *decimal.Decimal `json:"max_quantity,omitempty"`
	Multiplier  decimal.Decimal  `json:"multiplier"`
	FlatRate    *decimal.Decimal `json:"flat_rate,omitempty"`
}

// Validate reports structural problems in a single rule
func (r QuantityRule) Validate() error {
	if r.MinQuantity.IsNegative() {
		return shared.NewValidationError("INVALID_QUANTITY_RULE", "Minimum quantity cannot be negative")
	}
	if r.MaxQuantity != nil && r.MaxQuantity.LessThan(r.MinQuantity) {
		return shared.NewValidationError("INVALID_QUANTITY_RULE", "Maximum quantity cannot be less than minimum quantity")
	}
	if r.Multiplier.IsNegative() {
		return shared.NewValidationError("INVALID_QUANTITY_RULE", "Multiplier cannot be negative")
	}
	if r.FlatRate != nil && r.FlatRate.IsNegative() {
		return shared.NewValidationError("INVALID_QUANTITY_RULE", "Flat rate cannot be negative")
	}
	return nil
}

// Contains returns true if quantity falls inside [MinQuantity, MaxQuantity]
func (r QuantityRule) Contains(quantity decimal.Decimal) bool {
	if quantity.LessThan(r.MinQuantity) {
		return false
	}
	return r.MaxQuantity == nil || quantity.LessThanOrEqual(*r.MaxQuantity)
}

// ValidateQuantityRules validates every rule in a set
func ValidateQuantityRules(rules []QuantityRule) error {
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MatchQuantityRule returns the first rule whose range contains quantity.
// Callers order rules from most specific to most general.
func MatchQuantityRule(quantity decimal.Decimal, rules []QuantityRule) (QuantityRule, bool) {
	for _, r := range rules {
		if r.Contains(quantity) {
			return r, true
		}
	}
	return QuantityRule{}, false
}

// QuantityMultiplierRequest carries the inputs of QuantityMultiplier
type QuantityMultiplierRequest struct {
	Quantity      decimal.Decimal  `json:"quantity"`
	Rules         []QuantityRule   `json:"rules"`
	BaseAmount    *decimal.Decimal `json:"base_amount,omitempty"`
	AllowFlatRate bool             `json:"allow_flat_rate"`
}

// QuantityMultiplier resolves the multiplier for a quantity:
//   - quantity <= 0 is 0
//   - no matching rule is the quantity itself (linear)
//   - a flat-rate rule, when allowed, is FlatRate/BaseAmount, or 0 without a positive base
//   - otherwise the rule's Multiplier
func QuantityMultiplier(req QuantityMultiplierRequest) decimal.Decimal {
	if !req.Quantity.IsPositive() {
		return decimal.Zero
	}

	rule, ok := MatchQuantityRule(req.Quantity, req.Rules)
	if !ok {
		return req.Quantity
	}

	if rule.FlatRate != nil && req.AllowFlatRate {
		if req.BaseAmount == nil || !req.BaseAmount.IsPositive() {
			return decimal.Zero
		}
		return rule.FlatRate.Div(*req.BaseAmount)
	}
	return rule.Multiplier
}

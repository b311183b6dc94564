package billing

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared/valueobject"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// RuleAttribute is the closed set of attributes a modifier rule may constrain
type RuleAttribute string

const (
	RuleAttributePayerType        RuleAttribute = "PAYER_TYPE"
	RuleAttributeInsuranceCompany RuleAttribute = "INSURANCE_COMPANY"
	RuleAttributeState            RuleAttribute = "STATE"
	RuleAttributePostalCode       RuleAttribute = "POSTAL_CODE"
	RuleAttributeProcedureCode    RuleAttribute = "PROCEDURE_CODE"
	RuleAttributeItemCategory     RuleAttribute = "ITEM_CATEGORY"
	RuleAttributeSaleRentType     RuleAttribute = "SALE_RENT_TYPE"
	RuleAttributePlaceOfService   RuleAttribute = "PLACE_OF_SERVICE"
)

var ruleAttributes = []RuleAttribute{
	RuleAttributePayerType,
	RuleAttributeInsuranceCompany,
	RuleAttributeState,
	RuleAttributePostalCode,
	RuleAttributeProcedureCode,
	RuleAttributeItemCategory,
	RuleAttributeSaleRentType,
	RuleAttributePlaceOfService,
}

// String returns the string representation of RuleAttribute
func (a RuleAttribute) String() string {
	return string(a)
}

// IsValid checks if the attribute is a known value
func (a RuleAttribute) IsValid() bool {
	return lo.Contains(ruleAttributes, a)
}

// ParseRuleAttribute accepts attribute names case-insensitively
func ParseRuleAttribute(s string) (RuleAttribute, error) {
	a := RuleAttribute(strings.ToUpper(strings.TrimSpace(s)))
	if !a.IsValid() {
		return "", shared.NewValidationErrorf("INVALID_RULE_ATTRIBUTE", "Unknown modifier rule attribute %q", s)
	}
	return a, nil
}

// ModifierRules maps each constrained attribute to its set of accepted values
type ModifierRules map[RuleAttribute][]string

// NewModifierRules builds rules from loosely typed input, rejecting unknown attributes
func NewModifierRules(raw map[string][]string) (ModifierRules, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	rules := make(ModifierRules, len(raw))
	for name, values := range raw {
		attr, err := ParseRuleAttribute(name)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			return nil, shared.NewValidationErrorf("INVALID_RULE_VALUES", "Rule %s must list at least one value", attr)
		}
		rules[attr] = lo.Uniq(append(rules[attr], values...))
	}
	return rules, nil
}

// UnmarshalJSON validates attribute names while decoding
func (r *ModifierRules) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rules, err := NewModifierRules(raw)
	if err != nil {
		return err
	}
	*r = rules
	return nil
}

// Attributes returns the constrained attributes in a stable order
func (r ModifierRules) Attributes() []RuleAttribute {
	attrs := lo.Keys(r)
	sort.Slice(attrs, func(i, j int) bool { return attrs[i] < attrs[j] })
	return attrs
}

// Matches returns true when every rule is satisfied by attrs
func (r ModifierRules) Matches(attrs RuleAttributes) bool {
	for attr, accepted := range r {
		value, ok := attrs[attr]
		if !ok || !lo.Contains(accepted, value) {
			return false
		}
	}
	return true
}

// RuleAttributes carries the facts about a line that modifier rules are evaluated against
type RuleAttributes map[RuleAttribute]string

// InvoiceModifier is a conditional multiplier applied to a base amount
type InvoiceModifier struct {
	ModifierType string           `json:"modifier_type"`
	Multiplier   decimal.Decimal  `json:"multiplier"`
	StartDate    *time.Time       `json:"start_date,omitempty"`
	EndDate      *time.Time       `json:"end_date,omitempty"`
	Rules        ModifierRules    `json:"rules,omitempty"`
	MinAmount    *decimal.Decimal `json:"min_amount,omitempty"`
	MaxAmount    *decimal.Decimal `json:"max_amount,omitempty"`
}

// Validate checks the modifier's structural invariants
func (m InvoiceModifier) Validate() error {
	if strings.TrimSpace(m.ModifierType) == "" {
		return shared.NewValidationError("INVALID_MODIFIER_TYPE", "Modifier type cannot be empty")
	}
	if m.Multiplier.IsNegative() {
		return shared.NewValidationError("INVALID_MODIFIER_MULTIPLIER", "Modifier multiplier cannot be negative")
	}
	if m.StartDate != nil && m.EndDate != nil && m.EndDate.Before(*m.StartDate) {
		return shared.NewValidationError("INVALID_MODIFIER_WINDOW", "Modifier end date cannot be before start date")
	}
	if m.MinAmount != nil && m.MaxAmount != nil && m.MaxAmount.LessThan(*m.MinAmount) {
		return shared.NewValidationError("INVALID_MODIFIER_BOUNDS", "Modifier max amount cannot be less than min amount")
	}
	for attr := range m.Rules {
		if !attr.IsValid() {
			return shared.NewValidationErrorf("INVALID_RULE_ATTRIBUTE", "Unknown modifier rule attribute %q", attr)
		}
	}
	return nil
}

// NewInvoiceModifier creates a validated modifier
func NewInvoiceModifier(
	modifierType string,
	multiplier decimal.Decimal,
	startDate, endDate *time.Time,
	rules ModifierRules,
	minAmount, maxAmount *decimal.Decimal,
) (InvoiceModifier, error) {
	m := InvoiceModifier{
		ModifierType: strings.TrimSpace(modifierType),
		Multiplier:   multiplier,
		StartDate:    startDate,
		EndDate:      endDate,
		Rules:        rules,
		MinAmount:    minAmount,
		MaxAmount:    maxAmount,
	}
	if err := m.Validate(); err != nil {
		return InvoiceModifier{}, err
	}
	return m, nil
}

// ActiveOn reports whether serviceDate falls inside the inclusive date window
func (m InvoiceModifier) ActiveOn(serviceDate time.Time) bool {
	day := civilDate(serviceDate)
	if m.StartDate != nil && day.Before(civilDate(*m.StartDate)) {
		return false
	}
	if m.EndDate != nil && day.After(civilDate(*m.EndDate)) {
		return false
	}
	return true
}

// SelectInvoiceModifier picks the modifier to apply: among modifiers of the
// requested type that are active on serviceDate and whose rules match attrs,
// the one constraining the most attributes wins, ties going to list order.
func SelectInvoiceModifier(
	modifierType string,
	serviceDate time.Time,
	modifiers []InvoiceModifier,
	attrs RuleAttributes,
) (InvoiceModifier, bool) {
	candidates := lo.Filter(modifiers, func(m InvoiceModifier, _ int) bool {
		return m.ModifierType == modifierType && m.ActiveOn(serviceDate) && m.Rules.Matches(attrs)
	})
	if len(candidates) == 0 {
		return InvoiceModifier{}, false
	}

	best := candidates[0]
	for _, m := range candidates[1:] {
		if len(m.Rules) > len(best.Rules) {
			best = m
		}
	}
	return best, true
}

// ApplyInvoiceModifier multiplies base by the selected modifier and clamps the
// result to its bounds. Without a matching modifier base is returned unchanged.
func ApplyInvoiceModifier(
	base valueobject.Money,
	modifierType string,
	serviceDate time.Time,
	modifiers []InvoiceModifier,
	attrs RuleAttributes,
) valueobject.Money {
	m, ok := SelectInvoiceModifier(modifierType, serviceDate, modifiers, attrs)
	if !ok {
		return base
	}
	return base.Multiply(m.Multiplier).Quantize().Clamp(m.MinAmount, m.MaxAmount)
}

package billing

import (
	"context"
	"time"

	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/billing"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared/valueobject"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ==================== Calculator DTOs ====================

// ScheduleRequest projects the allowable amount over the first Months billing months
type ScheduleRequest struct {
	billing.AmountRequest
	Months int `json:"months" binding:"required,min=1,max=120"`
}

// ModifierRequest applies the best matching invoice modifier to a base amount
type ModifierRequest struct {
	BaseAmount   decimal.Decimal           `json:"base_amount"`
	ModifierType string                    `json:"modifier_type" binding:"required,max=50"`
	ServiceDate  time.Time                 `json:"service_date" binding:"required"`
	Modifiers    []billing.InvoiceModifier `json:"modifiers"`
	Attributes   map[string]string         `json:"attributes"`
}

// AmountResponse carries a calculated money amount
type AmountResponse struct {
	Amount valueobject.Money `json:"amount"`
}

// MultiplierResponse carries a calculated multiplier
type MultiplierResponse struct {
	Multiplier decimal.Decimal `json:"multiplier"`
}

// ModifierResponse carries the modified amount and the modifier that produced it
type ModifierResponse struct {
	Amount   valueobject.Money        `json:"amount"`
	Applied  bool                     `json:"applied"`
	Modifier *billing.InvoiceModifier `json:"modifier,omitempty"`
}

// ==================== Calculator Service ====================

// CalculatorService exposes the billing calculator for quotes. It is stateless.
type CalculatorService struct {
	logger *zap.Logger
}

// NewCalculatorService creates a new CalculatorService
func NewCalculatorService(zapLogger *zap.Logger) *CalculatorService {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &CalculatorService{logger: zapLogger.Named("calculator")}
}

func (s *CalculatorService) rejected(span trace.Span, operation string, err error) error {
	telemetry.RecordError(span, err)
	s.logger.Debug("Calculation rejected", zap.String("operation", operation), zap.Error(err))
	return err
}

// AllowableAmount returns the payer-recognized amount for one billing month
func (s *CalculatorService) AllowableAmount(ctx context.Context, req billing.AmountRequest) (*AmountResponse, error) {
	_, span := telemetry.StartServiceSpan(ctx, "billing", "allowable_amount",
		"sale_rent_type", string(req.Type), "billing_month", req.BillingMonth)
	defer span.End()

	amount, err := billing.AllowableAmount(req)
	if err != nil {
		return nil, s.rejected(span, "allowable_amount", err)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrAmount, amount.String())
	return &AmountResponse{Amount: amount}, nil
}

// BillableAmount returns the allowable amount with discount and tax applied
func (s *CalculatorService) BillableAmount(ctx context.Context, req billing.BillableRequest) (*AmountResponse, error) {
	_, span := telemetry.StartServiceSpan(ctx, "billing", "billable_amount",
		"sale_rent_type", string(req.Type), "billing_month", req.BillingMonth)
	defer span.End()

	amount, err := billing.BillableAmount(req)
	if err != nil {
		return nil, s.rejected(span, "billable_amount", err)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrAmount, amount.String())
	return &AmountResponse{Amount: amount}, nil
}

// Schedule projects the allowable amount month by month
func (s *CalculatorService) Schedule(ctx context.Context, req ScheduleRequest) (*billing.RentalSchedule, error) {
	_, span := telemetry.StartServiceSpan(ctx, "billing", "schedule",
		"sale_rent_type", string(req.Type), "months", req.Months)
	defer span.End()

	schedule, err := billing.ProjectSchedule(req.AmountRequest, req.Months)
	if err != nil {
		return nil, s.rejected(span, "schedule", err)
	}
	return &schedule, nil
}

// Multiplier returns the number of billing units covered by a span
func (s *CalculatorService) Multiplier(ctx context.Context, req billing.MultiplierRequest) (*MultiplierResponse, error) {
	_, span := telemetry.StartServiceSpan(ctx, "billing", "multiplier", "frequency", string(req.Frequency))
	defer span.End()

	if !req.Frequency.IsValid() {
		return nil, s.rejected(span, "multiplier",
			shared.NewValidationErrorf("INVALID_FREQUENCY", "Unknown billing frequency %q", req.Frequency))
	}
	method, ok := billing.ParseRoundMethod(string(req.RoundMethod))
	if !ok {
		return nil, s.rejected(span, "multiplier",
			shared.NewValidationErrorf("INVALID_ROUND_METHOD", "Unknown round method %q", req.RoundMethod))
	}
	req.RoundMethod = method
	if err := validateSpan(req.From, req.To); err != nil {
		return nil, s.rejected(span, "multiplier", err)
	}

	return &MultiplierResponse{Multiplier: billing.Multiplier(req)}, nil
}

// AmountMultiplier converts an ordered cadence to the billed cadence over a span
func (s *CalculatorService) AmountMultiplier(ctx context.Context, req billing.AmountMultiplierRequest) (*MultiplierResponse, error) {
	_, span := telemetry.StartServiceSpan(ctx, "billing", "amount_multiplier",
		"ordered_when", string(req.OrderedWhen), "billed_when", string(req.BilledWhen))
	defer span.End()

	if !req.Type.IsValid() {
		return nil, s.rejected(span, "amount_multiplier",
			shared.NewValidationErrorf("INVALID_SALE_RENT_TYPE", "Unknown sale/rent type %q", req.Type))
	}
	for _, f := range []billing.BillingFrequency{req.OrderedWhen, req.BilledWhen} {
		if !f.IsValid() {
			return nil, s.rejected(span, "amount_multiplier",
				shared.NewValidationErrorf("INVALID_FREQUENCY", "Unknown billing frequency %q", f))
		}
	}
	if err := validateSpan(req.DOSFrom, req.DOSTo); err != nil {
		return nil, s.rejected(span, "amount_multiplier", err)
	}

	return &MultiplierResponse{Multiplier: billing.AmountMultiplier(req)}, nil
}

// QuantityMultiplier resolves the multiplier for a quantity against tiered rules
func (s *CalculatorService) QuantityMultiplier(ctx context.Context, req billing.QuantityMultiplierRequest) (*MultiplierResponse, error) {
	_, span := telemetry.StartServiceSpan(ctx, "billing", "quantity_multiplier", "rules", len(req.Rules))
	defer span.End()

	if err := billing.ValidateQuantityRules(req.Rules); err != nil {
		return nil, s.rejected(span, "quantity_multiplier", err)
	}
	return &MultiplierResponse{Multiplier: billing.QuantityMultiplier(req)}, nil
}

// ApplyModifier applies the best matching modifier of the requested type
func (s *CalculatorService) ApplyModifier(ctx context.Context, req ModifierRequest) (*ModifierResponse, error) {
	_, span := telemetry.StartServiceSpan(ctx, "billing", "modifier",
		"modifier_type", req.ModifierType, "modifiers", len(req.Modifiers))
	defer span.End()

	if req.BaseAmount.IsNegative() {
		return nil, s.rejected(span, "modifier",
			shared.NewValidationError("INVALID_AMOUNT", "Base amount cannot be negative"))
	}
	for _, m := range req.Modifiers {
		if err := m.Validate(); err != nil {
			return nil, s.rejected(span, "modifier", err)
		}
	}
	attrs := make(billing.RuleAttributes, len(req.Attributes))
	for name, value := range req.Attributes {
		attr, err := billing.ParseRuleAttribute(name)
		if err != nil {
			return nil, s.rejected(span, "modifier", err)
		}
		attrs[attr] = value
	}

	base := valueobject.USDOf(req.BaseAmount)
	resp := &ModifierResponse{Amount: base}
	if m, ok := billing.SelectInvoiceModifier(req.ModifierType, req.ServiceDate, req.Modifiers, attrs); ok {
		resp.Applied = true
		resp.Modifier = &m
		resp.Amount = billing.ApplyInvoiceModifier(base, req.ModifierType, req.ServiceDate, req.Modifiers, attrs)
	}
	return resp, nil
}

func validateSpan(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return shared.NewValidationError("INVALID_DATE_RANGE", "Both span dates are required")
	}
	return nil
}

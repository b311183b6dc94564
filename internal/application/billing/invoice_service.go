package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/invoice"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/infrastructure/config"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/infrastructure/logger"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Operation names recorded in audit entries, spans and metrics
const (
	OperationCreate          = "create"
	OperationAddSplitDetails = "add_split_details"
	OperationRecalculate     = "recalculate"
	OperationUpdateBalance   = "update_balance"
	OperationAddPayment      = "add_payment"
	OperationCompletePayment = "complete_payment"
	OperationVoidPayment     = "void_payment"
	OperationSubmit          = "submit"
	OperationUpdateStatus    = "update_status"
	OperationCancel          = "cancel"
	OperationPromote         = "promote_submission"
	OperationProcessable     = "find_processable"
)

// Policy holds the configured knobs of the invoice workflow
type Policy struct {
	IncludePendingPayments  bool
	SubmissionApprovalDelay time.Duration
	BatchConcurrency        int
	BatchLimit              int
	Recalc                  invoice.RecalcOptions
}

// DefaultPolicy returns the policy used when no configuration is supplied
func DefaultPolicy() Policy {
	return Policy{
		SubmissionApprovalDelay: 24 * time.Hour,
		BatchConcurrency:        4,
		BatchLimit:              500,
		Recalc:                  invoice.DefaultRecalcOptions(),
	}
}

// PolicyFromConfig builds a Policy from the billing configuration section
func PolicyFromConfig(cfg *config.BillingConfig) Policy {
	p := DefaultPolicy()
	if cfg == nil {
		return p
	}
	p.IncludePendingPayments = cfg.IncludePendingPayments
	p.Recalc = invoice.RecalcOptions{ApplyTax: cfg.ApplyTax, ApplyDiscount: cfg.ApplyDiscount}
	if cfg.SubmissionApprovalDelay > 0 {
		p.SubmissionApprovalDelay = cfg.SubmissionApprovalDelay
	}
	if cfg.BatchConcurrency > 0 {
		p.BatchConcurrency = cfg.BatchConcurrency
	}
	if cfg.BatchLimit > 0 {
		p.BatchLimit = cfg.BatchLimit
	}
	return p
}

// InvoiceService runs the invoice lifecycle engine against persisted invoices.
// Every mutating operation loads the invoice, applies one engine operation,
// saves the result with optimistic locking and appends the change log to the
// audit trail.
type InvoiceService struct {
	repo    invoice.Repository
	audit   invoice.AuditRepository
	engine  *invoice.Service
	policy  Policy
	logger  *zap.Logger
	metrics *telemetry.BillingMetrics
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	repo invoice.Repository,
	audit invoice.AuditRepository,
	engine *invoice.Service,
	policy Policy,
	zapLogger *zap.Logger,
) *InvoiceService {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	if policy.BatchConcurrency < 1 {
		policy.BatchConcurrency = 1
	}
	return &InvoiceService{
		repo:   repo,
		audit:  audit,
		engine: engine,
		policy: policy,
		logger: zapLogger.Named("invoice"),
	}
}

// SetMetrics attaches billing metrics. A nil value disables recording.
func (s *InvoiceService) SetMetrics(metrics *telemetry.BillingMetrics) {
	s.metrics = metrics
}

func (s *InvoiceService) log(ctx context.Context) *zap.Logger {
	return logger.Enrich(ctx, s.logger)
}

// outcomeOf classifies an error for metrics: domain errors are rejections,
// anything else is an infrastructure error.
func outcomeOf(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return telemetry.OutcomeRejected
	}
	return telemetry.OutcomeError
}

// logFailure logs rejected requests at Warn and infrastructure failures at Error
func logFailure(log *zap.Logger, msg string, err error) {
	if outcomeOf(err) == telemetry.OutcomeRejected {
		log.Warn(msg, zap.Error(err))
		return
	}
	log.Error(msg, zap.Error(err))
}

// appendAudit persists a change log. The invoice is already saved, so a
// failure here is logged and not returned.
func (s *InvoiceService) appendAudit(ctx context.Context, invoiceID uuid.UUID, operation string, changes invoice.ChangeLog) {
	if s.audit == nil || changes.IsEmpty() {
		return
	}
	entries := invoice.NewAuditEntries(invoiceID, operation, changes, s.engine.Now())
	if err := s.audit.Append(ctx, entries); err != nil {
		s.log(ctx).Error("Failed to append audit entries",
			logger.InvoiceID(invoiceID),
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
}

// mutation is one engine operation applied to a loaded invoice
type mutation func(inv invoice.Invoice) (invoice.Invoice, invoice.ChangeLog, error)

// mutate loads the invoice, applies fn and persists the result. An operation
// that logs no changes is not saved.
func (s *InvoiceService) mutate(ctx context.Context, operation string, id uuid.UUID, fn mutation) (*InvoiceOperationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", operation, telemetry.SpanAttrInvoiceID, id.String())
	defer span.End()

	log := s.log(ctx).With(logger.InvoiceID(id), zap.String("operation", operation))

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		logFailure(log, "Failed to load invoice", err)
		s.metrics.RecordOperation(ctx, operation, outcomeOf(err), 0)
		return nil, err
	}

	updated, changes, err := fn(*current)
	if err != nil {
		telemetry.RecordError(span, err)
		logFailure(log, "Invoice operation rejected", err)
		s.metrics.RecordOperation(ctx, operation, outcomeOf(err), 0)
		return nil, err
	}

	if !changes.IsEmpty() {
		if err := s.repo.Save(ctx, &updated); err != nil {
			telemetry.RecordError(span, err)
			logFailure(log, "Failed to save invoice", err)
			s.metrics.RecordOperation(ctx, operation, outcomeOf(err), 0)
			return nil, err
		}
		s.appendAudit(ctx, id, operation, changes)
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceStatus, string(updated.Status),
		telemetry.SpanAttrChanges, len(changes),
	)
	log.Info("Invoice operation applied", logger.Changes(changes.Strings()))
	s.metrics.RecordOperation(ctx, operation, telemetry.OutcomeSuccess, len(changes))

	return &InvoiceOperationResponse{
		Invoice: ToInvoiceResponse(updated),
		Changes: changes.Strings(),
	}, nil
}

// Create opens a new draft invoice
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", OperationCreate,
		telemetry.SpanAttrCustomerID, req.CustomerID.String())
	defer span.End()

	inv, err := invoice.NewInvoice(req.CustomerID, req.InvoiceDate, req.DueDate, s.engine.Now())
	if err != nil {
		telemetry.RecordError(span, err)
		s.log(ctx).Warn("Invalid invoice", zap.Error(err))
		s.metrics.RecordOperation(ctx, OperationCreate, outcomeOf(err), 0)
		return nil, err
	}
	inv.Notes = strings.TrimSpace(req.Notes)

	if err := s.repo.Create(ctx, &inv); err != nil {
		telemetry.RecordError(span, err)
		s.log(ctx).Error("Failed to create invoice", logger.InvoiceID(inv.ID), zap.Error(err))
		s.metrics.RecordOperation(ctx, OperationCreate, outcomeOf(err), 0)
		return nil, err
	}

	var changes invoice.ChangeLog
	changes.Addf("Invoice created for customer %s", req.CustomerID)
	s.appendAudit(ctx, inv.ID, OperationCreate, changes)

	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, inv.ID.String())
	s.log(ctx).Info("Invoice created", logger.InvoiceID(inv.ID), zap.String("customer_id", req.CustomerID.String()))
	s.metrics.RecordOperation(ctx, OperationCreate, telemetry.OutcomeSuccess, len(changes))

	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// GetByID loads one invoice
func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(*inv)
	return &resp, nil
}

// List returns invoices matching the request filter, oldest first
func (s *InvoiceService) List(ctx context.Context, req ListInvoicesRequest) ([]InvoiceResponse, error) {
	filter := invoice.Filter{Limit: req.Limit}
	if filter.Limit <= 0 {
		filter.Limit = s.policy.BatchLimit
	}
	if req.Status != "" {
		status, err := invoice.ParseInvoiceStatus(req.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}
	if req.CustomerID != "" {
		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return nil, shared.NewValidationError("INVALID_CUSTOMER", "Customer ID must be a UUID")
		}
		filter.CustomerID = &customerID
	}

	invoices, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.log(ctx).Error("Failed to list invoices", zap.Error(err))
		return nil, err
	}
	return ToInvoiceResponses(invoices), nil
}

// AuditTrail returns the persisted change log of an invoice in order
func (s *InvoiceService) AuditTrail(ctx context.Context, id uuid.UUID) ([]AuditEntryResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.audit.FindByInvoice(ctx, id)
	if err != nil {
		s.log(ctx).Error("Failed to load audit trail", logger.InvoiceID(id), zap.Error(err))
		return nil, err
	}
	return ToAuditEntryResponses(entries), nil
}

// AddSplitDetails generates one detail per split date, attaches them to the
// invoice and brings totals and balance up to date.
func (s *InvoiceService) AddSplitDetails(ctx context.Context, id uuid.UUID, req AddSplitDetailsRequest) (*InvoiceOperationResponse, error) {
	return s.mutate(ctx, OperationAddSplitDetails, id, func(inv invoice.Invoice) (invoice.Invoice, invoice.ChangeLog, error) {
		details, err := s.engine.AddAutoSplitDetails(invoice.SplitRequest{
			InvoiceID:       inv.ID,
			ItemID:          req.ItemID,
			TotalQuantity:   req.TotalQuantity,
			UnitPrice:       req.UnitPrice,
			SplitDates:      req.SplitDates,
			SplitQuantities: req.SplitQuantities,
			TaxPercent:      req.TaxPercent,
			DiscountPercent: req.DiscountPercent,
		})
		if err != nil {
			return inv, nil, err
		}
		out, changes, err := s.engine.AttachDetails(inv, details, s.policy.Recalc)
		if err != nil {
			return inv, nil, err
		}
		out, balance := s.engine.UpdateBalance(out, s.policy.IncludePendingPayments)
		changes.Append(balance)
		return out, changes, nil
	})
}

// Recalculate reprices every detail, recomputes the totals and then the balance
func (s *InvoiceService) Recalculate(ctx context.Context, id uuid.UUID) (*InvoiceOperationResponse, error) {
	return s.mutate(ctx, OperationRecalculate, id, func(inv invoice.Invoice) (invoice.Invoice, invoice.ChangeLog, error) {
		out, changes := s.engine.RecalculateInternals(inv, s.policy.Recalc)
		out, balance := s.engine.UpdateBalance(out, s.policy.IncludePendingPayments)
		changes.Append(balance)
		return out, changes, nil
	})
}

// UpdateBalance recomputes the balance from the invoice's payments
func (s *InvoiceService) UpdateBalance(ctx context.Context, id uuid.UUID, req UpdateBalanceRequest) (*InvoiceOperationResponse, error) {
	includePending := s.policy.IncludePendingPayments
	if req.IncludePending != nil {
		includePending = *req.IncludePending
	}
	return s.mutate(ctx, OperationUpdateBalance, id, func(inv invoice.Invoice) (invoice.Invoice, invoice.ChangeLog, error) {
		out, changes := s.engine.UpdateBalance(inv, includePending)
		return out, changes, nil
	})
}

// AddPayment records a pending payment against the invoice
func (s *InvoiceService) AddPayment(ctx context.Context, id uuid.UUID, req AddPaymentRequest) (*PaymentOperationResponse, error) {
	var payment invoice.Payment
	result, err := s.mutate(ctx, OperationAddPayment, id, func(inv invoice.Invoice) (invoice.Invoice, invoice.ChangeLog, error) {
		out, p, changes, err := s.engine.AddPayment(inv, invoice.PaymentRequest{
			Amount:          req.Amount,
			Method:          invoice.PaymentMethod(req.Method),
			ReferenceNumber: req.ReferenceNumber,
			PaymentDate:     req.PaymentDate,
			Notes:           req.Notes,
		})
		payment = p
		return out, changes, err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPayment(ctx, string(payment.Method), payment.Amount)
	return &PaymentOperationResponse{
		Invoice: result.Invoice,
		Payment: ToPaymentResponse(payment),
		Changes: result.Changes,
	}, nil
}

// CompletePayment settles an in-flight payment
func (s *InvoiceService) CompletePayment(ctx context.Context, id, paymentID uuid.UUID) (*InvoiceOperationResponse, error) {
	return s.mutate(ctx, OperationCompletePayment, id, func(inv invoice.Invoice) (invoice.Invoice, invoice.ChangeLog, error) {
		return s.engine.CompletePayment(inv, paymentID)
	})
}

// VoidPayment voids an in-flight payment and recomputes the balance under the
// configured pending-payment policy
func (s *InvoiceService) VoidPayment(ctx context.Context, id, paymentID uuid.UUID, req VoidPaymentRequest) (*InvoiceOperationResponse, error) {
	return s.mutate(ctx, OperationVoidPayment, id, func(inv invoice.Invoice) (invoice.Invoice, invoice.ChangeLog, error) {
		return s.engine.VoidPayment(inv, paymentID, strings.TrimSpace(req.Reason), s.policy.IncludePendingPayments)
	})
}

// Submit submits the invoice and its details
func (s *InvoiceService) Submit(ctx context.Context, id uuid.UUID, req SubmitInvoiceRequest) (*InvoiceOperationResponse, error) {
	return s.mutate(ctx, OperationSubmit, id, func(inv invoice.Invoice) (invoice.Invoice, invoice.ChangeLog, error) {
		return s.engine.SubmitInvoice(inv, req.SubmissionDate, req.AutoSubmit)
	})
}

// UpdateStatus applies a validated status transition
func (s *InvoiceService) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*InvoiceOperationResponse, error) {
	status, err := invoice.ParseInvoiceStatus(req.Status)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, OperationUpdateStatus, id, func(inv invoice.Invoice) (invoice.Invoice, invoice.ChangeLog, error) {
		return s.engine.UpdateInvoiceStatus(inv, status, req.UpdateDetails, strings.TrimSpace(req.Notes))
	})
}

// Cancel cancels the invoice and its details, optionally voiding in-flight payments
func (s *InvoiceService) Cancel(ctx context.Context, id uuid.UUID, req CancelInvoiceRequest) (*InvoiceOperationResponse, error) {
	return s.mutate(ctx, OperationCancel, id, func(inv invoice.Invoice) (invoice.Invoice, invoice.ChangeLog, error) {
		return s.engine.CancelInvoice(inv, strings.TrimSpace(req.Reason), req.CancelPayments)
	})
}

// batchFailure converts an error into a per-invoice batch report
func batchFailure(id uuid.UUID, err error) BatchFailure {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return BatchFailure{InvoiceID: id, Code: de.Code, Message: de.Message}
	}
	return BatchFailure{InvoiceID: id, Code: "INTERNAL_ERROR", Message: fmt.Sprintf("processing failed: %v", err)}
}

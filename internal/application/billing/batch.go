package billing

import (
	"context"
	"errors"
	"time"

	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/invoice"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/infrastructure/logger"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type promotionResult struct {
	invoice *invoice.Invoice
	changes invoice.ChangeLog
	err     error
}

// PromotePendingSubmissions approves every Submitted invoice untouched since
// the cutoff. Invoices are saved concurrently; an invoice that fails to save
// is reported in Failed and does not stop the run.
func (s *InvoiceService) PromotePendingSubmissions(ctx context.Context, req PromoteSubmissionsRequest) (*PromoteSubmissionsResponse, error) {
	started := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", OperationPromote)
	defer span.End()

	cutoff := s.engine.Now().Add(-s.policy.SubmissionApprovalDelay)
	if req.Cutoff != nil {
		cutoff = *req.Cutoff
	}

	status := invoice.InvoiceStatusSubmitted
	candidates, err := s.repo.FindAll(ctx, invoice.Filter{
		Status:        &status,
		UpdatedBefore: &cutoff,
		Limit:         s.policy.BatchLimit,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.log(ctx).Error("Failed to load submitted invoices", zap.Error(err))
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrBatchSize, len(candidates))

	results := make([]promotionResult, len(candidates))
	var g errgroup.Group
	g.SetLimit(s.policy.BatchConcurrency)
	for i := range candidates {
		g.Go(func() error {
			results[i] = s.promoteOne(ctx, candidates[i], cutoff)
			return nil
		})
	}
	_ = g.Wait()

	resp := &PromoteSubmissionsResponse{
		Cutoff:   cutoff,
		Promoted: make([]InvoiceResponse, 0),
		Changes:  make([]string, 0),
		Failed:   make([]BatchFailure, 0),
	}
	for i, r := range results {
		switch {
		case r.err != nil:
			resp.Failed = append(resp.Failed, batchFailure(candidates[i].ID, r.err))
		case r.invoice != nil:
			resp.Promoted = append(resp.Promoted, ToInvoiceResponse(*r.invoice))
			resp.Changes = append(resp.Changes, r.changes.Strings()...)
		}
	}

	s.metrics.RecordBatch(ctx, OperationPromote, time.Since(started))
	s.log(ctx).Info("Pending submissions promoted",
		zap.Time("cutoff", cutoff),
		zap.Int("candidates", len(candidates)),
		zap.Int("promoted", len(resp.Promoted)),
		zap.Int("failed", len(resp.Failed)),
	)
	return resp, nil
}

// promoteOne runs the promotion for a single invoice and saves it
func (s *InvoiceService) promoteOne(ctx context.Context, candidate invoice.Invoice, cutoff time.Time) promotionResult {
	log := s.log(ctx).With(logger.InvoiceID(candidate.ID), zap.String("operation", OperationPromote))

	promoted, changes := s.engine.UpdatePendingSubmissions([]invoice.Invoice{candidate}, cutoff)
	if len(promoted) == 0 {
		return promotionResult{}
	}
	inv := promoted[0]
	if err := s.repo.Save(ctx, &inv); err != nil {
		logFailure(log, "Failed to save promoted invoice", err)
		s.metrics.RecordOperation(ctx, OperationPromote, outcomeOf(err), 0)
		return promotionResult{err: err}
	}
	s.appendAudit(ctx, inv.ID, OperationPromote, changes)
	log.Info("Invoice approved", logger.Changes(changes.Strings()))
	s.metrics.RecordOperation(ctx, OperationPromote, telemetry.OutcomeSuccess, len(changes))
	return promotionResult{invoice: &inv, changes: changes}
}

// FindProcessable partitions candidate invoices into those batch processing
// should handle and those it should skip. Explicit invoice IDs are loaded
// concurrently and unknown IDs are reported as missing; without IDs the
// oldest invoices up to the batch limit are considered.
func (s *InvoiceService) FindProcessable(ctx context.Context, req ProcessableInvoicesRequest) (*ProcessableInvoicesResponse, error) {
	started := time.Now()
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", OperationProcessable)
	defer span.End()

	var (
		candidates []invoice.Invoice
		missing    []uuid.UUID
		err        error
	)
	if len(req.InvoiceIDs) > 0 {
		candidates, missing, err = s.loadInvoices(ctx, lo.Uniq(req.InvoiceIDs))
	} else {
		candidates, err = s.repo.FindAll(ctx, invoice.Filter{Limit: s.policy.BatchLimit})
	}
	if err != nil {
		telemetry.RecordError(span, err)
		s.log(ctx).Error("Failed to load invoices for batch processing", zap.Error(err))
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrBatchSize, len(candidates))

	processable, skipped := s.engine.FilterProcessableInvoices(candidates, req.SkipOptions())
	for _, sk := range skipped {
		s.metrics.RecordSkipped(ctx, sk.Reason.String())
	}
	s.metrics.RecordBatch(ctx, OperationProcessable, time.Since(started))

	s.log(ctx).Info("Processable invoices selected",
		zap.Int("candidates", len(candidates)),
		zap.Int("processable", len(processable)),
		zap.Int("skipped", len(skipped)),
		zap.Int("missing", len(missing)),
	)

	if missing == nil {
		missing = []uuid.UUID{}
	}
	return &ProcessableInvoicesResponse{
		Processable: ToInvoiceResponses(processable),
		Skipped: lo.Map(skipped, func(sk invoice.SkippedInvoice, _ int) SkippedInvoiceResponse {
			return SkippedInvoiceResponse{
				InvoiceID:   sk.Invoice.ID,
				Reason:      sk.Reason.String(),
				Description: sk.Reason.Description(),
			}
		}),
		Missing: missing,
	}, nil
}

// loadInvoices fetches ids concurrently, preserving their order. Unknown ids
// are returned separately; any other error aborts the load.
func (s *InvoiceService) loadInvoices(ctx context.Context, ids []uuid.UUID) ([]invoice.Invoice, []uuid.UUID, error) {
	loaded := make([]*invoice.Invoice, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.policy.BatchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			inv, err := s.repo.FindByID(gctx, id)
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			loaded[i] = inv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	invoices := make([]invoice.Invoice, 0, len(ids))
	missing := make([]uuid.UUID, 0)
	for i, inv := range loaded {
		if inv == nil {
			missing = append(missing, ids[i])
			continue
		}
		invoices = append(invoices, *inv)
	}
	return invoices, missing, nil
}

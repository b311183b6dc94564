package telemetry

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// Operation outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// BillingMetrics counts invoice engine activity
type BillingMetrics struct {
	operationsTotal *Counter
	changesTotal    *Counter
	paymentCents    *Counter
	skippedTotal    *Counter
	batchDuration   *Histogram
}

// NewBillingMetrics registers the billing instruments on meter
func NewBillingMetrics(meter metric.Meter) (*BillingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	bm := &BillingMetrics{}
	var err error
	if bm.operationsTotal, err = NewCounter(meter,
		"dme_invoice_operations_total", "Invoice lifecycle operations by outcome", "{operations}"); err != nil {
		return nil, err
	}
	if bm.changesTotal, err = NewCounter(meter,
		"dme_invoice_changes_total", "Change-log entries produced by invoice operations", "{changes}"); err != nil {
		return nil, err
	}
	if bm.paymentCents, err = NewCounter(meter,
		"dme_payment_amount_total", "Payment amount accepted, in cents", "{cents}"); err != nil {
		return nil, err
	}
	if bm.skippedTotal, err = NewCounter(meter,
		"dme_invoice_skipped_total", "Invoices skipped by batch processing", "{invoices}"); err != nil {
		return nil, err
	}
	if bm.batchDuration, err = NewHistogram(meter,
		"dme_invoice_batch_duration_seconds", "Duration of invoice batch jobs", "s", BatchDurationBuckets...); err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordOperation records one invoice operation and the number of changes it logged
func (bm *BillingMetrics) RecordOperation(ctx context.Context, operation, outcome string, changes int) {
	if bm == nil {
		return
	}
	bm.operationsTotal.Inc(ctx, AttrOperation.String(operation), AttrOutcome.String(outcome))
	if changes > 0 {
		bm.changesTotal.Add(ctx, int64(changes), AttrOperation.String(operation))
	}
}

// RecordPayment records an accepted payment amount
func (bm *BillingMetrics) RecordPayment(ctx context.Context, method string, amount decimal.Decimal) {
	if bm == nil {
		return
	}
	cents := amount.Shift(2).Round(0).IntPart()
	bm.paymentCents.Add(ctx, cents, AttrPaymentMethod.String(method))
}

// RecordSkipped records an invoice excluded from batch processing
func (bm *BillingMetrics) RecordSkipped(ctx context.Context, reason string) {
	if bm == nil {
		return
	}
	bm.skippedTotal.Inc(ctx, AttrSkipReason.String(reason))
}

// RecordBatch records the duration of a batch job
func (bm *BillingMetrics) RecordBatch(ctx context.Context, operation string, d time.Duration) {
	if bm == nil {
		return
	}
	bm.batchDuration.RecordDuration(ctx, d, AttrOperation.String(operation))
}

package invoice

import (
	"time"

	"github.com/samber/lo"
)

// SkipReason explains why batch processing left an invoice alone
type SkipReason string

const (
	SkipReasonNone              SkipReason = ""
	SkipReasonClosed            SkipReason = "CLOSED"
	SkipReasonFutureInvoice     SkipReason = "FUTURE_INVOICE_DATE"
	SkipReasonPastDue           SkipReason = "PAST_DUE"
	SkipReasonNoActiveDetails   SkipReason = "NO_ACTIVE_DETAILS"
	SkipReasonUnsettledPayments SkipReason = "UNSETTLED_PAYMENTS"
)

// String returns the string representation of SkipReason
func (r SkipReason) String() string {
	return string(r)
}

// Description returns a human-readable explanation
func (r SkipReason) Description() string {
	switch r {
	case SkipReasonClosed:
		return "Invoice is cancelled or paid"
	case SkipReasonFutureInvoice:
		return "Invoice date is in the future"
	case SkipReasonPastDue:
		return "Invoice due date has passed"
	case SkipReasonNoActiveDetails:
		return "Invoice has no active details"
	case SkipReasonUnsettledPayments:
		return "Invoice has payments that are not completed, voided or failed"
	}
	return ""
}

// SkipOptions enables the individual skip checks
type SkipOptions struct {
	CheckDetails  bool
	CheckPayments bool
	CheckDates    bool
}

// DefaultSkipOptions enables every check
func DefaultSkipOptions() SkipOptions {
	return SkipOptions{CheckDetails: true, CheckPayments: true, CheckDates: true}
}

// SkippedInvoice pairs an invoice with the reason it was skipped
type SkippedInvoice struct {
	Invoice Invoice
	Reason  SkipReason
}

// ShouldSkipInvoice applies the skip checks in order and reports the first
// that matches: closed status, then dates, then details, then payments.
func (s *Service) ShouldSkipInvoice(inv Invoice, opts SkipOptions) (bool, SkipReason) {
	return shouldSkip(inv, opts, s.clock.Now())
}

// calendarDay drops the time of day; invoice and due dates compare as dates.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func shouldSkip(inv Invoice, opts SkipOptions, now time.Time) (bool, SkipReason) {
	if inv.Status.IsClosed() {
		return true, SkipReasonClosed
	}

	if opts.CheckDates {
		today := calendarDay(now)
		if calendarDay(inv.InvoiceDate).After(today) {
			return true, SkipReasonFutureInvoice
		}
		if !inv.DueDate.IsZero() && calendarDay(inv.DueDate).Before(today) {
			return true, SkipReasonPastDue
		}
	}

	if opts.CheckDetails {
		open := lo.CountBy(inv.Details, func(d InvoiceDetail) bool {
			return !d.Status.IsClosed()
		})
		if open == 0 {
			return true, SkipReasonNoActiveDetails
		}
	}

	if opts.CheckPayments {
		unsettled := lo.ContainsBy(inv.Payments, func(p Payment) bool {
			return p.Status != PaymentStatusCompleted && p.Status != PaymentStatusVoided && p.Status != PaymentStatusFailed
		})
		if unsettled {
			return true, SkipReasonUnsettledPayments
		}
	}

	return false, SkipReasonNone
}

// FilterProcessableInvoices partitions invoices into those batch processing
// should handle and those it should skip, preserving input order in both.
func (s *Service) FilterProcessableInvoices(invoices []Invoice, opts SkipOptions) ([]Invoice, []SkippedInvoice) {
	now := s.clock.Now()
	processable := make([]Invoice, 0, len(invoices))
	skipped := make([]SkippedInvoice, 0)

	for _, inv := range invoices {
		if skip, reason := shouldSkip(inv, opts, now); skip {
			skipped = append(skipped, SkippedInvoice{Invoice: inv, Reason: reason})
			continue
		}
		processable = append(processable, inv)
	}
	return processable, skipped
}

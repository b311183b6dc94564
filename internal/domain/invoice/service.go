package invoice

import (
	"time"

	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/billing"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Service is the invoice lifecycle engine. Every method takes an invoice
// value and returns an updated copy plus a change log; the argument is never
// mutated and nothing is persisted.
type Service struct {
	clock shared.Clock
}

// NewService creates a Service reading the current time from clock
func NewService(clock shared.Clock) *Service {
	if clock == nil {
		clock = shared.SystemClock()
	}
	return &Service{clock: clock}
}

// Now returns the service clock's current time
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// SplitRequest describes one item quantity divided across several service dates
type SplitRequest struct {
	InvoiceID       uuid.UUID
	ItemID          uuid.UUID
	TotalQuantity   decimal.Decimal
	UnitPrice       decimal.Decimal
	SplitDates      []time.Time
	SplitQuantities []decimal.Decimal
	TaxPercent      decimal.Decimal
	DiscountPercent decimal.Decimal
}

func (r SplitRequest) validate() error {
	if len(r.SplitDates) == 0 {
		return shared.NewValidationError("SPLIT_MISMATCH", "At least one split is required")
	}
	if len(r.SplitDates) != len(r.SplitQuantities) {
		return shared.NewValidationErrorf("SPLIT_MISMATCH",
			"Split dates (%d) and split quantities (%d) must have the same length", len(r.SplitDates), len(r.SplitQuantities))
	}
	for i, q := range r.SplitQuantities {
		if !q.IsPositive() {
			return shared.NewValidationErrorf("INVALID_QUANTITY", "Split quantity %d must be positive", i+1)
		}
	}
	sum := lo.Reduce(r.SplitQuantities, func(acc decimal.Decimal, q decimal.Decimal, _ int) decimal.Decimal {
		return acc.Add(q)
	}, decimal.Zero)
	if !sum.Equal(r.TotalQuantity) {
		return shared.NewValidationErrorf("SPLIT_MISMATCH",
			"Split quantities sum to %s but total quantity is %s", sum.String(), r.TotalQuantity.String())
	}
	if r.UnitPrice.IsNegative() {
		return shared.NewValidationError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if r.DiscountPercent.IsNegative() || r.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewValidationError("INVALID_DISCOUNT", "Discount percent must be between 0 and 100")
	}
	if r.TaxPercent.IsNegative() {
		return shared.NewValidationError("INVALID_TAX", "Tax percent cannot be negative")
	}
	return nil
}

// AddAutoSplitDetails produces one draft detail per split. Each detail is
// priced as quantity*unit_price with the discount and then tax applied.
func (s *Service) AddAutoSplitDetails(req SplitRequest) ([]InvoiceDetail, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	details := make([]InvoiceDetail, 0, len(req.SplitDates))
	for i, date := range req.SplitDates {
		amounts := billing.CalculateLineAmounts(billing.LineInput{
			Quantity:        req.SplitQuantities[i],
			UnitPrice:       req.UnitPrice,
			DiscountPercent: req.DiscountPercent,
			TaxPercent:      req.TaxPercent,
			ApplyDiscount:   true,
			ApplyTax:        true,
		})
		details = append(details, InvoiceDetail{
			BaseEntity:      shared.NewBaseEntity(now),
			InvoiceID:       req.InvoiceID,
			ItemID:          req.ItemID,
			ServiceDate:     date,
			Quantity:        req.SplitQuantities[i],
			UnitPrice:       req.UnitPrice,
			DiscountPercent: req.DiscountPercent,
			TaxPercent:      req.TaxPercent,
			TotalAmount:     amounts.Total,
			Status:          InvoiceStatusDraft,
		})
	}
	return details, nil
}

// AttachDetails appends details to an editable invoice and recalculates its totals
func (s *Service) AttachDetails(inv Invoice, details []InvoiceDetail, opts RecalcOptions) (Invoice, ChangeLog, error) {
	if inv.Status != InvoiceStatusDraft && inv.Status != InvoiceStatusPending {
		return inv, nil, shared.NewInvalidStateError("Cannot add details to an invoice in %s status", inv.Status)
	}

	out := inv.Clone()
	var changes ChangeLog
	for _, d := range details {
		d.InvoiceID = out.ID
		out.Details = append(out.Details, d)
		changes.Addf("Detail %s added: quantity %s at %s", shortID(d.ID), d.Quantity.String(), formatAmount(d.UnitPrice))
	}
	if len(details) > 0 {
		out.Touch(s.clock.Now())
	}

	out, recalc := s.RecalculateInternals(out, opts)
	changes.Append(recalc)
	return out, changes, nil
}

// RecalcOptions selects which adjustments recalculation applies
type RecalcOptions struct {
	ApplyTax      bool
	ApplyDiscount bool
}

// DefaultRecalcOptions applies both tax and discount
func DefaultRecalcOptions() RecalcOptions {
	return RecalcOptions{ApplyTax: true, ApplyDiscount: true}
}

func (d InvoiceDetail) lineAmounts(opts RecalcOptions) billing.LineAmounts {
	return billing.CalculateLineAmounts(billing.LineInput{
		Quantity:        d.Quantity,
		UnitPrice:       d.UnitPrice,
		DiscountPercent: d.DiscountPercent,
		TaxPercent:      d.TaxPercent,
		ApplyDiscount:   opts.ApplyDiscount,
		ApplyTax:        opts.ApplyTax,
	})
}

// RecalculateDetail reprices a single detail. A cancelled detail is returned
// unchanged with a note.
func (s *Service) RecalculateDetail(detail InvoiceDetail, opts RecalcOptions) (InvoiceDetail, ChangeLog) {
	var changes ChangeLog
	if detail.Status == InvoiceStatusCancelled {
		changes.Addf("Detail %s is cancelled; no recalculation performed", shortID(detail.ID))
		return detail, changes
	}

	amounts := detail.lineAmounts(opts)
	if !amounts.Total.Equal(detail.TotalAmount) {
		changes.Addf("Detail %s total updated from %s to %s",
			shortID(detail.ID), formatAmount(detail.TotalAmount), formatAmount(amounts.Total))
		detail.TotalAmount = amounts.Total
		detail.Touch(s.clock.Now())
	}
	return detail, changes
}

// RecalculateInternals reprices every non-cancelled detail and rebuilds the
// invoice totals from them. updated_at moves only when something changed.
func (s *Service) RecalculateInternals(inv Invoice, opts RecalcOptions) (Invoice, ChangeLog) {
	out := inv.Clone()
	now := s.clock.Now()
	var changes ChangeLog

	subtotal, discount, tax, total := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for i := range out.Details {
		d := out.Details[i]
		if d.Status == InvoiceStatusCancelled {
			continue
		}
		amounts := d.lineAmounts(opts)
		if !amounts.Total.Equal(d.TotalAmount) {
			changes.Addf("Detail %s total updated from %s to %s",
				shortID(d.ID), formatAmount(d.TotalAmount), formatAmount(amounts.Total))
			out.Details[i].TotalAmount = amounts.Total
			out.Details[i].Touch(now)
		}
		subtotal = subtotal.Add(amounts.Subtotal)
		discount = discount.Add(amounts.Discount)
		tax = tax.Add(amounts.Tax)
		total = total.Add(amounts.Total)
	}

	setAmount := func(label string, field *decimal.Decimal, value decimal.Decimal) {
		if field.Equal(value) {
			return
		}
		changes.Addf("%s updated from %s to %s", label, formatAmount(*field), formatAmount(value))
		*field = value
	}
	setAmount("Subtotal", &out.Subtotal, subtotal)
	setAmount("Discount total", &out.DiscountTotal, discount)
	setAmount("Tax total", &out.TaxTotal, tax)
	setAmount("Total amount", &out.TotalAmount, total)

	if !changes.IsEmpty() {
		out.Touch(now)
	}
	return out, changes
}

// settledAmount sums the payments counted against the balance
func settledAmount(payments []Payment, includePending bool) decimal.Decimal {
	return lo.Reduce(payments, func(acc decimal.Decimal, p Payment, _ int) decimal.Decimal {
		if p.Status == PaymentStatusCompleted || (includePending && p.Status.IsInFlight()) {
			return acc.Add(p.Amount)
		}
		return acc
	}, decimal.Zero)
}

// markPaidIfSettled forces Paid once a positive total has been fully covered
func (s *Service) markPaidIfSettled(inv *Invoice, changes *ChangeLog) {
	if !inv.Balance.IsZero() || inv.Status.IsClosed() || !inv.TotalAmount.IsPositive() {
		return
	}
	changes.Addf("Status changed from %s to %s", inv.Status, InvoiceStatusPaid)
	inv.Status = InvoiceStatusPaid
}

// UpdateBalance sets balance = total - payments. Completed payments always
// count; pending and processing ones count when includePending is set. A
// balance of exactly zero marks the invoice Paid.
func (s *Service) UpdateBalance(inv Invoice, includePending bool) (Invoice, ChangeLog) {
	out := inv.Clone()
	var changes ChangeLog

	balance := out.TotalAmount.Sub(settledAmount(out.Payments, includePending))
	if !balance.Equal(out.Balance) {
		changes.Addf("Balance updated from %s to %s", formatAmount(out.Balance), formatAmount(balance))
		out.Balance = balance
	}
	s.markPaidIfSettled(&out, &changes)

	if !changes.IsEmpty() {
		out.Touch(s.clock.Now())
	}
	return out, changes
}

// PaymentRequest carries the caller-supplied fields of a new payment
type PaymentRequest struct {
	Amount          decimal.Decimal
	Method          PaymentMethod
	ReferenceNumber string
	PaymentDate     *time.Time // defaults to now
	Notes           string
}

// AddPayment records a pending payment and reduces the balance by its amount.
// The amount must be positive and no greater than the current balance; on
// failure the invoice is returned unmodified.
func (s *Service) AddPayment(inv Invoice, req PaymentRequest) (Invoice, Payment, ChangeLog, error) {
	if inv.Status == InvoiceStatusCancelled {
		return inv, Payment{}, nil, shared.NewInvalidStateError("Cannot add a payment to a cancelled invoice")
	}
	if !req.Amount.IsPositive() {
		return inv, Payment{}, nil, shared.NewValidationError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if req.Amount.GreaterThan(inv.Balance) {
		return inv, Payment{}, nil, shared.NewValidationErrorf("EXCEEDS_BALANCE",
			"Payment amount %s exceeds invoice balance %s", formatAmount(req.Amount), formatAmount(inv.Balance))
	}
	if !req.Method.IsValid() {
		return inv, Payment{}, nil, shared.NewValidationErrorf("INVALID_PAYMENT_METHOD", "Unknown payment method %q", req.Method)
	}

	now := s.clock.Now()
	paymentDate := now
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}

	payment := Payment{
		BaseEntity:      shared.NewBaseEntity(now),
		InvoiceID:       inv.ID,
		Amount:          req.Amount,
		PaymentDate:     paymentDate,
		Method:          req.Method,
		ReferenceNumber: req.ReferenceNumber,
		Status:          PaymentStatusPending,
		Notes:           req.Notes,
	}

	out := inv.Clone()
	out.Payments = append(out.Payments, payment)

	var changes ChangeLog
	balance := out.Balance.Sub(req.Amount)
	changes.Addf("Balance updated from %s to %s", formatAmount(out.Balance), formatAmount(balance))
	out.Balance = balance
	s.markPaidIfSettled(&out, &changes)
	out.Touch(now)

	return out, payment, changes, nil
}

func (s *Service) inFlightPayment(inv Invoice, paymentID uuid.UUID) (int, error) {
	idx := inv.FindPayment(paymentID)
	if idx < 0 {
		return -1, shared.NewValidationErrorf("PAYMENT_NOT_FOUND", "Payment %s does not belong to invoice", paymentID)
	}
	if p := inv.Payments[idx]; !p.Status.IsInFlight() {
		return -1, shared.NewValidationErrorf("INVALID_PAYMENT_STATE", "Payment %s is %s", shortID(p.ID), p.Status)
	}
	return idx, nil
}

// CompletePayment settles a pending or processing payment. The balance already
// reflects in-flight payments and does not move.
func (s *Service) CompletePayment(inv Invoice, paymentID uuid.UUID) (Invoice, ChangeLog, error) {
	idx, err := s.inFlightPayment(inv, paymentID)
	if err != nil {
		return inv, nil, err
	}

	now := s.clock.Now()
	out := inv.Clone()
	var changes ChangeLog
	p := &out.Payments[idx]
	changes.Addf("Payment %s status changed from %s to %s", shortID(p.ID), p.Status, PaymentStatusCompleted)
	p.Status = PaymentStatusCompleted
	p.Touch(now)
	out.Touch(now)
	return out, changes, nil
}

// VoidPayment voids a pending or processing payment and recomputes the balance
// from the total and the payments still counted, using the same includePending
// rule as UpdateBalance. Payments of paid or cancelled invoices are locked.
func (s *Service) VoidPayment(inv Invoice, paymentID uuid.UUID, reason string, includePending bool) (Invoice, ChangeLog, error) {
	if inv.Status.IsClosed() {
		return inv, nil, shared.NewInvalidStateError("Cannot void a payment of an invoice in %s status", inv.Status)
	}
	idx, err := s.inFlightPayment(inv, paymentID)
	if err != nil {
		return inv, nil, err
	}

	now := s.clock.Now()
	out := inv.Clone()
	var changes ChangeLog
	p := &out.Payments[idx]
	changes.Addf("Payment %s status changed from %s to %s", shortID(p.ID), p.Status, PaymentStatusVoided)
	p.Status = PaymentStatusVoided
	p.Touch(now)
	if reason != "" {
		p.Notes = appendNote(p.Notes, "Voided: "+reason)
	}

	balance := out.TotalAmount.Sub(settledAmount(out.Payments, includePending))
	if !balance.Equal(out.Balance) {
		changes.Addf("Balance updated from %s to %s", formatAmount(out.Balance), formatAmount(balance))
		out.Balance = balance
	}
	out.Touch(now)
	return out, changes, nil
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}

// setDetailStatuses moves every non-cancelled detail to status
func setDetailStatuses(inv *Invoice, status InvoiceStatus, now time.Time, changes *ChangeLog) {
	for i := range inv.Details {
		d := &inv.Details[i]
		if d.Status == InvoiceStatusCancelled || d.Status == status {
			continue
		}
		changes.Addf("Detail %s status changed from %s to %s", shortID(d.ID), d.Status, status)
		d.Status = status
		d.Touch(now)
	}
}

// SubmitInvoice moves a draft or pending invoice with at least one billable
// detail to Submitted, along with all of its non-cancelled details.
func (s *Service) SubmitInvoice(inv Invoice, submissionDate *time.Time, autoSubmit bool) (Invoice, ChangeLog, error) {
	if inv.Status != InvoiceStatusDraft && inv.Status != InvoiceStatusPending {
		return inv, nil, shared.NewStatusTransitionError(inv.Status.String(), InvoiceStatusSubmitted.String())
	}
	billable := lo.ContainsBy(inv.ActiveDetails(), func(d InvoiceDetail) bool {
		return d.TotalAmount.IsPositive()
	})
	if !billable {
		return inv, nil, shared.NewValidationError("NO_BILLABLE_DETAILS", "Invoice has no billable details to submit")
	}

	now := s.clock.Now()
	submittedAt := now
	if submissionDate != nil {
		submittedAt = *submissionDate
	}

	out := inv.Clone()
	var changes ChangeLog
	if autoSubmit {
		changes.Addf("Status changed from %s to %s (auto-submitted)", out.Status, InvoiceStatusSubmitted)
	} else {
		changes.Addf("Status changed from %s to %s", out.Status, InvoiceStatusSubmitted)
	}
	out.Status = InvoiceStatusSubmitted
	out.SubmittedAt = &submittedAt
	setDetailStatuses(&out, InvoiceStatusSubmitted, now, &changes)
	out.Touch(now)
	return out, changes, nil
}

// UpdatePendingSubmissions promotes every Submitted invoice last updated at or
// before cutoff to Approved, together with its Submitted details. Only the
// promoted invoices are returned, in input order.
func (s *Service) UpdatePendingSubmissions(invoices []Invoice, cutoff time.Time) ([]Invoice, ChangeLog) {
	now := s.clock.Now()
	var changes ChangeLog
	promoted := make([]Invoice, 0)

	for _, inv := range invoices {
		if inv.Status != InvoiceStatusSubmitted || inv.UpdatedAt.After(cutoff) {
			continue
		}
		out := inv.Clone()
		changes.Addf("Invoice %s status changed from %s to %s", shortID(out.ID), out.Status, InvoiceStatusApproved)
		out.Status = InvoiceStatusApproved
		for i := range out.Details {
			d := &out.Details[i]
			if d.Status != InvoiceStatusSubmitted {
				continue
			}
			changes.Addf("Detail %s status changed from %s to %s", shortID(d.ID), d.Status, InvoiceStatusApproved)
			d.Status = InvoiceStatusApproved
			d.Touch(now)
		}
		out.Touch(now)
		promoted = append(promoted, out)
	}
	return promoted, changes
}

// UpdateInvoiceStatus validates and applies a status change, optionally
// cascading it to every non-cancelled detail.
func (s *Service) UpdateInvoiceStatus(inv Invoice, status InvoiceStatus, updateDetails bool, notes string) (Invoice, ChangeLog, error) {
	if err := ValidateStatusTransition(inv.Status, status); err != nil {
		return inv, nil, err
	}

	now := s.clock.Now()
	out := inv.Clone()
	var changes ChangeLog
	changes.Addf("Status changed from %s to %s", out.Status, status)
	out.Status = status

	switch status {
	case InvoiceStatusSubmitted:
		out.SubmittedAt = &now
	case InvoiceStatusCancelled:
		out.CancelledAt = &now
	}
	if updateDetails {
		setDetailStatuses(&out, status, now, &changes)
	}
	if notes != "" {
		out.Notes = appendNote(out.Notes, notes)
		changes.Addf("Notes updated")
	}
	out.Touch(now)
	return out, changes, nil
}

// CancelInvoice cancels the invoice and its details. With cancelPayments,
// pending and processing payments are voided; settled ones are left alone.
func (s *Service) CancelInvoice(inv Invoice, reason string, cancelPayments bool) (Invoice, ChangeLog, error) {
	if err := ValidateStatusTransition(inv.Status, InvoiceStatusCancelled); err != nil {
		return inv, nil, err
	}

	now := s.clock.Now()
	out := inv.Clone()
	var changes ChangeLog
	if reason != "" {
		changes.Addf("Status changed from %s to %s: %s", out.Status, InvoiceStatusCancelled, reason)
	} else {
		changes.Addf("Status changed from %s to %s", out.Status, InvoiceStatusCancelled)
	}
	out.Status = InvoiceStatusCancelled
	out.CancelledAt = &now
	out.CancelReason = reason
	setDetailStatuses(&out, InvoiceStatusCancelled, now, &changes)

	if cancelPayments {
		for i := range out.Payments {
			p := &out.Payments[i]
			if !p.Status.IsInFlight() {
				continue
			}
			changes.Addf("Payment %s status changed from %s to %s", shortID(p.ID), p.Status, PaymentStatusVoided)
			p.Status = PaymentStatusVoided
			p.Touch(now)
		}
	}
	out.Touch(now)
	return out, changes, nil
}

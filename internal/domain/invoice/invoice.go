package invoice

import (
	"fmt"
	"time"

	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Invoice is the aggregate root of the billing lifecycle. Details and
// payments are owned by the invoice and are never shared between invoices.
type Invoice struct {
	shared.BaseAggregateRoot
	CustomerID    uuid.UUID
	InvoiceDate   time.Time
	DueDate       time.Time
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	TaxTotal      decimal.Decimal
	TotalAmount   decimal.Decimal
	Balance       decimal.Decimal
	Status        InvoiceStatus
	SubmittedAt   *time.Time
	CancelledAt   *time.Time
	CancelReason  string
	Notes         string
	Details       []InvoiceDetail
	Payments      []Payment
}

// InvoiceDetail is one billed line of an invoice
type InvoiceDetail struct {
	shared.BaseEntity
	InvoiceID       uuid.UUID
	ItemID          uuid.UUID
	ServiceDate     time.Time
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	TaxPercent      decimal.Decimal
	TotalAmount     decimal.Decimal
	Status          InvoiceStatus
}

// Payment is an amount tendered against an invoice. Amount is always positive.
type Payment struct {
	shared.BaseEntity
	InvoiceID       uuid.UUID
	Amount          decimal.Decimal
	PaymentDate     time.Time
	Method          PaymentMethod
	ReferenceNumber string
	Status          PaymentStatus
	Notes           string
}

// NewInvoice creates an empty draft invoice
func NewInvoice(customerID uuid.UUID, invoiceDate, dueDate, now time.Time) (Invoice, error) {
	if customerID == uuid.Nil {
		return Invoice{}, shared.NewValidationError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if invoiceDate.IsZero() {
		return Invoice{}, shared.NewValidationError("INVALID_INVOICE_DATE", "Invoice date is required")
	}
	if dueDate.Before(invoiceDate) {
		return Invoice{}, shared.NewValidationError("INVALID_DUE_DATE", "Due date cannot be before invoice date")
	}

	return Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(now),
		CustomerID:        customerID,
		InvoiceDate:       invoiceDate,
		DueDate:           dueDate,
		Subtotal:          decimal.Zero,
		DiscountTotal:     decimal.Zero,
		TaxTotal:          decimal.Zero,
		TotalAmount:       decimal.Zero,
		Balance:           decimal.Zero,
		Status:            InvoiceStatusDraft,
	}, nil
}

// Clone returns a deep copy that shares no slices or pointers with inv
func (inv Invoice) Clone() Invoice {
	out := inv
	out.SubmittedAt = cloneTime(inv.SubmittedAt)
	out.CancelledAt = cloneTime(inv.CancelledAt)
	if inv.Details != nil {
		out.Details = make([]InvoiceDetail, len(inv.Details))
		copy(out.Details, inv.Details)
	}
	if inv.Payments != nil {
		out.Payments = make([]Payment, len(inv.Payments))
		copy(out.Payments, inv.Payments)
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// ActiveDetails returns the details that take part in totals
func (inv Invoice) ActiveDetails() []InvoiceDetail {
	return lo.Filter(inv.Details, func(d InvoiceDetail, _ int) bool {
		return d.Status != InvoiceStatusCancelled
	})
}

// FindPayment returns the index of the payment with id, or -1
func (inv Invoice) FindPayment(id uuid.UUID) int {
	_, idx, ok := lo.FindIndexOf(inv.Payments, func(p Payment) bool { return p.ID == id })
	if !ok {
		return -1
	}
	return idx
}

// IsPaid returns true if the invoice has been settled
func (inv Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// IsCancelled returns true if the invoice has been cancelled
func (inv Invoice) IsCancelled() bool {
	return inv.Status == InvoiceStatusCancelled
}

// shortID is the detail/payment label used in change messages
func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(valueobject.MoneyScale)
}

// ChangeLog is the ordered, human-readable record of what an operation changed
type ChangeLog []string

// Addf appends a formatted entry
func (c *ChangeLog) Addf(format string, args ...any) {
	*c = append(*c, fmt.Sprintf(format, args...))
}

// Append appends every entry of other
func (c *ChangeLog) Append(other ChangeLog) {
	*c = append(*c, other...)
}

// IsEmpty returns true if nothing changed
func (c ChangeLog) IsEmpty() bool {
	return len(c) == 0
}

// Strings returns the entries as a plain slice
func (c ChangeLog) Strings() []string {
	return []string(c)
}

package invoice

import "github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared"

// InvoiceStatus is the lifecycle state of an invoice and of each of its details
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusSubmitted InvoiceStatus = "SUBMITTED"
	InvoiceStatusApproved  InvoiceStatus = "APPROVED"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED" // terminal
)

// AllInvoiceStatuses lists every status in lifecycle order
var AllInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusPending,
	InvoiceStatusSubmitted,
	InvoiceStatusApproved,
	InvoiceStatusPaid,
	InvoiceStatusCancelled,
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPending, InvoiceStatusSubmitted,
		InvoiceStatusApproved, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true if no transition leaves this status
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusCancelled
}

// IsClosed returns true for statuses that batch processing ignores
func (s InvoiceStatus) IsClosed() bool {
	return s == InvoiceStatusCancelled || s == InvoiceStatusPaid
}

// CanTransitionTo reports whether target is reachable from s in one step.
//
//	DRAFT     -> PENDING, SUBMITTED, CANCELLED
//	PENDING   -> SUBMITTED, CANCELLED
//	SUBMITTED -> APPROVED, CANCELLED
//	APPROVED  -> PAID, CANCELLED
//	PAID      -> CANCELLED
//	CANCELLED -> (none)
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusPending || target == InvoiceStatusSubmitted || target == InvoiceStatusCancelled
	case InvoiceStatusPending:
		return target == InvoiceStatusSubmitted || target == InvoiceStatusCancelled
	case InvoiceStatusSubmitted:
		return target == InvoiceStatusApproved || target == InvoiceStatusCancelled
	case InvoiceStatusApproved:
		return target == InvoiceStatusPaid || target == InvoiceStatusCancelled
	case InvoiceStatusPaid:
		return target == InvoiceStatusCancelled
	case InvoiceStatusCancelled:
		return false
	}
	return false
}

// ValidateStatusTransition returns a StatusTransitionError unless next is
// reachable from current.
func ValidateStatusTransition(current, next InvoiceStatus) error {
	if !current.CanTransitionTo(next) {
		return shared.NewStatusTransitionError(current.String(), next.String())
	}
	return nil
}

// ParseInvoiceStatus validates a status received from outside the domain
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	status := InvoiceStatus(s)
	if !status.IsValid() {
		return "", shared.NewValidationErrorf("INVALID_STATUS", "Unknown invoice status %q", s)
	}
	return status, nil
}

// PaymentStatus is the settlement state of a payment
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
	PaymentStatusVoided     PaymentStatus = "VOIDED"
)

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusCompleted,
		PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusVoided:
		return true
	}
	return false
}

// IsInFlight returns true while the payment may still settle
func (s PaymentStatus) IsInFlight() bool {
	return s == PaymentStatusPending || s == PaymentStatusProcessing
}

// PaymentMethod is how a payment was tendered
type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "CASH"
	PaymentMethodCheck      PaymentMethod = "CHECK"
	PaymentMethodCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentMethodACH        PaymentMethod = "ACH"
	PaymentMethodInsurance  PaymentMethod = "INSURANCE"
	PaymentMethodOther      PaymentMethod = "OTHER"
)

// IsValid checks if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodCreditCard,
		PaymentMethodACH, PaymentMethodInsurance, PaymentMethodOther:
		return true
	}
	return false
}

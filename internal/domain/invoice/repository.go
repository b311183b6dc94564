package invoice

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows invoice queries
type Filter struct {
	Status        *InvoiceStatus
	CustomerID    *uuid.UUID
	UpdatedBefore *time.Time
	Limit         int
}

// Repository loads and stores invoice aggregates with their details and payments
type Repository interface {
	// FindByID loads an invoice with details and payments. Returns shared.ErrNotFound if absent.
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindAll returns invoices matching filter, oldest first
	FindAll(ctx context.Context, filter Filter) ([]Invoice, error)

	// Create inserts a new invoice
	Create(ctx context.Context, inv *Invoice) error

	// Save persists an existing invoice with optimistic locking. inv.Version
	// must match the stored version; on success it is incremented.
	// Returns shared.ErrConcurrencyConflict on a stale version.
	Save(ctx context.Context, inv *Invoice) error
}

// AuditEntry is one persisted change-log line
type AuditEntry struct {
	ID        uuid.UUID
	InvoiceID uuid.UUID
	Operation string
	Message   string
	Sequence  int
	CreatedAt time.Time
}

// NewAuditEntries turns a change log into audit entries for invoiceID
func NewAuditEntries(invoiceID uuid.UUID, operation string, changes ChangeLog, now time.Time) []AuditEntry {
	entries := make([]AuditEntry, 0, len(changes))
	for i, msg := range changes {
		entries = append(entries, AuditEntry{
			ID:        uuid.New(),
			InvoiceID: invoiceID,
			Operation: operation,
			Message:   msg,
			Sequence:  i + 1,
			CreatedAt: now,
		})
	}
	return entries
}

// AuditRepository persists invoice change logs
type AuditRepository interface {
	Append(ctx context.Context, entries []AuditEntry) error
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]AuditEntry, error)
}

package persistence

import (
	"context"

	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/invoice"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditRepository stores invoice change logs in invoice_audit_entries
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

var _ invoice.AuditRepository = (*GormAuditRepository)(nil)

// Append inserts entries. An empty slice is a no-op.
func (r *GormAuditRepository) Append(ctx context.Context, entries []invoice.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]models.AuditEntryModel, len(entries))
	for i, e := range entries {
		rows[i] = models.AuditEntryModelFromDomain(e)
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// FindByInvoice returns the change log of an invoice in the order it was written
func (r *GormAuditRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]invoice.AuditEntry, error) {
	var rows []models.AuditEntryModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC, sequence ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]invoice.AuditEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

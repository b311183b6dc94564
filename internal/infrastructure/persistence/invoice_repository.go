package persistence

import (
	"context"
	"errors"

	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/invoice"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements invoice.Repository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

var _ invoice.Repository = (*GormInvoiceRepository)(nil)

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Details", func(tx *gorm.DB) *gorm.DB { return tx.Order("line_no ASC") }).
		Preload("Payments", func(tx *gorm.DB) *gorm.DB { return tx.Order("line_no ASC") })
}

// FindByID loads an invoice with its details and payments
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	var model models.InvoiceModel
	if err := preloadLines(r.db.WithContext(ctx)).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns invoices matching filter, oldest first
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter invoice.Filter) ([]invoice.Invoice, error) {
	var rows []models.InvoiceModel
	query := r.applyFilter(preloadLines(r.db.WithContext(ctx)).Model(&models.InvoiceModel{}), filter)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	invoices := make([]invoice.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices, nil
}

func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter invoice.Filter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.UpdatedBefore != nil {
		query = query.Where("updated_at <= ?", *filter.UpdatedBefore)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	return query.Order("created_at ASC, id ASC")
}

// Create inserts a new invoice together with its details and payments
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Details", "Payments").Create(model).Error; err != nil {
			return err
		}
		return insertLines(tx, model)
	})
}

// Save persists an existing invoice if its version still matches the stored
// one. Details and payments are replaced wholesale. On success inv.Version
// is incremented.
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *invoice.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.InvoiceModel{}).
			Where("id = ? AND version = ?", inv.ID, inv.Version).
			Updates(map[string]any{
				"customer_id":    model.CustomerID,
				"invoice_date":   model.InvoiceDate,
				"due_date":       model.DueDate,
				"subtotal":       model.Subtotal,
				"discount_total": model.DiscountTotal,
				"tax_total":      model.TaxTotal,
				"total_amount":   model.TotalAmount,
				"balance":        model.Balance,
				"status":         model.Status,
				"submitted_at":   model.SubmittedAt,
				"cancelled_at":   model.CancelledAt,
				"cancel_reason":  model.CancelReason,
				"notes":          model.Notes,
				"updated_at":     model.UpdatedAt,
				"version":        inv.Version + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.InvoiceModel{}).Where("id = ?", inv.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.ErrConcurrencyConflict
		}

		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceDetailModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.PaymentModel{}).Error; err != nil {
			return err
		}
		return insertLines(tx, model)
	})
	if err != nil {
		return err
	}

	inv.Version++
	return nil
}

func insertLines(tx *gorm.DB, model *models.InvoiceModel) error {
	if len(model.Details) > 0 {
		if err := tx.Create(&model.Details).Error; err != nil {
			return err
		}
	}
	if len(model.Payments) > 0 {
		if err := tx.Create(&model.Payments).Error; err != nil {
			return err
		}
	}
	return nil
}

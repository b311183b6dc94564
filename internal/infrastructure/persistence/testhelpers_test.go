package persistence

import (
	"testing"
	"time"

	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/invoice"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

// setupTestDB opens an in-memory SQLite database with the billing schema.
// A single connection keeps every query on the same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.InvoiceModel{},
		&models.InvoiceDetailModel{},
		&models.PaymentModel{},
		&models.AuditEntryModel{},
	))
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newPricedInvoice builds a pending invoice with two details and one completed payment
func newPricedInvoice(t *testing.T, createdAt time.Time) *invoice.Invoice {
	t.Helper()
	inv, err := invoice.NewInvoice(uuid.New(), createdAt, createdAt.AddDate(0, 0, 30), createdAt)
	require.NoError(t, err)
	inv.Status = invoice.InvoiceStatusPending

	for i, qty := range []string{"2", "3"} {
		inv.Details = append(inv.Details, invoice.InvoiceDetail{
			BaseEntity:      shared.NewBaseEntity(createdAt),
			InvoiceID:       inv.ID,
			ItemID:          uuid.New(),
			ServiceDate:     createdAt.AddDate(0, i, 0),
			Quantity:        dec(qty),
			UnitPrice:       dec("50"),
			DiscountPercent: decimal.Zero,
			TaxPercent:      decimal.Zero,
			TotalAmount:     dec(qty).Mul(dec("50")),
			Status:          invoice.InvoiceStatusPending,
		})
	}
	inv.Subtotal = dec("250")
	inv.TotalAmount = dec("250")
	inv.Payments = append(inv.Payments, invoice.Payment{
		BaseEntity:  shared.NewBaseEntity(createdAt),
		InvoiceID:   inv.ID,
		Amount:      dec("100"),
		PaymentDate: createdAt,
		Method:      invoice.PaymentMethodCheck,
		Status:      invoice.PaymentStatusCompleted,
	})
	inv.Balance = dec("150")
	return &inv
}

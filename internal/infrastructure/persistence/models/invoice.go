package models

import (
	"time"

	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/invoice"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	AggregateModel
	CustomerID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	InvoiceDate   time.Time             `gorm:"not null"`
	DueDate       time.Time             `gorm:"not null"`
	Subtotal      decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	DiscountTotal decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	TaxTotal      decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	TotalAmount   decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	Balance       decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	Status        invoice.InvoiceStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	SubmittedAt   *time.Time
	CancelledAt   *time.Time
	CancelReason  string               `gorm:"type:varchar(500)"`
	Notes         string               `gorm:"type:text"`
	Details       []InvoiceDetailModel `gorm:"foreignKey:InvoiceID;references:ID"`
	Payments      []PaymentModel       `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
// Details and payments come back in line order.
func (m *InvoiceModel) ToDomain() *invoice.Invoice {
	inv := &invoice.Invoice{
		BaseAggregateRoot: m.AggregateRoot(),
		CustomerID:        m.CustomerID,
		InvoiceDate:       m.InvoiceDate,
		DueDate:           m.DueDate,
		Subtotal:          m.Subtotal,
		DiscountTotal:     m.DiscountTotal,
		TaxTotal:          m.TaxTotal,
		TotalAmount:       m.TotalAmount,
		Balance:           m.Balance,
		Status:            m.Status,
		SubmittedAt:       m.SubmittedAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
		Notes:             m.Notes,
		Details:           make([]invoice.InvoiceDetail, len(m.Details)),
		Payments:          make([]invoice.Payment, len(m.Payments)),
	}
	for i := range m.Details {
		inv.Details[i] = m.Details[i].ToDomain()
	}
	for i := range m.Payments {
		inv.Payments[i] = m.Payments[i].ToDomain()
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice
func (m *InvoiceModel) FromDomain(inv *invoice.Invoice) {
	m.AggregateModel = aggregateModelOf(inv.BaseAggregateRoot)
	m.CustomerID = inv.CustomerID
	m.InvoiceDate = inv.InvoiceDate
	m.DueDate = inv.DueDate
	m.Subtotal = inv.Subtotal
	m.DiscountTotal = inv.DiscountTotal
	m.TaxTotal = inv.TaxTotal
	m.TotalAmount = inv.TotalAmount
	m.Balance = inv.Balance
	m.Status = inv.Status
	m.SubmittedAt = inv.SubmittedAt
	m.CancelledAt = inv.CancelledAt
	m.CancelReason = inv.CancelReason
	m.Notes = inv.Notes
	m.Details = make([]InvoiceDetailModel, len(inv.Details))
	for i := range inv.Details {
		m.Details[i].FromDomain(&inv.Details[i], i+1)
		m.Details[i].InvoiceID = inv.ID
	}
	m.Payments = make([]PaymentModel, len(inv.Payments))
	for i := range inv.Payments {
		m.Payments[i].FromDomain(&inv.Payments[i], i+1)
		m.Payments[i].InvoiceID = inv.ID
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *invoice.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceDetailModel is the persistence model for InvoiceDetail.
// LineNo preserves the detail order within its invoice.
type InvoiceDetailModel struct {
	BaseModel
	InvoiceID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	LineNo          int                   `gorm:"not null"`
	ItemID          uuid.UUID             `gorm:"type:uuid;not null"`
	ServiceDate     time.Time             `gorm:"not null"`
	Quantity        decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	UnitPrice       decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	DiscountPercent decimal.Decimal       `gorm:"type:decimal(7,4);not null;default:0"`
	TaxPercent      decimal.Decimal       `gorm:"type:decimal(7,4);not null;default:0"`
	TotalAmount     decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	Status          invoice.InvoiceStatus `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (InvoiceDetailModel) TableName() string {
	return "invoice_details"
}

// ToDomain converts the persistence model to a domain InvoiceDetail
func (m *InvoiceDetailModel) ToDomain() invoice.InvoiceDetail {
	return invoice.InvoiceDetail{
		BaseEntity:      m.Entity(),
		InvoiceID:       m.InvoiceID,
		ItemID:          m.ItemID,
		ServiceDate:     m.ServiceDate,
		Quantity:        m.Quantity,
		UnitPrice:       m.UnitPrice,
		DiscountPercent: m.DiscountPercent,
		TaxPercent:      m.TaxPercent,
		TotalAmount:     m.TotalAmount,
		Status:          m.Status,
	}
}

// FromDomain populates the persistence model from a domain InvoiceDetail
func (m *InvoiceDetailModel) FromDomain(d *invoice.InvoiceDetail, lineNo int) {
	m.BaseModel = baseModelOf(d.BaseEntity)
	m.InvoiceID = d.InvoiceID
	m.LineNo = lineNo
	m.ItemID = d.ItemID
	m.ServiceDate = d.ServiceDate
	m.Quantity = d.Quantity
	m.UnitPrice = d.UnitPrice
	m.DiscountPercent = d.DiscountPercent
	m.TaxPercent = d.TaxPercent
	m.TotalAmount = d.TotalAmount
	m.Status = d.Status
}

// PaymentModel is the persistence model for Payment
type PaymentModel struct {
	BaseModel
	InvoiceID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	LineNo          int                   `gorm:"not null"`
	Amount          decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	PaymentDate     time.Time             `gorm:"not null"`
	Method          invoice.PaymentMethod `gorm:"type:varchar(20);not null"`
	ReferenceNumber string                `gorm:"type:varchar(100)"`
	Status          invoice.PaymentStatus `gorm:"type:varchar(20);not null;index"`
	Notes           string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() invoice.Payment {
	return invoice.Payment{
		BaseEntity:      m.Entity(),
		InvoiceID:       m.InvoiceID,
		Amount:          m.Amount,
		PaymentDate:     m.PaymentDate,
		Method:          m.Method,
		ReferenceNumber: m.ReferenceNumber,
		Status:          m.Status,
		Notes:           m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Payment
func (m *PaymentModel) FromDomain(p *invoice.Payment, lineNo int) {
	m.BaseModel = baseModelOf(p.BaseEntity)
	m.InvoiceID = p.InvoiceID
	m.LineNo = lineNo
	m.Amount = p.Amount
	m.PaymentDate = p.PaymentDate
	m.Method = p.Method
	m.ReferenceNumber = p.ReferenceNumber
	m.Status = p.Status
	m.Notes = p.Notes
}

// AuditEntryModel is the persistence model for one invoice change-log line
type AuditEntryModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index"`
	Operation string    `gorm:"type:varchar(50);not null"`
	Message   string    `gorm:"type:text;not null"`
	Sequence  int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditEntryModel) TableName() string {
	return "invoice_audit_entries"
}

// ToDomain converts the persistence model to a domain AuditEntry
func (m *AuditEntryModel) ToDomain() invoice.AuditEntry {
	return invoice.AuditEntry{
		ID:        m.ID,
		InvoiceID: m.InvoiceID,
		Operation: m.Operation,
		Message:   m.Message,
		Sequence:  m.Sequence,
		CreatedAt: m.CreatedAt,
	}
}

// AuditEntryModelFromDomain creates a new persistence model from a domain AuditEntry
func AuditEntryModelFromDomain(e invoice.AuditEntry) AuditEntryModel {
	return AuditEntryModel{
		ID:        e.ID,
		InvoiceID: e.InvoiceID,
		Operation: e.Operation,
		Message:   e.Message,
		Sequence:  e.Sequence,
		CreatedAt: e.CreatedAt,
	}
}

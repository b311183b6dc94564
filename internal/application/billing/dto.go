package billing

import (
	"time"

	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/invoice"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ==================== Invoice Requests ====================

// CreateInvoiceRequest represents a request to open a draft invoice
type CreateInvoiceRequest struct {
	CustomerID  uuid.UUID `json:"customer_id" binding:"required"`
	InvoiceDate time.Time `json:"invoice_date" binding:"required"`
	DueDate     time.Time `json:"due_date" binding:"required"`
	Notes       string    `json:"notes" binding:"max=2000"`
}

// ListInvoicesRequest narrows an invoice listing
type ListInvoicesRequest struct {
	Status     string `form:"status" binding:"omitempty,invoice_status"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// AddSplitDetailsRequest splits one item quantity across several service dates
type AddSplitDetailsRequest struct {
	ItemID          uuid.UUID         `json:"item_id" binding:"required"`
	TotalQuantity   decimal.Decimal   `json:"total_quantity"`
	UnitPrice       decimal.Decimal   `json:"unit_price"`
	SplitDates      []time.Time       `json:"split_dates" binding:"required,min=1"`
	SplitQuantities []decimal.Decimal `json:"split_quantities" binding:"required,min=1"`
	TaxPercent      decimal.Decimal   `json:"tax_percent"`
	DiscountPercent decimal.Decimal   `json:"discount_percent"`
}

// UpdateBalanceRequest recomputes the balance from the invoice's payments
type UpdateBalanceRequest struct {
	IncludePending *bool `json:"include_pending"` // nil uses the configured default
}

// AddPaymentRequest records a payment against an invoice
type AddPaymentRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"payment_method" binding:"required,payment_method"`
	ReferenceNumber string          `json:"reference_number" binding:"max=100"`
	PaymentDate     *time.Time      `json:"payment_date"`
	Notes           string          `json:"notes" binding:"max=500"`
}

// VoidPaymentRequest voids an in-flight payment
type VoidPaymentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// SubmitInvoiceRequest submits an invoice to the payer
type SubmitInvoiceRequest struct {
	SubmissionDate *time.Time `json:"submission_date"`
	AutoSubmit     bool       `json:"auto_submit"`
}

// UpdateStatusRequest moves an invoice along the status workflow
type UpdateStatusRequest struct {
	Status        string `json:"status" binding:"required,invoice_status"`
	UpdateDetails bool   `json:"update_details"`
	Notes         string `json:"notes" binding:"max=2000"`
}

// CancelInvoiceRequest cancels an invoice
type CancelInvoiceRequest struct {
	Reason         string `json:"reason" binding:"max=500"`
	CancelPayments bool   `json:"cancel_payments"`
}

// PromoteSubmissionsRequest promotes stale Submitted invoices to Approved
type PromoteSubmissionsRequest struct {
	Cutoff *time.Time `json:"cutoff"` // nil uses now minus the configured approval delay
}

// ProcessableInvoicesRequest selects invoices for batch processing
type ProcessableInvoicesRequest struct {
	InvoiceIDs    []uuid.UUID `json:"invoice_ids" binding:"omitempty,max=500"`
	CheckDetails  *bool       `json:"check_details"`
	CheckPayments *bool       `json:"check_payments"`
	CheckDates    *bool       `json:"check_dates"`
}

// SkipOptions resolves the request flags, defaulting every check to enabled
func (r ProcessableInvoicesRequest) SkipOptions() invoice.SkipOptions {
	opts := invoice.DefaultSkipOptions()
	if r.CheckDetails != nil {
		opts.CheckDetails = *r.CheckDetails
	}
	if r.CheckPayments != nil {
		opts.CheckPayments = *r.CheckPayments
	}
	if r.CheckDates != nil {
		opts.CheckDates = *r.CheckDates
	}
	return opts
}

// ==================== Invoice Responses ====================

// InvoiceResponse is the API view of an invoice aggregate
type InvoiceResponse struct {
	ID            uuid.UUID               `json:"id"`
	CustomerID    uuid.UUID               `json:"customer_id"`
	InvoiceDate   time.Time               `json:"invoice_date"`
	DueDate       time.Time               `json:"due_date"`
	Subtotal      decimal.Decimal         `json:"subtotal"`
	DiscountTotal decimal.Decimal         `json:"discount_total"`
	TaxTotal      decimal.Decimal         `json:"tax_total"`
	TotalAmount   decimal.Decimal         `json:"total_amount"`
	Balance       decimal.Decimal         `json:"balance"`
	Status        string                  `json:"status"`
	SubmittedAt   *time.Time              `json:"submitted_at,omitempty"`
	CancelledAt   *time.Time              `json:"cancelled_at,omitempty"`
	CancelReason  string                  `json:"cancel_reason,omitempty"`
	Notes         string                  `json:"notes,omitempty"`
	Details       []InvoiceDetailResponse `json:"details"`
	Payments      []PaymentResponse       `json:"payments"`
	Version       int                     `json:"version"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// InvoiceDetailResponse is the API view of an invoice line
type InvoiceDetailResponse struct {
	ID              uuid.UUID       `json:"id"`
	ItemID          uuid.UUID       `json:"item_id"`
	ServiceDate     time.Time       `json:"service_date"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"status"`
}

// PaymentResponse is the API view of a payment
type PaymentResponse struct {
	ID              uuid.UUID       `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentDate     time.Time       `json:"payment_date"`
	Method          string          `json:"payment_method"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Status          string          `json:"status"`
	Notes           string          `json:"notes,omitempty"`
}

// InvoiceOperationResponse pairs the updated invoice with the change log of the operation
type InvoiceOperationResponse struct {
	Invoice InvoiceResponse `json:"invoice"`
	Changes []string        `json:"changes"`
}

// PaymentOperationResponse is returned when a payment is added
type PaymentOperationResponse struct {
	Invoice InvoiceResponse `json:"invoice"`
	Payment PaymentResponse `json:"payment"`
	Changes []string        `json:"changes"`
}

// AuditEntryResponse is one persisted change-log line
type AuditEntryResponse struct {
	Operation string    `json:"operation"`
	Message   string    `json:"message"`
	Sequence  int       `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
}

// BatchFailure reports an invoice a batch job could not process
type BatchFailure struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
}

// PromoteSubmissionsResponse summarizes a promotion run
type PromoteSubmissionsResponse struct {
	Cutoff   time.Time         `json:"cutoff"`
	Promoted []InvoiceResponse `json:"promoted"`
	Changes  []string          `json:"changes"`
	Failed   []BatchFailure    `json:"failed"`
}

// SkippedInvoiceResponse is an invoice left out of batch processing
type SkippedInvoiceResponse struct {
	InvoiceID   uuid.UUID `json:"invoice_id"`
	Reason      string    `json:"reason"`
	Description string    `json:"description"`
}

// ProcessableInvoicesResponse partitions the candidate invoices
type ProcessableInvoicesResponse struct {
	Processable []InvoiceResponse        `json:"processable"`
	Skipped     []SkippedInvoiceResponse `json:"skipped"`
	Missing     []uuid.UUID              `json:"missing"`
}

// ToInvoiceResponse converts the domain aggregate to its API view
func ToInvoiceResponse(inv invoice.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID,
		CustomerID:    inv.CustomerID,
		InvoiceDate:   inv.InvoiceDate,
		DueDate:       inv.DueDate,
		Subtotal:      inv.Subtotal,
		DiscountTotal: inv.DiscountTotal,
		TaxTotal:      inv.TaxTotal,
		TotalAmount:   inv.TotalAmount,
		Balance:       inv.Balance,
		Status:        string(inv.Status),
		SubmittedAt:   inv.SubmittedAt,
		CancelledAt:   inv.CancelledAt,
		CancelReason:  inv.CancelReason,
		Notes:         inv.Notes,
		Details:       lo.Map(inv.Details, func(d invoice.InvoiceDetail, _ int) InvoiceDetailResponse { return ToInvoiceDetailResponse(d) }),
		Payments:      lo.Map(inv.Payments, func(p invoice.Payment, _ int) PaymentResponse { return ToPaymentResponse(p) }),
		Version:       inv.Version,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

// ToInvoiceResponses converts a list of invoices
func ToInvoiceResponses(invoices []invoice.Invoice) []InvoiceResponse {
	return lo.Map(invoices, func(inv invoice.Invoice, _ int) InvoiceResponse { return ToInvoiceResponse(inv) })
}

// ToInvoiceDetailResponse converts a detail line
func ToInvoiceDetailResponse(d invoice.InvoiceDetail) InvoiceDetailResponse {
	return InvoiceDetailResponse{
		ID:              d.ID,
		ItemID:          d.ItemID,
		ServiceDate:     d.ServiceDate,
		Quantity:        d.Quantity,
		UnitPrice:       d.UnitPrice,
		DiscountPercent: d.DiscountPercent,
		TaxPercent:      d.TaxPercent,
		TotalAmount:     d.TotalAmount,
		Status:          string(d.Status),
	}
}

// ToPaymentResponse converts a payment
func ToPaymentResponse(p invoice.Payment) PaymentResponse {
	return PaymentResponse{
		ID:              p.ID,
		Amount:          p.Amount,
		PaymentDate:     p.PaymentDate,
		Method:          string(p.Method),
		ReferenceNumber: p.ReferenceNumber,
		Status:          string(p.Status),
		Notes:           p.Notes,
	}
}

// ToAuditEntryResponses converts persisted audit entries
func ToAuditEntryResponses(entries []invoice.AuditEntry) []AuditEntryResponse {
	return lo.Map(entries, func(e invoice.AuditEntry, _ int) AuditEntryResponse {
		return AuditEntryResponse{
			Operation: e.Operation,
			Message:   e.Message,
			Sequence:  e.Sequence,
			CreatedAt: e.CreatedAt,
		}
	})
}

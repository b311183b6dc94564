package handler

import (
	billingapp "github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/application/billing"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler exposes the invoice lifecycle over HTTP
type InvoiceHandler struct {
	BaseHandler
	invoiceService *billingapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *billingapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// RegisterRoutes registers the invoice routes under /invoices
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	invoices.POST("", h.Create)
	invoices.GET("", h.List)

	batch := invoices.Group("/batch")
	batch.POST("/promote-submissions", h.PromoteSubmissions)
	batch.POST("/processable", h.FindProcessable)

	invoices.GET("/:id", h.GetByID)
	invoices.GET("/:id/audit", h.AuditTrail)
	invoices.POST("/:id/split-details", h.AddSplitDetails)
	invoices.POST("/:id/recalculate", h.Recalculate)
	invoices.POST("/:id/balance", h.UpdateBalance)
	invoices.POST("/:id/payments", h.AddPayment)
	invoices.POST("/:id/payments/:payment_id/complete", h.CompletePayment)
	invoices.POST("/:id/payments/:payment_id/void", h.VoidPayment)
	invoices.POST("/:id/submit", h.Submit)
	invoices.POST("/:id/status", h.UpdateStatus)
	invoices.POST("/:id/cancel", h.Cancel)
}

// Create creates an empty pending invoice
// POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req billingapp.CreateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	inv, err := h.invoiceService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inv)
}

// List lists invoices filtered by status and customer
// GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	var req billingapp.ListInvoicesRequest
	if !h.bindQuery(c, &req) {
		return
	}

	invoices, err := h.invoiceService.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoices)
}

// GetByID returns a single invoice
// GET /invoices/:id
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	inv, err := h.invoiceService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// AuditTrail returns the persisted change log of an invoice
// GET /invoices/:id/audit
func (h *InvoiceHandler) AuditTrail(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.invoiceService.AuditTrail(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// AddSplitDetails splits a quantity across service dates
// POST /invoices/:id/split-details
func (h *InvoiceHandler) AddSplitDetails(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req billingapp.AddSplitDetailsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.invoiceService.AddSplitDetails(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Recalculate recomputes line totals and invoice totals
// POST /invoices/:id/recalculate
func (h *InvoiceHandler) Recalculate(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.invoiceService.Recalculate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateBalance recomputes the balance from payments
// POST /invoices/:id/balance
func (h *InvoiceHandler) UpdateBalance(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req billingapp.UpdateBalanceRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	resp, err := h.invoiceService.UpdateBalance(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddPayment records a pending payment
// POST /invoices/:id/payments
func (h *InvoiceHandler) AddPayment(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req billingapp.AddPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.invoiceService.AddPayment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// CompletePayment marks a payment completed
// POST /invoices/:id/payments/:payment_id/complete
func (h *InvoiceHandler) CompletePayment(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	paymentID, ok := h.parseUUIDParam(c, "payment_id")
	if !ok {
		return
	}

	resp, err := h.invoiceService.CompletePayment(c.Request.Context(), id, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// VoidPayment voids a payment
// POST /invoices/:id/payments/:payment_id/void
func (h *InvoiceHandler) VoidPayment(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	paymentID, ok := h.parseUUIDParam(c, "payment_id")
	if !ok {
		return
	}
	var req billingapp.VoidPaymentRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	resp, err := h.invoiceService.VoidPayment(c.Request.Context(), id, paymentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Submit submits the invoice and its pending lines
// POST /invoices/:id/submit
func (h *InvoiceHandler) Submit(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req billingapp.SubmitInvoiceRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	resp, err := h.invoiceService.Submit(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateStatus moves the invoice along the workflow
// POST /invoices/:id/status
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req billingapp.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.invoiceService.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel cancels the invoice
// POST /invoices/:id/cancel
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req billingapp.CancelInvoiceRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	resp, err := h.invoiceService.Cancel(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// PromoteSubmissions approves submissions older than the approval delay
// POST /invoices/batch/promote-submissions
func (h *InvoiceHandler) PromoteSubmissions(c *gin.Context) {
	var req billingapp.PromoteSubmissionsRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	resp, err := h.invoiceService.PromotePendingSubmissions(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// FindProcessable partitions invoices into processable and skipped
// POST /invoices/batch/processable
func (h *InvoiceHandler) FindProcessable(c *gin.Context) {
	var req billingapp.ProcessableInvoicesRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	resp, err := h.invoiceService.FindProcessable(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

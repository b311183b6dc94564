package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	billingapp "github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/application/billing"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/invoice"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/interfaces/http/dto"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
}

func newTestEngine(registrars ...interface{ RegisterRoutes(*gin.RouterGroup) }) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1")
	for _, r := range registrars {
		r.RegisterRoutes(api)
	}
	return engine
}

func newInvoiceTestEngine(repo *MockInvoiceRepository, audit *MockAuditRepository) *gin.Engine {
	engine := invoice.NewService(shared.FixedClock(testNow))
	svc := billingapp.NewInvoiceService(repo, audit, engine, billingapp.DefaultPolicy(), zap.NewNop())
	return newTestEngine(NewInvoiceHandler(svc))
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var resp testResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return w, resp
}

func pendingInvoice(t *testing.T) invoice.Invoice {
	t.Helper()
	created := testNow.AddDate(0, 0, -5)
	inv, err := invoice.NewInvoice(uuid.New(), created, testNow.AddDate(0, 0, 25), created)
	require.NoError(t, err)
	inv.Status = invoice.InvoiceStatusPending
	inv.Details = []invoice.InvoiceDetail{{
		BaseEntity:  shared.NewBaseEntity(created),
		InvoiceID:   inv.ID,
		ItemID:      uuid.New(),
		ServiceDate: created,
		Quantity:    decimal.NewFromInt(2),
		UnitPrice:   decimal.NewFromInt(50),
		TotalAmount: decimal.NewFromInt(100),
		Status:      invoice.InvoiceStatusPending,
	}}
	inv.Subtotal = decimal.NewFromInt(100)
	inv.TotalAmount = decimal.NewFromInt(100)
	inv.Balance = decimal.NewFromInt(100)
	return inv
}

func TestInvoiceHandler_Create(t *testing.T) {
	t.Run("valid request creates invoice", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		audit := new(MockAuditRepository)
		customerID := uuid.New()
		repo.On("Create", mock.Anything, mock.MatchedBy(func(inv *invoice.Invoice) bool {
			return inv.CustomerID == customerID && inv.Notes == "oxygen concentrator"
		})).Return(nil)
		audit.On("Append", mock.Anything, mock.Anything).Return(nil)

		w, resp := doJSON(t, newInvoiceTestEngine(repo, audit), http.MethodPost, "/api/v1/invoices", gin.H{
			"customer_id":  customerID,
			"invoice_date": testNow,
			"due_date":     testNow.AddDate(0, 1, 0),
			"notes":        "  oxygen concentrator ",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, resp.Success)
		var created billingapp.InvoiceResponse
		require.NoError(t, json.Unmarshal(resp.Data, &created))
		assert.Equal(t, customerID, created.CustomerID)
		repo.AssertExpectations(t)
	})

	t.Run("missing fields are reported per field", func(t *testing.T) {
		w, resp := doJSON(t, newInvoiceTestEngine(new(MockInvoiceRepository), new(MockAuditRepository)),
			http.MethodPost, "/api/v1/invoices", gin.H{"notes": "x"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		fields := make([]string, 0, len(resp.Error.Details))
		for _, d := range resp.Error.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"customer_id", "invoice_date", "due_date"}, fields)
		assert.NotEmpty(t, resp.Error.RequestID)
	})

	t.Run("malformed json", func(t *testing.T) {
		w, resp := doJSON(t, newInvoiceTestEngine(new(MockInvoiceRepository), new(MockAuditRepository)),
			http.MethodPost, "/api/v1/invoices", `{"customer_id":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
	})

	t.Run("due date before invoice date is a domain rejection", func(t *testing.T) {
		w, resp := doJSON(t, newInvoiceTestEngine(new(MockInvoiceRepository), new(MockAuditRepository)),
			http.MethodPost, "/api/v1/invoices", gin.H{
				"customer_id":  uuid.New(),
				"invoice_date": testNow,
				"due_date":     testNow.AddDate(0, 0, -1),
			})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "INVALID_DUE_DATE", resp.Error.Code)
	})
}

func TestInvoiceHandler_GetByID(t *testing.T) {
	tests := []struct {
		name       string
		path       func(id uuid.UUID) string
		repoResult error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "found",
			path:       func(id uuid.UUID) string { return "/api/v1/invoices/" + id.String() },
			wantStatus: http.StatusOK,
		},
		{
			name:       "malformed id",
			path:       func(uuid.UUID) string { return "/api/v1/invoices/not-a-uuid" },
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeBadRequest,
		},
		{
			name:       "not found",
			path:       func(id uuid.UUID) string { return "/api/v1/invoices/" + id.String() },
			repoResult: shared.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   dto.ErrCodeNotFound,
		},
		{
			name:       "infrastructure failure hides the cause",
			path:       func(id uuid.UUID) string { return "/api/v1/invoices/" + id.String() },
			repoResult: errors.New("dial tcp: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockInvoiceRepository)
			inv := pendingInvoice(t)
			if tt.repoResult != nil {
				repo.On("FindByID", mock.Anything, inv.ID).Return(nil, tt.repoResult)
			} else {
				repo.On("FindByID", mock.Anything, inv.ID).Return(&inv, nil)
			}

			w, resp := doJSON(t, newInvoiceTestEngine(repo, new(MockAuditRepository)), http.MethodGet, tt.path(inv.ID), nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode == "" {
				assert.True(t, resp.Success)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotContains(t, resp.Error.Message, "connection refused")
		})
	}
}

func TestInvoiceHandler_List(t *testing.T) {
	t.Run("query filters reach the repository", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		customerID := uuid.New()
		repo.On("FindAll", mock.Anything, mock.MatchedBy(func(f invoice.Filter) bool {
			return f.Status != nil && *f.Status == invoice.InvoiceStatusSubmitted &&
				f.CustomerID != nil && *f.CustomerID == customerID && f.Limit == 10
		})).Return([]invoice.Invoice{}, nil)

		w, resp := doJSON(t, newInvoiceTestEngine(repo, new(MockAuditRepository)), http.MethodGet,
			"/api/v1/invoices?status=SUBMITTED&customer_id="+customerID.String()+"&limit=10", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)
		repo.AssertExpectations(t)
	})

	for _, query := range []string{"?status=OPEN", "?limit=1000", "?customer_id=abc"} {
		t.Run("rejects "+query, func(t *testing.T) {
			w, resp := doJSON(t, newInvoiceTestEngine(new(MockInvoiceRepository), new(MockAuditRepository)),
				http.MethodGet, "/api/v1/invoices"+query, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		})
	}
}

func TestInvoiceHandler_AddPayment(t *testing.T) {
	t.Run("payment is recorded", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		audit := new(MockAuditRepository)
		inv := pendingInvoice(t)
		repo.On("FindByID", mock.Anything, inv.ID).Return(&inv, nil)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		audit.On("Append", mock.Anything, mock.Anything).Return(nil)

		w, resp := doJSON(t, newInvoiceTestEngine(repo, audit), http.MethodPost,
			"/api/v1/invoices/"+inv.ID.String()+"/payments",
			gin.H{"amount": "40.25", "payment_method": "CHECK", "reference_number": "CHK-1001"})

		assert.Equal(t, http.StatusCreated, w.Code)
		var body billingapp.PaymentOperationResponse
		require.NoError(t, json.Unmarshal(resp.Data, &body))
		assert.True(t, body.Payment.Amount.Equal(decimal.RequireFromString("40.25")))
		assert.Equal(t, "CHK-1001", body.Payment.ReferenceNumber)
		assert.NotEmpty(t, body.Changes)
	})

	t.Run("amount above balance is rejected with the domain code", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		inv := pendingInvoice(t)
		repo.On("FindByID", mock.Anything, inv.ID).Return(&inv, nil)

		w, resp := doJSON(t, newInvoiceTestEngine(repo, new(MockAuditRepository)), http.MethodPost,
			"/api/v1/invoices/"+inv.ID.String()+"/payments",
			gin.H{"amount": "250", "payment_method": "CASH"})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "EXCEEDS_BALANCE", resp.Error.Code)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("unknown method fails binding", func(t *testing.T) {
		w, resp := doJSON(t, newInvoiceTestEngine(new(MockInvoiceRepository), new(MockAuditRepository)), http.MethodPost,
			"/api/v1/invoices/"+uuid.NewString()+"/payments",
			gin.H{"amount": "10", "payment_method": "BITCOIN"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "payment_method", resp.Error.Details[0].Field)
	})
}

func TestInvoiceHandler_StatusErrors(t *testing.T) {
	t.Run("transition outside the workflow is a conflict", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		inv := pendingInvoice(t)
		repo.On("FindByID", mock.Anything, inv.ID).Return(&inv, nil)

		w, resp := doJSON(t, newInvoiceTestEngine(repo, new(MockAuditRepository)), http.MethodPost,
			"/api/v1/invoices/"+inv.ID.String()+"/status", gin.H{"status": "PAID"})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidStatusTransition, resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "PENDING")
	})

	t.Run("concurrent modification is a conflict", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		inv := pendingInvoice(t)
		repo.On("FindByID", mock.Anything, inv.ID).Return(&inv, nil)
		repo.On("Save", mock.Anything, mock.Anything).Return(shared.ErrConcurrencyConflict)

		w, resp := doJSON(t, newInvoiceTestEngine(repo, new(MockAuditRepository)), http.MethodPost,
			"/api/v1/invoices/"+inv.ID.String()+"/submit", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeConcurrencyConflict, resp.Error.Code)
	})

	t.Run("submit without body succeeds", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		audit := new(MockAuditRepository)
		inv := pendingInvoice(t)
		repo.On("FindByID", mock.Anything, inv.ID).Return(&inv, nil)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		audit.On("Append", mock.Anything, mock.Anything).Return(nil)

		w, resp := doJSON(t, newInvoiceTestEngine(repo, audit), http.MethodPost,
			"/api/v1/invoices/"+inv.ID.String()+"/submit", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var body billingapp.InvoiceOperationResponse
		require.NoError(t, json.Unmarshal(resp.Data, &body))
		assert.Equal(t, "SUBMITTED", body.Invoice.Status)
	})
}

func TestInvoiceHandler_PaymentRoutes(t *testing.T) {
	t.Run("malformed payment id", func(t *testing.T) {
		w, resp := doJSON(t, newInvoiceTestEngine(new(MockInvoiceRepository), new(MockAuditRepository)), http.MethodPost,
			"/api/v1/invoices/"+uuid.NewString()+"/payments/nope/complete", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "payment_id")
	})

	t.Run("unknown payment", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		inv := pendingInvoice(t)
		repo.On("FindByID", mock.Anything, inv.ID).Return(&inv, nil)

		w, resp := doJSON(t, newInvoiceTestEngine(repo, new(MockAuditRepository)), http.MethodPost,
			"/api/v1/invoices/"+inv.ID.String()+"/payments/"+uuid.NewString()+"/void", gin.H{"reason": "duplicate"})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "PAYMENT_NOT_FOUND", resp.Error.Code)
	})
}

func TestInvoiceHandler_Batch(t *testing.T) {
	t.Run("processable without body scans oldest invoices", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		inv := pendingInvoice(t)
		repo.On("FindAll", mock.Anything, invoice.Filter{Limit: billingapp.DefaultPolicy().BatchLimit}).
			Return([]invoice.Invoice{inv}, nil)

		w, resp := doJSON(t, newInvoiceTestEngine(repo, new(MockAuditRepository)), http.MethodPost,
			"/api/v1/invoices/batch/processable", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var body billingapp.ProcessableInvoicesResponse
		require.NoError(t, json.Unmarshal(resp.Data, &body))
		require.Len(t, body.Processable, 1)
		assert.Equal(t, inv.ID, body.Processable[0].ID)
	})

	t.Run("promotion reports the cutoff", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		cutoff := testNow.Add(-time.Hour)
		repo.On("FindAll", mock.Anything, mock.Anything).Return([]invoice.Invoice{}, nil)

		w, resp := doJSON(t, newInvoiceTestEngine(repo, new(MockAuditRepository)), http.MethodPost,
			"/api/v1/invoices/batch/promote-submissions", gin.H{"cutoff": cutoff})

		assert.Equal(t, http.StatusOK, w.Code)
		var body billingapp.PromoteSubmissionsResponse
		require.NoError(t, json.Unmarshal(resp.Data, &body))
		assert.True(t, cutoff.Equal(body.Cutoff))
	})
}

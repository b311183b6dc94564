package middleware

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Status string   `json:"status" binding:"required,invoice_status"`
	Method string   `json:"method" binding:"omitempty,payment_method"`
	Kind   string   `json:"kind" binding:"omitempty,oneof=SPLIT WHOLE"`
	Notes  string   `json:"notes" binding:"max=5"`
	Dates  []string `json:"dates" binding:"required,min=1"`
	Count  int      `json:"count" binding:"gte=0"`
	Secret string   `json:"-" form:"secret"`
}

func TestFormatValidationErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetupValidator()

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req sampleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			require.True(t, IsValidationErrors(err))
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"status":"OPEN","method":"BARTER","kind":"HALF","notes":"too long","dates":[],"count":-1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, "req-9")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, dto.ErrCodeValidation)
	assert.Contains(t, body, `"request_id":"req-9"`)
	assert.Contains(t, body, `"field":"status"`)
	assert.Contains(t, body, "Must be a valid invoice status")
	assert.Contains(t, body, `"field":"method"`)
	assert.Contains(t, body, "Must be one of: CASH CHECK CREDIT_CARD ACH INSURANCE OTHER")
	assert.Contains(t, body, "Must be one of: SPLIT WHOLE")
	assert.Contains(t, body, "Must be greater than or equal to 0")
	assert.Contains(t, body, `"field":"notes"`)
	assert.Contains(t, body, "Must be at most 5 characters")
	assert.Contains(t, body, `"field":"dates"`)
	assert.Contains(t, body, "Must contain at least 1 items")
}

func TestFormatValidationErrors_ValidEnums(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetupValidator()

	req := sampleRequest{Status: "SUBMITTED", Method: "ACH", Dates: []string{"2024-01-01"}}
	assert.NoError(t, binding.Validator.ValidateStruct(&req))
}

func TestTagName(t *testing.T) {
	typ := reflect.TypeOf(sampleRequest{})
	tests := map[string]string{
		"Status": "status",
		"Secret": "",
	}
	for field, want := range tests {
		f, ok := typ.FieldByName(field)
		require.True(t, ok)
		assert.Equal(t, want, tagName(f), field)
	}

	type query struct {
		Limit int `form:"limit"`
	}
	f, _ := reflect.TypeOf(query{}).FieldByName("Limit")
	assert.Equal(t, "limit", tagName(f))
}

func TestFormatValidationErrors_NonValidationError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-1")

	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
	assert.False(t, IsValidationErrors(assert.AnError))
}

package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/invoice"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// enumTag is a binding tag backed by a domain enum.
type enumTag struct {
	valid   func(string) bool
	message string
}

var enumTags = map[string]enumTag{
	"invoice_status": {
		valid:   func(s string) bool { return invoice.InvoiceStatus(s).IsValid() },
		message: "Must be a valid invoice status",
	},
	"payment_method": {
		valid:   func(s string) bool { return invoice.PaymentMethod(s).IsValid() },
		message: "Must be one of: CASH CHECK CREDIT_CARD ACH INSURANCE OTHER",
	},
}

var setupValidatorOnce sync.Once

// SetupValidator configures gin's validator once per process: field errors
// report JSON or form names, and the invoice_status and payment_method tags
// check values against the invoice domain.
func SetupValidator() {
	setupValidatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(tagName)
		for tag, e := range enumTags {
			valid := e.valid
			if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return valid(fl.Field().String())
			}); err != nil {
				panic(fmt.Sprintf("register %s validation: %v", tag, err))
			}
		}
	})
}

func tagName(fld reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return ""
}

// IsValidationErrors reports whether err came from struct validation
func IsValidationErrors(err error) bool {
	var ve validator.ValidationErrors
	return errors.As(err, &ve)
}

// FormatValidationErrors builds the 400 envelope listing each rejected field.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var (
		ve      validator.ValidationErrors
		details []dto.ValidationDetail
	)
	if errors.As(err, &ve) {
		details = make([]dto.ValidationDetail, 0, len(ve))
		for _, fe := range ve {
			details = append(details, dto.ValidationDetail{Field: fieldPath(fe), Message: validationMessage(fe)})
		}
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError writes a 400 validation error response
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

// fieldPath drops the root struct name from the namespace so nested fields
// read as "split_dates[1]" rather than "AddSplitDetailsRequest.split_dates[1]".
func fieldPath(e validator.FieldError) string {
	if _, rest, ok := strings.Cut(e.Namespace(), "."); ok {
		return rest
	}
	return e.Field()
}

var comparisonWords = map[string]string{
	"gte": "greater than or equal to",
	"lte": "less than or equal to",
	"gt":  "greater than",
	"lt":  "less than",
}

func validationMessage(e validator.FieldError) string {
	if t, ok := enumTags[e.Tag()]; ok {
		return t.message
	}
	if words, ok := comparisonWords[e.Tag()]; ok {
		return "Must be " + words + " " + e.Param()
	}

	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return boundMessage(e, "least")
	case "max":
		return boundMessage(e, "most")
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	default:
		return "Invalid value"
	}
}

// boundMessage words min and max by what is being counted.
func boundMessage(e validator.FieldError, which string) string {
	switch e.Kind() {
	case reflect.String:
		return fmt.Sprintf("Must be at %s %s characters", which, e.Param())
	case reflect.Slice, reflect.Array, reflect.Map:
		return fmt.Sprintf("Must contain at %s %s items", which, e.Param())
	default:
		return fmt.Sprintf("Must be at %s %s", which, e.Param())
	}
}

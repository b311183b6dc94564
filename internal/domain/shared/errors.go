package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// ValidationError is returned when caller-supplied data violates a precondition.
// It is always correctable by the caller and is never retried internally.
type ValidationError struct {
	DomainError
}

// NewValidationError creates a validation error with the given code and message
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{DomainError: DomainError{Code: code, Message: message}}
}

// NewValidationErrorf creates a validation error with a formatted message
func NewValidationErrorf(code, format string, args ...any) *ValidationError {
	return NewValidationError(code, fmt.Sprintf(format, args...))
}

// Unwrap exposes the embedded DomainError to errors.As
func (e *ValidationError) Unwrap() error {
	return &e.DomainError
}

// CodeInvalidStatusTransition is the error code carried by StatusTransitionError
const CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"

// StatusTransitionError is returned when a requested status change is not in the
// workflow adjacency table.
type StatusTransitionError struct {
	DomainError
	From string `json:"from"`
	To   string `json:"to"`
}

// NewStatusTransitionError creates a StatusTransitionError for from -> to
func NewStatusTransitionError(from, to string) *StatusTransitionError {
	return &StatusTransitionError{
		DomainError: DomainError{
			Code:    CodeInvalidStatusTransition,
			Message: fmt.Sprintf("Invalid status transition from %s to %s", from, to),
		},
		From: from,
		To:   to,
	}
}

// Unwrap exposes the embedded DomainError to errors.As
func (e *StatusTransitionError) Unwrap() error {
	return &e.DomainError
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStatusTransitionError reports whether err is (or wraps) a StatusTransitionError
func IsStatusTransitionError(err error) bool {
	var se *StatusTransitionError
	return errors.As(err, &se)
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// NewInvalidStateError rejects an operation the current status does not
// allow. It carries the ErrInvalidState code; an empty format falls back to
// its message.
func NewInvalidStateError(format string, args ...any) *ValidationError {
	if format == "" {
		return NewValidationError(ErrInvalidState.Code, ErrInvalidState.Message)
	}
	return NewValidationErrorf(ErrInvalidState.Code, format, args...)
}

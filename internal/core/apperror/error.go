// Package apperror provides structured errors rendered as problem details.
// Every error that reaches a caller of the sequence service is an AppError.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeInternal    = "INTERNAL_ERROR"
	CodeUnavailable = "SEQUENCE_UNAVAILABLE"

	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	CodeNotFound = "NOT_FOUND"
)

// DetailRetryable marks errors the caller may safely retry.
// A retry of an allocation may skip a number but never duplicates one.
const DetailRetryable = "retryable"

// AppError is the error type returned across the service boundary.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`

	HTTPStatus int   `json:"-"`
	Err        error `json:"-"` // never serialized
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Retryable reports whether the error carries retryable=true.
func (e *AppError) Retryable() bool {
	v, ok := e.Details[DetailRetryable].(bool)
	return ok && v
}

func newError(code string, status int, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// NewValidation creates a 400 for malformed input that has no single field.
func NewValidation(message string) *AppError {
	return newError(CodeValidation, http.StatusBadRequest, message)
}

// NewInvalidField creates a 400 pointing at one input field.
func NewInvalidField(field, message string) *AppError {
	return newError(CodeInvalidInput, http.StatusBadRequest, message).WithDetail("field", field)
}

// NewNotFound creates a 404.
func NewNotFound(entity string, id any) *AppError {
	return newError(CodeNotFound, http.StatusNotFound, entity+" not found").
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewUnavailable creates a retryable store failure (503).
// The counter may or may not have advanced; a retry can leave a gap.
func NewUnavailable(message string, err error) *AppError {
	e := newError(CodeUnavailable, http.StatusServiceUnavailable, message).WithDetail(DetailRetryable, true)
	e.Err = err
	return e
}

// NewInternal creates a 500. The cause is logged, never returned to clients.
func NewInternal(err error) *AppError {
	e := newError(CodeInternal, http.StatusInternalServerError, "Internal server error")
	e.Err = err
	return e
}

func NewUnauthorized(message string) *AppError {
	return newError(CodeUnauthorized, http.StatusUnauthorized, message)
}

func NewForbidden(message string) *AppError {
	return newError(CodeForbidden, http.StatusForbidden, message)
}

// AsAppError extracts AppError from error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// From returns the AppError in err's chain, or wraps err as internal.
func From(err error) *AppError {
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return NewInternal(err)
}

// GetHTTPStatus returns the HTTP status for any error.
func GetHTTPStatus(err error) int {
	return From(err).HTTPStatus
}

func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsValidation reports a 400-class input error.
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation) || hasCode(err, CodeInvalidInput)
}

func IsRetryable(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Retryable()
	}
	return false
}

func hasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

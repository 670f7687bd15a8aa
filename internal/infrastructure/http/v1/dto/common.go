// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"strings"
	"time"

	"sequencer/internal/core/apperror"
)

// DateLayout is the date-only form accepted wherever a date is expected.
const DateLayout = "2006-01-02"

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
}

// NewListResponse creates a list response. A nil slice renders as [].
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, TotalCount: len(items)}
}

// ErrorResponse documents the error body written by middleware.ErrorHandler.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ParseDate parses a date-only value in loc or an RFC 3339 timestamp.
// An empty value yields nil.
func ParseDate(field, value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.ParseInLocation(DateLayout, value, loc); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	return nil, apperror.NewInvalidField(field, field+" must be YYYY-MM-DD or RFC 3339").
		WithDetail("value", value)
}

// Package tenant carries the tenant code of the current request.
//
// Tenant resolution happens outside the service; by the time a request
// reaches the sequence domain the code is already trusted.
package tenant

import (
	"context"
	"errors"
	"strings"
)

// MaxCodeLength bounds tenant and type codes so they fit storage keys.
const MaxCodeLength = 64

// KeySeparator joins the parts of a sequence id; codes must not contain it.
const KeySeparator = "#"

// Errors for tenant code handling.
var (
	ErrNoTenantInContext = errors.New("tenant not found in context")
	ErrEmptyCode         = errors.New("code is empty")
	ErrCodeTooLong       = errors.New("code is too long")
	ErrCodeSeparator     = errors.New("code contains reserved separator '#'")
)

type tenantKey struct{}

// WithTenantCode stores the tenant code in context.
func WithTenantCode(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, tenantKey{}, code)
}

// GetTenantCode returns the tenant code or empty string.
func GetTenantCode(ctx context.Context) string {
	code, _ := ctx.Value(tenantKey{}).(string)
	return code
}

// MustGetTenantCode returns the tenant code or ErrNoTenantInContext.
func MustGetTenantCode(ctx context.Context) (string, error) {
	code := GetTenantCode(ctx)
	if code == "" {
		return "", ErrNoTenantInContext
	}
	return code, nil
}

// ValidateCode checks a tenant or type code before it becomes part of a key.
func ValidateCode(code string) error {
	switch {
	case strings.TrimSpace(code) == "":
		return ErrEmptyCode
	case len(code) > MaxCodeLength:
		return ErrCodeTooLong
	case strings.Contains(code, KeySeparator):
		return ErrCodeSeparator
	}
	return nil
}

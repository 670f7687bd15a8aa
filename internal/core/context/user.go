// Package context carries the caller identity and request tracing values
// through context.Context.
package context

import (
	"context"
	"slices"
)

// SystemUser is recorded as the actor when no user is attached to the request.
const SystemUser = "system"

// UserContext is the caller as resolved by the authentication layer in
// front of the service.
type UserContext struct {
	UserID      string
	TenantCode  string
	Roles       []string
	Permissions []string
	IsAdmin     bool
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns the UserContext of ctx, or nil.
func GetUser(ctx context.Context) *UserContext {
	user, _ := ctx.Value(userContextKey{}).(*UserContext)
	return user
}

// GetUserID returns the user ID of ctx, or "".
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// GetActor returns the user written to the counter audit columns:
// the user ID, or SystemUser for anonymous requests.
func GetActor(ctx context.Context) string {
	if id := GetUserID(ctx); id != "" {
		return id
	}
	return SystemUser
}

// HasPermission reports whether the user is an admin or holds permission.
func HasPermission(ctx context.Context, permission string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	return u.IsAdmin || slices.Contains(u.Permissions, permission)
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"sequencer/internal/core/apperror"
	appctx "sequencer/internal/core/context"
	"sequencer/internal/core/tenant"
)

// JWTValidator interface for token validation.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth middleware validates JWT tokens and populates user context.
// Tenant must run first so the token tenant can be checked against the header.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "missing or malformed authorization header")
			return
		}

		user, err := validator.ValidateToken(tokenString)
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid token"))
			c.Abort()
			return
		}

		// Enforce tenant match: a token bound to a tenant may not be used for another.
		headerTenant := tenant.GetTenantCode(c.Request.Context())
		if headerTenant != "" && user.TenantCode != "" && headerTenant != user.TenantCode {
			_ = c.Error(
				apperror.NewForbidden("tenant mismatch").
					WithDetail("header_tenant_code", headerTenant).
					WithDetail("token_tenant_code", user.TenantCode),
			)
			c.Abort()
			return
		}

		setUser(c, user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setUser(c *gin.Context, user *appctx.UserContext) {
	ctx := appctx.WithUser(c.Request.Context(), user)
	c.Request = c.Request.WithContext(ctx)

	c.Set("user_id", user.UserID)
	c.Set("permissions", user.Permissions)
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}

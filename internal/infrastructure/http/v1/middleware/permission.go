package middleware

import (
	"github.com/gin-gonic/gin"

	"sequencer/internal/core/apperror"
	appctx "sequencer/internal/core/context"
)

// RequirePermission middleware checks if user has required permission.
// Admins automatically have all permissions.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if appctx.GetUser(ctx) == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		if !appctx.HasPermission(ctx, permission) {
			_ = c.Error(
				apperror.NewForbidden("insufficient permissions").
					WithDetail("required_permission", permission),
			)
			c.Abort()
			return
		}

		c.Next()
	}
}

// Allow is a no-op stand-in for RequirePermission when authentication is off.
func Allow() gin.HandlerFunc {
	return func(c *gin.Context) { c.Next() }
}

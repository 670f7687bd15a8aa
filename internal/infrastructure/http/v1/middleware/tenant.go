package middleware

import (
	"github.com/gin-gonic/gin"

	"sequencer/internal/core/apperror"
	"sequencer/internal/core/tenant"
)

const (
	// TenantHeader is the HTTP header for tenant identification.
	TenantHeader = "X-Tenant-Code"
)

// Tenant middleware reads the tenant code from the request header and puts
// it into the request context. The code is trusted once it passes the
// format check; an upstream gateway is expected to have resolved it.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.GetHeader(TenantHeader)
		if code == "" {
			_ = c.Error(
				apperror.NewInvalidField("tenantCode", "tenant is required").
					WithDetail("header", TenantHeader),
			)
			c.Abort()
			return
		}

		if err := tenant.ValidateCode(code); err != nil {
			_ = c.Error(
				apperror.NewInvalidField("tenantCode", "invalid tenant code").
					WithDetail("header", TenantHeader).
					WithDetail("error", err.Error()),
			)
			c.Abort()
			return
		}

		ctx := tenant.WithTenantCode(c.Request.Context(), code)
		c.Request = c.Request.WithContext(ctx)
		c.Set("tenant_code", code)

		c.Next()
	}
}

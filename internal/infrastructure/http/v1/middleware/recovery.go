// Package middleware provides the gin middleware chain of the API.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"sequencer/internal/core/apperror"
	appctx "sequencer/internal/core/context"
	"sequencer/pkg/logger"
)

// Recovery turns a panic into a 500. It is the outermost middleware, so
// it writes the body itself instead of leaving it to ErrorHandler.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			ctx := c.Request.Context()
			logger.Error(ctx, "panic recovered", "panic", rec, "stack", string(debug.Stack()))

			appErr := apperror.NewInternal(fmt.Errorf("panic: %v", rec)).
				WithDetail("request_id", appctx.GetRequestID(ctx))
			_ = c.Error(appErr)
			c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			})
		}()
		c.Next()
	}
}

package middleware

import (
	"github.com/gin-gonic/gin"

	"sequencer/internal/core/apperror"
	appctx "sequencer/internal/core/context"
	"sequencer/pkg/logger"
)

// RetryAfterSeconds is sent with retryable errors.
const RetryAfterSeconds = "1"

// ErrorHandler renders the last error of the request as JSON, once.
// Errors that are not AppErrors become a 500 that carries only the request id.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		ctx := c.Request.Context()
		err := c.Errors.Last().Err
		appErr := apperror.From(err)

		switch {
		case appErr.Code == apperror.CodeInternal:
			logger.Error(ctx, "unhandled error", "error", err)
			appErr = apperror.NewInternal(err).WithDetail("request_id", appctx.GetRequestID(ctx))
		case appErr.Err != nil:
			logger.Error(ctx, "request error", "code", appErr.Code, "cause", appErr.Err)
		}

		if appErr.Retryable() {
			c.Header("Retry-After", RetryAfterSeconds)
		}
		c.JSON(appErr.HTTPStatus, gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
			"details": appErr.Details,
		})
	}
}

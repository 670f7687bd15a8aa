package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sequencer/pkg/logger"
)

// Logger attaches log to the request context and writes one access entry
// per request. Probes and scrapes are logged at debug; 4xx at warn and
// 5xx at error.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))

		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"bytes", c.Writer.Size(),
			"client_ip", c.ClientIP(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			kv = append(kv, "error", errs.String())
		}

		l := log.WithContext(c.Request.Context())
		switch {
		case status >= http.StatusInternalServerError:
			l.Errorw("http request", kv...)
		case status >= http.StatusBadRequest:
			l.Warnw("http request", kv...)
		case isProbe(path):
			l.Debugw("http request", kv...)
		default:
			l.Infow("http request", kv...)
		}
	}
}

func isProbe(path string) bool {
	return strings.HasPrefix(path, "/health/") || path == "/metrics"
}

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPObserver records request metrics.
type HTTPObserver interface {
	HTTPStarted() func()
	ObserveHTTP(method, path string, status int, elapsed time.Duration)
}

// Metrics middleware reports in-flight requests, counts and latency.
// Paths are reported as route templates to keep label cardinality bounded.
func Metrics(obs HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := obs.HTTPStarted()
		start := time.Now()

		c.Next()

		done()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		obs.ObserveHTTP(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	appctx "sequencer/internal/core/context"
	"sequencer/internal/core/id"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

const tracerName = "sequencer/http"

// Trace middleware adds request tracing context and a server span.
// The caller address is recorded for the counter audit columns.
func Trace() gin.HandlerFunc {
	tracer := otel.Tracer(tracerName)

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Request.Method),
				attribute.String("http.route", route),
			),
		)
		defer span.End()

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = id.New()
		}

		traceID := c.GetHeader(HeaderTraceID)
		if traceID == "" {
			if sc := span.SpanContext(); sc.HasTraceID() {
				traceID = sc.TraceID().String()
			} else {
				traceID = id.New()
			}
		}

		spanID := id.Short()
		if sc := span.SpanContext(); sc.HasSpanID() {
			spanID = sc.SpanID().String()
		}

		tc := &appctx.TraceContext{
			TraceID:   traceID,
			SpanID:    spanID,
			RequestID: requestID,
			ClientIP:  c.ClientIP(),
		}

		ctx = appctx.WithTrace(ctx, tc)
		c.Request = c.Request.WithContext(ctx)

		// Store in gin context for easy access
		c.Set("trace_id", traceID)
		c.Set("request_id", requestID)

		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderTraceID, traceID)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, c.Errors.String())
		}
	}
}

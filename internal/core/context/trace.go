package context

import (
	"context"

	"sequencer/internal/core/id"
)

// TraceContext identifies one request across logs, spans and the counter
// audit columns.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string

	// ClientIP is the caller address as seen by the transport layer.
	ClientIP string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns the TraceContext of ctx, or nil.
func GetTrace(ctx context.Context) *TraceContext {
	trace, _ := ctx.Value(traceContextKey{}).(*TraceContext)
	return trace
}

// GetRequestID returns the request ID of ctx, or "".
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// GetClientIP returns the caller address of ctx, or "".
func GetClientIP(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.ClientIP
	}
	return ""
}

// NewTraceContext creates a TraceContext with fresh IDs for work that does
// not arrive over HTTP, such as CLI commands.
func NewTraceContext(clientIP string) *TraceContext {
	return &TraceContext{
		TraceID:   id.New(),
		SpanID:    id.Short(),
		RequestID: id.New(),
		ClientIP:  clientIP,
	}
}

// Package logger provides structured logging with context support.
//
// Request-scoped fields (trace id, request id, tenant code, user id) are
// read from the context, so domain code only passes its own key/value pairs:
//
//	logger.Warn(ctx, "unresolved placeholders", "placeholders", names)
package logger

import (
	"context"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appctx "sequencer/internal/core/context"
	"sequencer/internal/core/tenant"
)

// Logger wraps zap.SugaredLogger with context-aware logging.
type Logger struct {
	*zap.SugaredLogger
}

type loggerKey struct{}

// Config holds logger configuration.
type Config struct {
	Level       string // debug, info, warn, error
	Development bool   // console encoder with colors

	// Output receives the encoded entries. Nil means stdout.
	Output io.Writer

	// Service and Version are attached to every entry when set.
	Service string
	Version string
}

// New creates a new Logger from configuration. An unknown level falls back
// to info.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	var encoder zapcore.Encoder
	if cfg.Development {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(out)), zap.NewAtomicLevelAt(level))
	opts := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	var fields []zap.Field
	if cfg.Service != "" {
		fields = append(fields, zap.String("service", cfg.Service))
	}
	if cfg.Version != "" {
		fields = append(fields, zap.String("version", cfg.Version))
	}
	if len(fields) > 0 {
		opts = append(opts, zap.Fields(fields...))
	}

	return &Logger{zap.New(core, opts...).Sugar()}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

// Default returns the process logger. Until SetDefault is called it is an
// info-level JSON logger on stdout.
func Default() *Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger, _ = New(Config{Level: "info"})
	}
	return defaultLogger
}

// SetDefault replaces the logger returned by Default.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// WithContext adds trace, tenant and user info from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	var kv []any
	if trace := appctx.GetTrace(ctx); trace != nil {
		kv = append(kv, "trace_id", trace.TraceID, "request_id", trace.RequestID)
	}
	if code := tenant.GetTenantCode(ctx); code != "" {
		kv = append(kv, "tenant_code", code)
	}
	if userID := appctx.GetUserID(ctx); userID != "" {
		kv = append(kv, "user_id", userID)
	}
	if len(kv) == 0 {
		return l
	}
	return &Logger{l.SugaredLogger.With(kv...)}
}

// WithLogger adds Logger to context.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the context logger, or Default, enriched with the
// request fields of ctx.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return l.WithContext(ctx)
	}
	return Default().WithContext(ctx)
}

func Debug(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Debugw(msg, keysAndValues...)
}

func Info(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Infow(msg, keysAndValues...)
}

func Warn(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Warnw(msg, keysAndValues...)
}

func Error(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Errorw(msg, keysAndValues...)
}

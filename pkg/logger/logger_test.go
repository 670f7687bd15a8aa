package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appctx "sequencer/internal/core/context"
	"sequencer/internal/core/tenant"
)

func TestFromContext_AddsRequestFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := &Logger{zap.New(core).Sugar()}

	ctx := WithLogger(context.Background(), base)
	ctx = appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})
	ctx = tenant.WithTenantCode(ctx, "MBC")
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "u-1"})

	Warn(ctx, "unresolved placeholder", "placeholder", "bogus")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "t-1", fields["trace_id"])
		assert.Equal(t, "r-1", fields["request_id"])
		assert.Equal(t, "MBC", fields["tenant_code"])
		assert.Equal(t, "u-1", fields["user_id"])
		assert.Equal(t, "bogus", fields["placeholder"])
	}
}

func TestNew_FallsBackToInfo(t *testing.T) {
	l, err := New(Config{Level: "nonsense", Output: io.Discard})
	require.NoError(t, err)
	assert.False(t, l.Desugar().Core().Enabled(zap.DebugLevel))
	assert.True(t, l.Desugar().Core().Enabled(zap.InfoLevel))
}

func TestNew_WritesServiceFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Output: &buf, Service: "sequencer", Version: "1.2.3"})
	require.NoError(t, err)

	l.Infow("sequence config saved", "type_code", "invoice")
	require.NoError(t, l.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sequencer", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "invoice", entry["type_code"])
	assert.Equal(t, "sequence config saved", entry["msg"])
}

func TestSetDefault(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	core, logs := observer.New(zap.InfoLevel)
	SetDefault(&Logger{zap.New(core).Sugar()})

	Info(context.Background(), "store opened", "driver", "memory")
	require.Len(t, logs.All(), 1)
	assert.Equal(t, "memory", logs.All()[0].ContextMap()["driver"])
}

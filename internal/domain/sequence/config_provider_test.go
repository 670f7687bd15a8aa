package sequence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sequencer/internal/core/apperror"
	core "sequencer/internal/core/sequence"
)

func TestConfigProvider_DefaultFallback(t *testing.T) {
	p := NewConfigProvider(&core.MockConfigStore{}, core.DefaultConfig())

	cfg := p.GetConfig(context.Background(), "MBC", "unregistered-type")
	assert.Equal(t, "%%no%%", cfg.Format)
	assert.Equal(t, core.DefaultTypeCode, cfg.TypeCode)
	assert.Equal(t, 4, cfg.StartMonth)

	nilStore := NewConfigProvider(nil, core.DefaultConfig())
	assert.Equal(t, "%%no%%", nilStore.GetConfig(context.Background(), "MBC", "x").Format)
}

func TestConfigProvider_NormalizesStoredConfig(t *testing.T) {
	store := &core.MockConfigStore{
		GetConfigFunc: func(ctx context.Context, tenantCode, typeCode string) (*core.Config, error) {
			return &core.Config{TenantCode: tenantCode, TypeCode: typeCode, StartMonth: 0}, nil
		},
	}
	p := NewConfigProvider(store, core.DefaultConfig())

	cfg := p.GetConfig(context.Background(), "MBC", "invoice")
	assert.Equal(t, "invoice", cfg.TypeCode)
	assert.Equal(t, "%%no%%", cfg.Format)
	assert.Equal(t, 4, cfg.StartMonth)
}

func TestConfigProvider_CacheAndInvalidate(t *testing.T) {
	calls := 0
	format := "A-%%no%%"
	store := &core.MockConfigStore{
		GetConfigFunc: func(ctx context.Context, tenantCode, typeCode string) (*core.Config, error) {
			calls++
			return &core.Config{TenantCode: tenantCode, TypeCode: typeCode, Format: format, StartMonth: 4}, nil
		},
	}
	p := NewConfigProvider(store, core.DefaultConfig(), WithCache(1<<20, time.Minute))
	ctx := context.Background()

	assert.Equal(t, "A-%%no%%", p.GetConfig(ctx, "MBC", "invoice").Format)
	assert.Equal(t, "A-%%no%%", p.GetConfig(ctx, "MBC", "invoice").Format)
	assert.Equal(t, 1, calls)

	format = "B-%%no%%"
	p.Invalidate("MBC", "invoice")
	assert.Equal(t, "B-%%no%%", p.GetConfig(ctx, "MBC", "invoice").Format)
	assert.Equal(t, 2, calls)

	format = "C-%%no%%"
	p.InvalidateKey(CacheKey("MBC", "invoice"))
	assert.Equal(t, "C-%%no%%", p.GetConfig(ctx, "MBC", "invoice").Format)

	p.InvalidateAll()
	p.GetConfig(ctx, "MBC", "invoice")
	assert.Equal(t, 4, calls)
}

func TestConfigProvider_ErrorsAreNotCached(t *testing.T) {
	calls := 0
	store := &core.MockConfigStore{
		GetConfigFunc: func(ctx context.Context, tenantCode, typeCode string) (*core.Config, error) {
			calls++
			return nil, errors.New("down")
		},
	}
	obs := &recordingObserver{}
	p := NewConfigProvider(store, core.DefaultConfig(), WithCache(1<<20, time.Minute), WithProviderObserver(obs))

	p.GetConfig(context.Background(), "MBC", "invoice")
	p.GetConfig(context.Background(), "MBC", "invoice")
	assert.Equal(t, 2, calls)
	assert.Len(t, obs.degraded, 2)
}

func TestConfigService(t *testing.T) {
	backend := core.NewMemoryBackend()
	provider := NewConfigProvider(backend, core.DefaultConfig(), WithCache(1<<20, time.Minute))
	svc := NewConfigService(backend, provider)
	ctx := context.Background()

	// warm the cache with the default
	assert.Equal(t, "%%no%%", provider.GetConfig(ctx, "MBC", "invoice").Format)

	saved, err := svc.Put(ctx, core.Config{TenantCode: "MBC", TypeCode: "invoice", Format: "INV-%%no%%"})
	require.NoError(t, err)
	assert.Equal(t, 4, saved.StartMonth)
	assert.False(t, saved.UpdatedAt.IsZero())

	assert.Equal(t, "INV-%%no%%", provider.GetConfig(ctx, "MBC", "invoice").Format)

	got, err := svc.Get(ctx, "MBC", "invoice")
	require.NoError(t, err)
	assert.Equal(t, "INV-%%no%%", got.Format)

	list, err := svc.List(ctx, "MBC")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, "MBC", "invoice"))
	assert.Equal(t, "%%no%%", provider.GetConfig(ctx, "MBC", "invoice").Format)

	_, err = svc.Get(ctx, "MBC", "invoice")
	assert.True(t, apperror.IsNotFound(err))
	assert.True(t, apperror.IsNotFound(svc.Delete(ctx, "MBC", "invoice")))
}

func TestConfigService_Validation(t *testing.T) {
	svc := NewConfigService(core.NewMemoryBackend(), nil)
	ctx := context.Background()

	_, err := svc.Put(ctx, core.Config{TenantCode: "MBC", TypeCode: "invoice"})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Put(ctx, core.Config{TenantCode: "MBC", TypeCode: "invoice", Format: "x", StartMonth: 13})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Put(ctx, core.Config{TenantCode: "MBC", TypeCode: "in#voice", Format: "x"})
	assert.True(t, apperror.IsValidation(err))
}

package sequence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/coocood/freecache"

	core "sequencer/internal/core/sequence"
	"sequencer/internal/core/tenant"
	"sequencer/pkg/logger"
)

// ConfigProvider resolves the rendering configuration of a sequence type.
//
// It never fails: a missing config, a store error or a nil store all yield
// the default config. Lookups may be served from a TTL cache.
type ConfigProvider struct {
	store    core.ConfigStore
	defaults core.Config
	observer Observer

	cache     *freecache.Cache
	cacheTTL  int
	cacheNegs bool
}

// ProviderOption configures a ConfigProvider.
type ProviderOption func(*ConfigProvider)

// WithCache enables an in-process cache of sizeBytes entries expiring after ttl.
// freecache rounds sizes below 512KB up to 512KB.
func WithCache(sizeBytes int, ttl time.Duration) ProviderOption {
	return func(p *ConfigProvider) {
		if sizeBytes <= 0 || ttl <= 0 {
			return
		}
		p.cache = freecache.NewCache(sizeBytes)
		p.cacheTTL = max(int(ttl/time.Second), 1)
		p.cacheNegs = true
	}
}

// WithProviderObserver reports degraded lookups to o.
func WithProviderObserver(o Observer) ProviderOption {
	return func(p *ConfigProvider) {
		if o != nil {
			p.observer = o
		}
	}
}

// NewConfigProvider creates a provider backed by store. store may be nil,
// in which case every lookup returns defaults.
func NewConfigProvider(store core.ConfigStore, defaults core.Config, opts ...ProviderOption) *ConfigProvider {
	p := &ConfigProvider{
		store:    store,
		defaults: defaults.Normalize(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Defaults returns the fallback configuration.
func (p *ConfigProvider) Defaults() core.Config {
	return p.defaults
}

// GetConfig returns the config of (tenantCode, typeCode) or the defaults.
func (p *ConfigProvider) GetConfig(ctx context.Context, tenantCode, typeCode string) core.Config {
	if p.store == nil {
		return p.defaults
	}

	key := cacheKey(tenantCode, typeCode)
	if cfg, ok := p.fromCache(key); ok {
		return cfg
	}

	found, err := p.store.GetConfig(ctx, tenantCode, typeCode)
	switch {
	case errors.Is(err, core.ErrConfigNotFound):
		if p.cacheNegs {
			p.toCache(key, p.defaults)
		}
		return p.defaults
	case err != nil:
		logger.Warn(ctx, "sequence config lookup failed, using defaults",
			"type_code", typeCode,
			"error", err,
		)
		p.observer.ObserveDegraded(DegradedConfigLookup)
		return p.defaults
	case found == nil:
		return p.defaults
	}

	cfg := found.Normalize()
	p.toCache(key, cfg)
	return cfg
}

// Invalidate drops the cached entry of one type.
func (p *ConfigProvider) Invalidate(tenantCode, typeCode string) {
	if p.cache == nil {
		return
	}
	p.cache.Del([]byte(cacheKey(tenantCode, typeCode)))
}

// InvalidateKey drops a cached entry by its "tenant#type" key.
func (p *ConfigProvider) InvalidateKey(key string) {
	if p.cache == nil {
		return
	}
	p.cache.Del([]byte(key))
}

// InvalidateAll empties the cache.
func (p *ConfigProvider) InvalidateAll() {
	if p.cache == nil {
		return
	}
	p.cache.Clear()
}

func (p *ConfigProvider) fromCache(key string) (core.Config, bool) {
	if p.cache == nil {
		return core.Config{}, false
	}
	raw, err := p.cache.Get([]byte(key))
	if err != nil {
		return core.Config{}, false
	}
	var cfg core.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return core.Config{}, false
	}
	return cfg, true
}

func (p *ConfigProvider) toCache(key string, cfg core.Config) {
	if p.cache == nil {
		return
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	_ = p.cache.Set([]byte(key), raw, p.cacheTTL)
}

// CacheKey returns the "tenant#type" key used for cache entries and
// change notifications.
func CacheKey(tenantCode, typeCode string) string {
	return cacheKey(tenantCode, typeCode)
}

func cacheKey(tenantCode, typeCode string) string {
	return tenantCode + tenant.KeySeparator + typeCode
}

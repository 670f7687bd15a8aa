// Package app assembles the sequence services from configuration.
// Both the HTTP server and the admin CLI start from here.
package app

import (
	"context"
	"fmt"
	"time"

	"sequencer/internal/config"
	core "sequencer/internal/core/sequence"
	"sequencer/internal/domain/sequence"
	"sequencer/internal/infrastructure/cache"
	"sequencer/internal/infrastructure/metrics"
	"sequencer/internal/infrastructure/storage"
	"sequencer/internal/infrastructure/storage/postgres"
	"sequencer/internal/infrastructure/telemetry"
	"sequencer/pkg/logger"
)

// App holds the wired services and the resources they own.
type App struct {
	Config    *config.Config
	Location  *time.Location
	Backend   core.Backend
	Metrics   *metrics.Metrics
	Provider  *sequence.ConfigProvider
	Sequences *sequence.Service
	Configs   *sequence.ConfigService

	listener *cache.ConfigListener
}

// New opens the configured backend and builds the services on top of it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	backend, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	return NewWithBackend(cfg, loc, backend), nil
}

// NewWithBackend builds the services on an already opened backend.
func NewWithBackend(cfg *config.Config, loc *time.Location, backend core.Backend) *App {
	m := metrics.New()

	defaults := core.DefaultConfig()
	defaults.Format = cfg.Sequence.DefaultFormat
	defaults.StartMonth = cfg.Sequence.DefaultStartMonth

	provider := sequence.NewConfigProvider(backend, defaults,
		sequence.WithCache(cfg.ConfigCacheBytes(), cfg.Sequence.ConfigCacheTTL),
		sequence.WithProviderObserver(m),
	)

	a := &App{
		Config:   cfg,
		Location: loc,
		Backend:  backend,
		Metrics:  m,
		Provider: provider,
		Sequences: sequence.NewService(sequence.ServiceConfig{
			Counters:     telemetry.NewTracingCounterStore(backend, backend.Name()),
			Configs:      provider,
			Observer:     m,
			EpochYear:    cfg.Sequence.FiscalEpochYear,
			Location:     loc,
			StoreTimeout: cfg.Sequence.StoreTimeout,
		}),
		Configs: sequence.NewConfigService(backend, provider),
	}
	return a
}

// StartConfigListener subscribes to config change notifications so the
// provider cache stays coherent across instances. Only PostgreSQL
// publishes them; for other backends this is a no-op.
func (a *App) StartConfigListener(ctx context.Context) {
	pg, ok := a.Backend.(*postgres.Backend)
	if !ok || a.Config.ConfigCacheBytes() == 0 {
		return
	}

	a.listener = cache.NewConfigListener(pg.Pool().Unwrap(), postgres.ConfigChangedChannel, a.Provider)
	a.listener.OnInvalidate(func(string, string) {
		a.Metrics.ObserveConfigInvalidation()
	})
	a.listener.Start(ctx)
}

// Close stops the listener and closes the backend.
func (a *App) Close() error {
	if a.listener != nil {
		a.listener.Stop()
	}
	if err := a.Backend.Close(); err != nil {
		return fmt.Errorf("close %s store: %w", a.Backend.Name(), err)
	}
	logger.Info(context.Background(), "sequence store closed", "driver", a.Backend.Name())
	return nil
}

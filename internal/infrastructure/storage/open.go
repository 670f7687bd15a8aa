// Package storage selects the sequence backend named by configuration.
package storage

import (
	"context"
	"fmt"

	"sequencer/internal/config"
	"sequencer/internal/core/sequence"
	"sequencer/internal/infrastructure/storage/postgres"
	"sequencer/internal/infrastructure/storage/redis"
	"sequencer/internal/infrastructure/storage/sqlite"
	"sequencer/pkg/logger"
)

// Open connects to the backend selected by cfg.Driver.
// Postgres and SQLite run their migrations when cfg.AutoMigrate is set;
// SQLite always migrates since its file may be brand new.
func Open(ctx context.Context, cfg config.StoreConfig) (sequence.Backend, error) {
	var (
		backend sequence.Backend
		err     error
	)

	switch cfg.Driver {
	case config.DriverPostgres:
		poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
		if cfg.MaxConns > 0 {
			poolCfg.MaxConns = cfg.MaxConns
		}
		poolCfg.StatementTimeout = cfg.StatementTimeout
		backend, err = postgres.Open(ctx, poolCfg, cfg.AutoMigrate)
	case config.DriverSQLite:
		backend, err = sqlite.Open(cfg.SQLitePath)
	case config.DriverRedis:
		backend, err = redis.Open(ctx, cfg.RedisURL, cfg.RedisPassword)
	case config.DriverMemory:
		backend = sequence.NewMemoryBackend()
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}

	logger.Info(ctx, "sequence store opened", "driver", backend.Name())
	return backend, nil
}

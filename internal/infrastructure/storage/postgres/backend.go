package postgres

import (
	"context"

	"sequencer/internal/core/sequence"
)

// Backend bundles the PostgreSQL counter store and config repository.
type Backend struct {
	*CounterStore
	*ConfigRepo

	pool *Pool
}

var _ sequence.Backend = (*Backend)(nil)

// NewBackend builds the stores on top of pool.
func NewBackend(pool *Pool) *Backend {
	return &Backend{
		CounterStore: NewCounterStore(pool.Pool),
		ConfigRepo:   NewConfigRepo(NewTxManager(pool)),
		pool:         pool,
	}
}

// Open connects, optionally migrates, and returns a ready backend.
func Open(ctx context.Context, cfg PoolConfig, migrate bool) (*Backend, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := Migrate(ctx, pool.Pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return NewBackend(pool), nil
}

// Name implements sequence.Backend.
func (b *Backend) Name() string { return "postgres" }

// Ping implements sequence.Backend.
func (b *Backend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

// Close implements sequence.Backend.
func (b *Backend) Close() error {
	if b.pool.Pool != nil {
		LogPoolStats(context.Background(), b.pool.Pool)
	}
	b.pool.Close()
	return nil
}

// Pool exposes the pool for LISTEN and stats.
func (b *Backend) Pool() *Pool {
	return b.pool
}

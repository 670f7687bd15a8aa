// Package sequence provides domain contracts for tenant-scoped sequence numbering.
// Implementations live in infrastructure layer.
package sequence

import (
	"context"
	"errors"
)

// Errors returned by store implementations.
var (
	ErrCounterNotFound = errors.New("sequence counter not found")
	ErrConfigNotFound  = errors.New("sequence config not found")
)

// CounterStore persists counters.
// This is the domain contract - implementations live in infrastructure layer.
//
// Increment must be a single atomic operation in the backing store: two
// concurrent calls for the same key never observe the same Count. The service
// holds no locks of its own and relies on this.
type CounterStore interface {
	// Increment creates the counter with Count 1 or adds 1 to it,
	// and returns the state after the change.
	Increment(ctx context.Context, key Key, stamp Stamp) (*Counter, error)

	// Get returns the current counter without changing it,
	// or ErrCounterNotFound.
	Get(ctx context.Context, key Key) (*Counter, error)
}

// ConfigStore reads per-type configuration.
type ConfigStore interface {
	// GetConfig returns the config for (tenantCode, typeCode), or ErrConfigNotFound.
	GetConfig(ctx context.Context, tenantCode, typeCode string) (*Config, error)
}

// ConfigWriter manages per-type configuration.
type ConfigWriter interface {
	ConfigStore

	// PutConfig creates or replaces the config of cfg.TenantCode/cfg.TypeCode.
	PutConfig(ctx context.Context, cfg Config) error

	// DeleteConfig removes a config, or returns ErrConfigNotFound.
	DeleteConfig(ctx context.Context, tenantCode, typeCode string) error

	// ListConfigs returns every config of a tenant ordered by type code.
	ListConfigs(ctx context.Context, tenantCode string) ([]Config, error)
}

// Backend is a storage engine serving both counters and configs.
type Backend interface {
	CounterStore
	ConfigWriter

	// Name identifies the engine ("postgres", "sqlite", "redis").
	Name() string

	// Ping checks the engine is reachable.
	Ping(ctx context.Context) error

	// Close releases connections.
	Close() error
}

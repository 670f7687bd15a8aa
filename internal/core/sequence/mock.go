package sequence

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// MockCounterStore is a test implementation of CounterStore.
// Use in unit tests to avoid database dependencies.
type MockCounterStore struct {
	IncrementFunc func(ctx context.Context, key Key, stamp Stamp) (*Counter, error)
	GetFunc       func(ctx context.Context, key Key) (*Counter, error)
}

// Increment implements CounterStore.
func (m *MockCounterStore) Increment(ctx context.Context, key Key, stamp Stamp) (*Counter, error) {
	if m.IncrementFunc != nil {
		return m.IncrementFunc(ctx, key, stamp)
	}
	// Default: every key is brand new
	return &Counter{
		TenantCode:  key.TenantCode,
		TypeCode:    key.TypeCode,
		RotateValue: key.RotateValue,
		RotateBy:    string(stamp.RotateBy),
		Count:       1,
		CreatedAt:   stamp.At,
		UpdatedAt:   stamp.At,
	}, nil
}

// Get implements CounterStore.
func (m *MockCounterStore) Get(ctx context.Context, key Key) (*Counter, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return nil, ErrCounterNotFound
}

// MockConfigStore is a test implementation of ConfigStore.
type MockConfigStore struct {
	GetConfigFunc func(ctx context.Context, tenantCode, typeCode string) (*Config, error)
}

// GetConfig implements ConfigStore.
func (m *MockConfigStore) GetConfig(ctx context.Context, tenantCode, typeCode string) (*Config, error) {
	if m.GetConfigFunc != nil {
		return m.GetConfigFunc(ctx, tenantCode, typeCode)
	}
	return nil, ErrConfigNotFound
}

// MemoryBackend is an in-process Backend for tests and local tooling.
// Increment is atomic per key under a mutex, which stands in for the
// atomicity real stores provide natively.
type MemoryBackend struct {
	mu       sync.Mutex
	counters map[Key]*Counter
	configs  map[[2]string]Config
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		counters: make(map[Key]*Counter),
		configs:  make(map[[2]string]Config),
	}
}

// Name implements Backend.
func (m *MemoryBackend) Name() string { return "memory" }

// Ping implements Backend.
func (m *MemoryBackend) Ping(ctx context.Context) error { return ctx.Err() }

// Close implements Backend.
func (m *MemoryBackend) Close() error { return nil }

// Increment implements CounterStore.
func (m *MemoryBackend) Increment(ctx context.Context, key Key, stamp Stamp) (*Counter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[key]
	if !ok {
		c = &Counter{
			TenantCode:  key.TenantCode,
			TypeCode:    key.TypeCode,
			RotateValue: key.RotateValue,
			CreatedAt:   stamp.At,
			CreatedBy:   stamp.UserID,
			CreatedIP:   stamp.SourceIP,
		}
		m.counters[key] = c
	}
	c.Count++
	c.RotateBy = string(stamp.RotateBy)
	c.RequestID = stamp.RequestID
	c.UpdatedAt = stamp.At
	c.UpdatedBy = stamp.UserID
	c.UpdatedIP = stamp.SourceIP

	out := *c
	return &out, nil
}

// Get implements CounterStore.
func (m *MemoryBackend) Get(ctx context.Context, key Key) (*Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[key]
	if !ok {
		return nil, ErrCounterNotFound
	}
	out := *c
	return &out, nil
}

// GetConfig implements ConfigStore.
func (m *MemoryBackend) GetConfig(ctx context.Context, tenantCode, typeCode string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, ok := m.configs[[2]string{tenantCode, typeCode}]
	if !ok {
		return nil, ErrConfigNotFound
	}
	return &cfg, nil
}

// PutConfig implements ConfigWriter.
func (m *MemoryBackend) PutConfig(ctx context.Context, cfg Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cfg.UpdatedAt.IsZero() {
		cfg.UpdatedAt = time.Now().UTC()
	}
	m.configs[[2]string{cfg.TenantCode, cfg.TypeCode}] = cfg
	return nil
}

// DeleteConfig implements ConfigWriter.
func (m *MemoryBackend) DeleteConfig(ctx context.Context, tenantCode, typeCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := [2]string{tenantCode, typeCode}
	if _, ok := m.configs[k]; !ok {
		return ErrConfigNotFound
	}
	delete(m.configs, k)
	return nil
}

// ListConfigs implements ConfigWriter.
func (m *MemoryBackend) ListConfigs(ctx context.Context, tenantCode string) ([]Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Config, 0)
	for k, cfg := range m.configs {
		if k[0] == tenantCode {
			out = append(out, cfg)
		}
	}
	slices.SortFunc(out, func(a, b Config) int { return strings.Compare(a.TypeCode, b.TypeCode) })
	return out, nil
}

// Ensure compile-time interface compliance.
var (
	_ CounterStore = (*MockCounterStore)(nil)
	_ ConfigStore  = (*MockConfigStore)(nil)
	_ Backend      = (*MemoryBackend)(nil)
)

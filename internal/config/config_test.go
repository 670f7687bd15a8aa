package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 3*time.Second, cfg.Sequence.StoreTimeout)
	assert.Equal(t, 5*time.Second, cfg.Store.StatementTimeout)
	assert.Equal(t, int32(20), cfg.Store.MaxConns)
	assert.Equal(t, 1953, cfg.Sequence.FiscalEpochYear)
	assert.Equal(t, "%%no%%", cfg.Sequence.DefaultFormat)
	assert.Equal(t, 4, cfg.Sequence.DefaultStartMonth)
	assert.Equal(t, 4*1024*1024, cfg.ConfigCacheBytes())
	assert.True(t, cfg.IsDevelopment())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", " SQLite ")
	t.Setenv("SQLITE_PATH", "/tmp/seq.db")
	t.Setenv("SEQUENCE_STORE_TIMEOUT", "250ms")
	t.Setenv("SEQUENCE_DEFAULT_START_MONTH", "1")
	t.Setenv("APP_TIMEZONE", "Asia/Tokyo")
	t.Setenv("CONFIG_CACHE_TTL", "0s")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/seq.db", cfg.Store.SQLitePath)
	assert.Equal(t, 250*time.Millisecond, cfg.Sequence.StoreTimeout)
	assert.Equal(t, 1, cfg.Sequence.DefaultStartMonth)
	assert.Equal(t, 0, cfg.ConfigCacheBytes())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", loc.String())
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without url", map[string]string{"STORE_DRIVER": "postgres", "DATABASE_URL": ""}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "mongo"}},
		{"bad start month", map[string]string{"STORE_DRIVER": "memory", "SEQUENCE_DEFAULT_START_MONTH": "13"}},
		{"bad timezone", map[string]string{"STORE_DRIVER": "memory", "APP_TIMEZONE": "Mars/Olympus"}},
		{"production without secret", map[string]string{"STORE_DRIVER": "sqlite", "APP_ENV": "production", "JWT_SECRET": ""}},
		{"memory in production", map[string]string{"STORE_DRIVER": "memory", "APP_ENV": "production", "JWT_SECRET": "s3cret"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STORE_DRIVER=redis\nREDIS_URL=redis://cache:6379/2\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("STORE_DRIVER")
		os.Unsetenv("REDIS_URL")
	})

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "redis://cache:6379/2", cfg.Store.RedisURL)
}

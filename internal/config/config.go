// Package config loads process configuration from the environment.
// A .env file in the working directory is read first when present;
// variables already set in the environment win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"sequencer/pkg/numerator"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Config is the full process configuration.
type Config struct {
	App       AppConfig
	Store     StoreConfig
	Sequence  SequenceConfig
	Auth      AuthConfig
	Telemetry TelemetryConfig
}

// AppConfig holds HTTP server and logging settings.
type AppConfig struct {
	Env             string        `env:"APP_ENV,default=development"`
	Port            string        `env:"APP_PORT,default=8080"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
	Timezone        string        `env:"APP_TIMEZONE,default=UTC"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=30s"`
}

// StoreConfig selects and configures the counter backend.
type StoreConfig struct {
	Driver           string        `env:"STORE_DRIVER,default=postgres"`
	DatabaseURL      string        `env:"DATABASE_URL"`
	MaxConns         int32         `env:"DATABASE_MAX_CONNS,default=20"`
	StatementTimeout time.Duration `env:"DATABASE_STATEMENT_TIMEOUT,default=5s"`
	SQLitePath       string        `env:"SQLITE_PATH,default=sequencer.db"`
	RedisURL         string        `env:"REDIS_URL,default=redis://localhost:6379/0"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	AutoMigrate      bool          `env:"AUTO_MIGRATE,default=true"`
}

// SequenceConfig tunes allocation.
type SequenceConfig struct {
	StoreTimeout       time.Duration `env:"SEQUENCE_STORE_TIMEOUT,default=3s"`
	FiscalEpochYear    int           `env:"FISCAL_EPOCH_YEAR,default=1953"`
	DefaultFormat      string        `env:"SEQUENCE_DEFAULT_FORMAT,default=%%no%%"`
	DefaultStartMonth  int           `env:"SEQUENCE_DEFAULT_START_MONTH,default=4"`
	ConfigCacheTTL     time.Duration `env:"CONFIG_CACHE_TTL,default=1m"`
	ConfigCacheSizeMiB int           `env:"CONFIG_CACHE_SIZE_MB,default=4"`
}

// AuthConfig configures JWT validation.
type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	JWTIssuer string        `env:"JWT_ISSUER,default=sequencer"`
	TokenTTL  time.Duration `env:"JWT_TOKEN_TTL,default=15m"`
}

// TelemetryConfig configures tracing export.
type TelemetryConfig struct {
	Exporter    string `env:"OTEL_EXPORTER,default=none"`
	ServiceName string `env:"OTEL_SERVICE_NAME,default=sequencer"`
	Insecure    bool   `env:"OTEL_EXPORTER_OTLP_INSECURE,default=false"`
}

// Load reads .env (if present) and decodes the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// LoadFile reads the given env file before decoding.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return FromEnv()
}

// FromEnv decodes the current environment without reading any file.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode env: %w", err)
	}
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverRedis:
		if c.Store.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis driver")
		}
	case DriverMemory:
		// counters live in one process and vanish on restart
		if c.IsProduction() {
			return errors.New("STORE_DRIVER=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	if c.Sequence.DefaultStartMonth < 1 || c.Sequence.DefaultStartMonth > 12 {
		return fmt.Errorf("SEQUENCE_DEFAULT_START_MONTH must be between 1 and 12, got %d", c.Sequence.DefaultStartMonth)
	}
	if c.Sequence.FiscalEpochYear < 1 {
		return fmt.Errorf("FISCAL_EPOCH_YEAR must be positive, got %d", c.Sequence.FiscalEpochYear)
	}
	if c.Sequence.DefaultFormat == "" {
		c.Sequence.DefaultFormat = numerator.DefaultFormat
	}
	if c.Sequence.StoreTimeout < 0 {
		return errors.New("SEQUENCE_STORE_TIMEOUT must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	return nil
}

// Location resolves APP_TIMEZONE.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}

// IsDevelopment reports APP_ENV=development.
func (c *Config) IsDevelopment() bool { return c.App.Env == "development" }

// IsProduction reports APP_ENV=production.
func (c *Config) IsProduction() bool { return c.App.Env == "production" }

// ConfigCacheBytes is the freecache size in bytes. Zero disables the cache.
func (c *Config) ConfigCacheBytes() int {
	if c.Sequence.ConfigCacheTTL <= 0 || c.Sequence.ConfigCacheSizeMiB <= 0 {
		return 0
	}
	return c.Sequence.ConfigCacheSizeMiB * 1024 * 1024
}

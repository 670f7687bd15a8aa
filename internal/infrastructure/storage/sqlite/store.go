// Package sqlite provides the embedded SQLite sequence backend.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	"sequencer/internal/core/sequence"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

const timeFormat = time.RFC3339Nano

const counterColumns = `tenant_code, type_code, rotate_value, rotate_by, seq, request_id,
	created_at, created_by, created_ip, updated_at, updated_by, updated_ip`

// incrementSQL is a single atomic upsert. SQLite takes the write lock when
// the statement starts, so concurrent writers queue on busy_timeout.
const incrementSQL = `
INSERT INTO sys_sequences (
	tenant_code, type_code, rotate_value, rotate_by, seq, request_id,
	created_at, created_by, created_ip, updated_at, updated_by, updated_ip
)
VALUES (?1, ?2, ?3, ?4, 1, ?5, ?6, ?7, ?8, ?6, ?7, ?8)
ON CONFLICT (tenant_code, type_code, rotate_value) DO UPDATE SET
	seq        = sys_sequences.seq + 1,
	rotate_by  = excluded.rotate_by,
	request_id = excluded.request_id,
	updated_at = excluded.updated_at,
	updated_by = excluded.updated_by,
	updated_ip = excluded.updated_ip
RETURNING ` + counterColumns

const configColumns = `tenant_code, type_code, format, start_month, register_date, updated_at`

// Store implements sequence.Backend using SQLite.
type Store struct {
	db *sql.DB
}

var _ sequence.Backend = (*Store)(nil)

// Open opens a SQLite database, runs migrations, and returns a ready store.
// path is a file name or ":memory:".
func Open(path string) (*Store, error) {
	memory := path == ":memory:" || strings.Contains(path, "mode=memory")

	db, err := sql.Open("sqlite", withPragmas(path, memory))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if memory {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}

	return NewFromDB(db)
}

// NewFromDB wraps a configured *sql.DB and runs migrations.
func NewFromDB(db *sql.DB) (*Store, error) {
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func withPragmas(path string, memory bool) string {
	pragmas := []string{"_pragma=busy_timeout(5000)"}
	if !memory {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(pragmas, "&")
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// Name implements sequence.Backend.
func (s *Store) Name() string { return "sqlite" }

// Ping implements sequence.Backend.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Increment implements sequence.CounterStore.
func (s *Store) Increment(ctx context.Context, key sequence.Key, stamp sequence.Stamp) (*sequence.Counter, error) {
	row := s.db.QueryRowContext(ctx, incrementSQL,
		key.TenantCode,
		key.TypeCode,
		key.RotateValue,
		string(stamp.RotateBy.OrNone()),
		stamp.RequestID,
		stamp.At.UTC().Format(timeFormat),
		stamp.UserID,
		stamp.SourceIP,
	)

	c, err := scanCounter(row)
	if err != nil {
		return nil, fmt.Errorf("increment counter: %w", err)
	}
	return c, nil
}

// Get implements sequence.CounterStore.
func (s *Store) Get(ctx context.Context, key sequence.Key) (*sequence.Counter, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+counterColumns+` FROM sys_sequences
		 WHERE tenant_code = ? AND type_code = ? AND rotate_value = ?`,
		key.TenantCode, key.TypeCode, key.RotateValue,
	)

	c, err := scanCounter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sequence.ErrCounterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get counter: %w", err)
	}
	return c, nil
}

// GetConfig implements sequence.ConfigStore.
func (s *Store) GetConfig(ctx context.Context, tenantCode, typeCode string) (*sequence.Config, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+configColumns+` FROM sys_sequence_configs
		 WHERE tenant_code = ? AND type_code = ?`,
		tenantCode, typeCode,
	)

	cfg, err := scanConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sequence.ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	return cfg, nil
}

// ListConfigs implements sequence.ConfigWriter.
func (s *Store) ListConfigs(ctx context.Context, tenantCode string) ([]sequence.Config, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+configColumns+` FROM sys_sequence_configs
		 WHERE tenant_code = ? ORDER BY type_code`,
		tenantCode,
	)
	if err != nil {
		return nil, fmt.Errorf("listing configs: %w", err)
	}
	defer rows.Close()

	list := make([]sequence.Config, 0)
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning config: %w", err)
		}
		list = append(list, *cfg)
	}
	return list, rows.Err()
}

// PutConfig implements sequence.ConfigWriter.
func (s *Store) PutConfig(ctx context.Context, cfg sequence.Config) error {
	var registerDate sql.NullString
	if cfg.RegisterDate != nil {
		registerDate = sql.NullString{String: cfg.RegisterDate.UTC().Format(timeFormat), Valid: true}
	}
	updatedAt := cfg.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sys_sequence_configs (`+configColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (tenant_code, type_code) DO UPDATE SET
			format = excluded.format,
			start_month = excluded.start_month,
			register_date = excluded.register_date,
			updated_at = excluded.updated_at`,
		cfg.TenantCode, cfg.TypeCode, cfg.Format, cfg.StartMonth, registerDate,
		updatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("upserting config: %w", err)
	}
	return nil
}

// DeleteConfig implements sequence.ConfigWriter.
func (s *Store) DeleteConfig(ctx context.Context, tenantCode, typeCode string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sys_sequence_configs WHERE tenant_code = ? AND type_code = ?`,
		tenantCode, typeCode,
	)
	if err != nil {
		return fmt.Errorf("deleting config: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting config: %w", err)
	}
	if n == 0 {
		return sequence.ErrConfigNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCounter(row scanner) (*sequence.Counter, error) {
	var (
		c                    sequence.Counter
		createdAt, updatedAt string
	)
	err := row.Scan(
		&c.TenantCode, &c.TypeCode, &c.RotateValue, &c.RotateBy, &c.Count, &c.RequestID,
		&createdAt, &c.CreatedBy, &c.CreatedIP,
		&updatedAt, &c.UpdatedBy, &c.UpdatedIP,
	)
	if err != nil {
		return nil, err
	}

	if c.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &c, nil
}

func scanConfig(row scanner) (*sequence.Config, error) {
	var (
		cfg          sequence.Config
		registerDate sql.NullString
		updatedAt    string
	)
	err := row.Scan(&cfg.TenantCode, &cfg.TypeCode, &cfg.Format, &cfg.StartMonth, &registerDate, &updatedAt)
	if err != nil {
		return nil, err
	}

	if registerDate.Valid {
		t, err := time.Parse(timeFormat, registerDate.String)
		if err != nil {
			return nil, fmt.Errorf("parsing register_date: %w", err)
		}
		cfg.RegisterDate = &t
	}
	if cfg.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &cfg, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"sequencer/internal/core/sequence"
)

const countersTable = "sys_sequences"

var counterColumns = ExtractDBColumns[sequence.Counter]()

// incrementSQL creates the row with seq=1 or bumps it by one in a single
// statement. Row-level locking inside PostgreSQL serializes concurrent
// callers on the same key; no two of them can read the same seq.
var incrementSQL = `
INSERT INTO ` + countersTable + ` (
	tenant_code, type_code, rotate_value, rotate_by, seq, request_id,
	created_at, created_by, created_ip, updated_at, updated_by, updated_ip
)
VALUES ($1, $2, $3, $4, 1, $5, $6, $7, $8, $6, $7, $8)
ON CONFLICT (tenant_code, type_code, rotate_value) DO UPDATE SET
	seq        = ` + countersTable + `.seq + 1,
	rotate_by  = EXCLUDED.rotate_by,
	request_id = EXCLUDED.request_id,
	updated_at = EXCLUDED.updated_at,
	updated_by = EXCLUDED.updated_by,
	updated_ip = EXCLUDED.updated_ip
RETURNING ` + strings.Join(counterColumns, ", ")

// RowQuerier is the subset of pgx used by CounterStore.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CounterStore implements sequence.CounterStore on PostgreSQL.
type CounterStore struct {
	db     RowQuerier
	getSQL string
}

var _ sequence.CounterStore = (*CounterStore)(nil)

// NewCounterStore creates a counter store. db is usually the pool; counters
// are deliberately kept outside caller transactions.
func NewCounterStore(db RowQuerier) *CounterStore {
	getSQL, _, err := sq.Select(counterColumns...).
		From(countersTable).
		Where(sq.And{
			sq.Eq{"tenant_code": ""},
			sq.Eq{"type_code": ""},
			sq.Eq{"rotate_value": ""},
		}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		panic(fmt.Sprintf("build counter select: %v", err))
	}
	return &CounterStore{db: db, getSQL: getSQL}
}

// Increment implements sequence.CounterStore.
func (s *CounterStore) Increment(ctx context.Context, key sequence.Key, stamp sequence.Stamp) (*sequence.Counter, error) {
	row := s.db.QueryRow(ctx, incrementSQL,
		key.TenantCode,
		key.TypeCode,
		key.RotateValue,
		string(stamp.RotateBy.OrNone()),
		stamp.RequestID,
		stamp.At,
		stamp.UserID,
		stamp.SourceIP,
	)

	counter, err := scanCounter(row)
	if err != nil {
		return nil, fmt.Errorf("increment counter: %w", err)
	}
	return counter, nil
}

// Get implements sequence.CounterStore.
func (s *CounterStore) Get(ctx context.Context, key sequence.Key) (*sequence.Counter, error) {
	row := s.db.QueryRow(ctx, s.getSQL, key.TenantCode, key.TypeCode, key.RotateValue)

	counter, err := scanCounter(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sequence.ErrCounterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get counter: %w", err)
	}
	return counter, nil
}

// scanCounter reads one row in counterColumns order.
func scanCounter(row pgx.Row) (*sequence.Counter, error) {
	var c sequence.Counter
	err := row.Scan(
		&c.TenantCode,
		&c.TypeCode,
		&c.RotateValue,
		&c.RotateBy,
		&c.Count,
		&c.RequestID,
		&c.CreatedAt,
		&c.CreatedBy,
		&c.CreatedIP,
		&c.UpdatedAt,
		&c.UpdatedBy,
		&c.UpdatedIP,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

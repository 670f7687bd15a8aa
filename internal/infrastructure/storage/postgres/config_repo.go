package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"sequencer/internal/core/sequence"
	"sequencer/internal/core/tenant"
)

const configsTable = "sys_sequence_configs"

// ConfigChangedChannel is the NOTIFY channel announcing config writes.
// The payload is "tenant#type".
const ConfigChangedChannel = "sequence_config_changed"

var configColumns = ExtractDBColumns[sequence.Config]()

// ConfigRepo implements sequence.ConfigWriter on PostgreSQL.
type ConfigRepo struct {
	txm     *TxManager
	builder sq.StatementBuilderType
}

var _ sequence.ConfigWriter = (*ConfigRepo)(nil)

// NewConfigRepo creates a config repository.
func NewConfigRepo(txm *TxManager) *ConfigRepo {
	return &ConfigRepo{
		txm:     txm,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetConfig implements sequence.ConfigStore.
func (r *ConfigRepo) GetConfig(ctx context.Context, tenantCode, typeCode string) (*sequence.Config, error) {
	query, args, err := r.selectConfigs().
		Where(sq.Eq{"tenant_code": tenantCode}).
		Where(sq.Eq{"type_code": typeCode}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var cfg sequence.Config
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &cfg, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, sequence.ErrConfigNotFound
		}
		return nil, fmt.Errorf("get config: %w", err)
	}
	return &cfg, nil
}

// ListConfigs implements sequence.ConfigWriter.
func (r *ConfigRepo) ListConfigs(ctx context.Context, tenantCode string) ([]sequence.Config, error) {
	query, args, err := r.selectConfigs().
		Where(sq.Eq{"tenant_code": tenantCode}).
		OrderBy("type_code").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	list := make([]sequence.Config, 0)
	err = r.txm.ReadOnly(ctx, func(ctx context.Context) error {
		return pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &list, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}
	return list, nil
}

// PutConfig implements sequence.ConfigWriter. The upsert and its change
// notification commit together.
func (r *ConfigRepo) PutConfig(ctx context.Context, cfg sequence.Config) error {
	query, args, err := r.buildUpsert(cfg)
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txm.GetQuerier(ctx)
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert config: %w", err)
		}
		return r.notify(ctx, cfg.TenantCode, cfg.TypeCode)
	})
}

// DeleteConfig implements sequence.ConfigWriter.
func (r *ConfigRepo) DeleteConfig(ctx context.Context, tenantCode, typeCode string) error {
	query, args, err := r.builder.Delete(configsTable).
		Where(sq.Eq{"tenant_code": tenantCode}).
		Where(sq.Eq{"type_code": typeCode}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("delete config: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return sequence.ErrConfigNotFound
		}
		return r.notify(ctx, tenantCode, typeCode)
	})
}

func (r *ConfigRepo) selectConfigs() sq.SelectBuilder {
	return r.builder.Select(configColumns...).From(configsTable)
}

func (r *ConfigRepo) buildUpsert(cfg sequence.Config) (string, []any, error) {
	return r.builder.Insert(configsTable).
		SetMap(StructToMap(cfg)).
		Suffix(`ON CONFLICT (tenant_code, type_code) DO UPDATE SET
			format = EXCLUDED.format,
			start_month = EXCLUDED.start_month,
			register_date = EXCLUDED.register_date,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
}

// notify queues a NOTIFY that PostgreSQL delivers on commit.
func (r *ConfigRepo) notify(ctx context.Context, tenantCode, typeCode string) error {
	payload := tenantCode + tenant.KeySeparator + typeCode
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, "SELECT pg_notify($1, $2)", ConfigChangedChannel, payload); err != nil {
		return fmt.Errorf("notify config change: %w", err)
	}
	return nil
}

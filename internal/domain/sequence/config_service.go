package sequence

import (
	"context"
	"errors"
	"time"

	"sequencer/internal/core/apperror"
	core "sequencer/internal/core/sequence"
	"sequencer/pkg/logger"
	"sequencer/pkg/numerator"
)

// ConfigService manages per-type configuration.
// Every write drops the matching entry of the provider cache.
type ConfigService struct {
	store    core.ConfigWriter
	provider *ConfigProvider
	now      func() time.Time
}

// NewConfigService creates a config service. provider may be nil.
func NewConfigService(store core.ConfigWriter, provider *ConfigProvider) *ConfigService {
	return &ConfigService{store: store, provider: provider, now: time.Now}
}

// Get returns the stored config of a type. Unlike ConfigProvider.GetConfig
// it reports a missing config as not found instead of falling back.
func (s *ConfigService) Get(ctx context.Context, tenantCode, typeCode string) (*core.Config, error) {
	if err := validateCode("typeCode", typeCode); err != nil {
		return nil, err
	}
	cfg, err := s.store.GetConfig(ctx, tenantCode, typeCode)
	if err != nil {
		return nil, mapConfigErr(err, tenantCode, typeCode)
	}
	return cfg, nil
}

// List returns every config of a tenant.
func (s *ConfigService) List(ctx context.Context, tenantCode string) ([]core.Config, error) {
	if err := validateCode("tenantCode", tenantCode); err != nil {
		return nil, err
	}
	list, err := s.store.ListConfigs(ctx, tenantCode)
	if err != nil {
		return nil, apperror.NewUnavailable("sequence config store unavailable", err)
	}
	return list, nil
}

// Put validates and stores cfg, returning the stored version.
func (s *ConfigService) Put(ctx context.Context, cfg core.Config) (*core.Config, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	cfg = cfg.Normalize()
	cfg.UpdatedAt = s.now().UTC()

	if err := s.store.PutConfig(ctx, cfg); err != nil {
		return nil, apperror.NewUnavailable("sequence config store unavailable", err)
	}
	s.invalidate(cfg.TenantCode, cfg.TypeCode)

	logger.Info(ctx, "sequence config saved", "type_code", cfg.TypeCode, "format", cfg.Format)
	return &cfg, nil
}

// Delete removes the config of a type; later allocations use the defaults.
func (s *ConfigService) Delete(ctx context.Context, tenantCode, typeCode string) error {
	if err := validateCode("typeCode", typeCode); err != nil {
		return err
	}
	if err := s.store.DeleteConfig(ctx, tenantCode, typeCode); err != nil {
		return mapConfigErr(err, tenantCode, typeCode)
	}
	s.invalidate(tenantCode, typeCode)

	logger.Info(ctx, "sequence config deleted", "type_code", typeCode)
	return nil
}

func (s *ConfigService) invalidate(tenantCode, typeCode string) {
	if s.provider != nil {
		s.provider.Invalidate(tenantCode, typeCode)
	}
}

func validateConfig(cfg core.Config) error {
	if err := validateCode("tenantCode", cfg.TenantCode); err != nil {
		return err
	}
	if err := validateCode("typeCode", cfg.TypeCode); err != nil {
		return err
	}
	if cfg.Format == "" {
		return apperror.NewInvalidField("format", "format is required")
	}
	if cfg.StartMonth != 0 && numerator.NormalizeStartMonth(cfg.StartMonth) != cfg.StartMonth {
		return apperror.NewInvalidField("startMonth", "startMonth must be between 1 and 12")
	}
	return nil
}

func mapConfigErr(err error, tenantCode, typeCode string) error {
	if errors.Is(err, core.ErrConfigNotFound) {
		return apperror.NewNotFound("sequence config", CacheKey(tenantCode, typeCode))
	}
	return apperror.NewUnavailable("sequence config store unavailable", err)
}

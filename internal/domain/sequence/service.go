// Package sequence implements number allocation on top of the core contracts.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sequencer/internal/core/apperror"
	appctx "sequencer/internal/core/context"
	core "sequencer/internal/core/sequence"
	"sequencer/internal/core/tenant"
	"sequencer/pkg/logger"
	"sequencer/pkg/numerator"
)

// Service allocates sequence numbers.
// It keeps no per-request state: every call is independent and the counter
// store is the only shared mutable resource.
type Service struct {
	counters core.CounterStore
	configs  *ConfigProvider
	observer Observer

	epochYear    int
	location     *time.Location
	storeTimeout time.Duration
	now          func() time.Time
}

// ServiceConfig configures the sequence service.
type ServiceConfig struct {
	Counters core.CounterStore
	Configs  *ConfigProvider
	Observer Observer // Optional

	// EpochYear numbers fiscal years for types without a registration date.
	// Zero means numerator.EpochYear.
	EpochYear int

	// Location is used to read "now" when a request carries no date.
	// Nil means UTC.
	Location *time.Location

	// StoreTimeout bounds each Increment call. Zero disables the bound.
	StoreTimeout time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewService creates a new sequence service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		counters:     cfg.Counters,
		configs:      cfg.Configs,
		observer:     cfg.Observer,
		epochYear:    cfg.EpochYear,
		location:     cfg.Location,
		storeTimeout: cfg.StoreTimeout,
		now:          cfg.Now,
	}
	if s.configs == nil {
		s.configs = NewConfigProvider(nil, core.DefaultConfig())
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.epochYear == 0 {
		s.epochYear = numerator.EpochYear
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Generate allocates the next number of req.TypeCode using the stored
// configuration of the type.
func (s *Service) Generate(ctx context.Context, req core.GenerateRequest) (*core.Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	cfg := s.configs.GetConfig(ctx, req.TenantCode, req.TypeCode)
	return s.allocate(ctx, req, cfg)
}

// GenerateWithSetting allocates the next number using a caller-supplied
// setting instead of the stored configuration. The counter is the same one
// Generate advances.
func (s *Service) GenerateWithSetting(ctx context.Context, req core.GenerateRequest, setting core.Setting) (*core.Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if setting.Format == "" {
		return nil, apperror.NewInvalidField("format", "format is required")
	}
	if setting.StartMonth != 0 && (setting.StartMonth < 1 || setting.StartMonth > 12) {
		return nil, apperror.NewInvalidField("startMonth", "startMonth must be between 1 and 12")
	}

	cfg := core.Config{
		TenantCode:   req.TenantCode,
		TypeCode:     req.TypeCode,
		Format:       setting.Format,
		StartMonth:   setting.StartMonth,
		RegisterDate: setting.RegisterDate,
	}.Normalize()
	return s.allocate(ctx, req, cfg)
}

// Current returns the counter stored under key without changing it.
// An empty RotateValue means the non-rotating bucket.
func (s *Service) Current(ctx context.Context, key core.Key) (*core.Counter, error) {
	if key.RotateValue == "" {
		key.RotateValue = string(numerator.RotateNone)
	}
	if err := validateCode("tenantCode", key.TenantCode); err != nil {
		return nil, err
	}
	if err := validateCode("typeCode", key.TypeCode); err != nil {
		return nil, err
	}

	counter, err := s.counters.Get(ctx, key)
	if errors.Is(err, core.ErrCounterNotFound) {
		return nil, apperror.NewNotFound("sequence", key.ID())
	}
	if err != nil {
		logger.Error(ctx, "sequence lookup failed", "id", key.ID(), "error", err)
		return nil, apperror.NewUnavailable("sequence store unavailable", err).WithDetail("id", key.ID())
	}
	return counter, nil
}

func (s *Service) allocate(ctx context.Context, req core.GenerateRequest, cfg core.Config) (*core.Result, error) {
	date := s.referenceDate(req.Date)
	rotateBy := req.RotateBy.OrNone()

	key := core.Key{
		TenantCode:  req.TenantCode,
		TypeCode:    req.TypeCode,
		RotateValue: numerator.RotationKey(rotateBy, date, cfg.StartMonth),
	}
	stamp := core.Stamp{
		At:        s.now().UTC(),
		UserID:    appctx.GetActor(ctx),
		SourceIP:  appctx.GetClientIP(ctx),
		RequestID: appctx.GetRequestID(ctx),
		RotateBy:  rotateBy,
	}

	counter, err := s.increment(ctx, key, stamp)
	if err != nil {
		logger.Error(ctx, "sequence increment failed",
			"id", key.ID(),
			"rotate_by", rotateBy,
			"error", err,
		)
		return nil, apperror.NewUnavailable("sequence store unavailable", err).WithDetail("id", key.ID())
	}

	formatted := s.render(ctx, cfg, counter.Count, req.Params, date)
	return &core.Result{
		ID:          key.ID(),
		No:          counter.Count,
		FormattedNo: req.Prefix + formatted + req.Postfix,
		IssuedAt:    date,
	}, nil
}

func (s *Service) increment(ctx context.Context, key core.Key, stamp core.Stamp) (*core.Counter, error) {
	if s.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
	}

	start := time.Now()
	counter, err := s.counters.Increment(ctx, key, stamp)
	s.observer.ObserveAllocation(key.TypeCode, string(stamp.RotateBy), err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("increment %s: %w", key.ID(), err)
	}
	if counter == nil {
		return nil, fmt.Errorf("increment %s: store returned no counter", key.ID())
	}
	return counter, nil
}

func (s *Service) render(ctx context.Context, cfg core.Config, no int64, params core.Params, date time.Time) string {
	fiscalYear := cfg.Calendar(s.epochYear).Ordinal(date)
	if fiscalYear < 1 {
		logger.Warn(ctx, "fiscal year ordinal out of range, register date is after the reference date",
			"type_code", cfg.TypeCode,
			"ordinal", fiscalYear,
		)
		s.observer.ObserveDegraded(DegradedFiscalYear)
		fiscalYear = 0
	}

	out, unresolved := numerator.Render(cfg.Format, numerator.Context{
		No:         no,
		Codes:      params.Codes(),
		FiscalYear: fiscalYear,
		Date:       date,
	})
	if len(unresolved) > 0 {
		logger.Warn(ctx, "unresolved placeholders in sequence format",
			"type_code", cfg.TypeCode,
			"format", cfg.Format,
			"placeholders", unresolved,
		)
		s.observer.ObserveDegraded(DegradedUnknownPlaceholder)
	}
	return out
}

// referenceDate returns the caller's date, or now in the service location.
func (s *Service) referenceDate(date *time.Time) time.Time {
	if date != nil && !date.IsZero() {
		return *date
	}
	return s.now().In(s.location)
}

func validateRequest(req core.GenerateRequest) error {
	if err := validateCode("tenantCode", req.TenantCode); err != nil {
		return err
	}
	if err := validateCode("typeCode", req.TypeCode); err != nil {
		return err
	}
	if req.Params.Code1 == "" {
		return apperror.NewInvalidField("params.code1", "params.code1 is required")
	}
	if req.RotateBy != "" && !req.RotateBy.Valid() {
		return apperror.NewInvalidField("rotateBy", fmt.Sprintf("unknown rotation policy %q", req.RotateBy))
	}
	return nil
}

func validateCode(field, code string) error {
	if err := tenant.ValidateCode(code); err != nil {
		return apperror.NewInvalidField(field, fmt.Sprintf("%s: %v", field, err))
	}
	return nil
}

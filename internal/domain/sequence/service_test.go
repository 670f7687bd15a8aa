package sequence

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sequencer/internal/core/apperror"
	appctx "sequencer/internal/core/context"
	core "sequencer/internal/core/sequence"
	"sequencer/pkg/numerator"
)

type recordingObserver struct {
	mu          sync.Mutex
	allocations int
	failures    int
	degraded    []string
}

func (o *recordingObserver) ObserveAllocation(_, _ string, err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.allocations++
	if err != nil {
		o.failures++
	}
}

func (o *recordingObserver) ObserveDegraded(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.degraded = append(o.degraded, reason)
}

var fixedNow = time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC)

func newTestService(backend *core.MemoryBackend, obs Observer) *Service {
	return NewService(ServiceConfig{
		Counters: backend,
		Configs:  NewConfigProvider(backend, core.DefaultConfig(), WithProviderObserver(obs)),
		Observer: obs,
		Now:      func() time.Time { return fixedNow },
	})
}

func todoRequest(rotateBy numerator.RotateBy) core.GenerateRequest {
	return core.GenerateRequest{
		TenantCode: "MBC",
		TypeCode:   "sequence",
		Params:     core.Params{Code1: "TODO"},
		RotateBy:   rotateBy,
	}
}

func TestGenerate_SequentialNumbers(t *testing.T) {
	svc := newTestService(core.NewMemoryBackend(), nil)
	ctx := context.Background()

	first, err := svc.Generate(ctx, todoRequest(numerator.RotateNone))
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.No)
	assert.Equal(t, "1", first.FormattedNo)
	assert.Equal(t, "MBC#sequence#none", first.ID)
	assert.Equal(t, fixedNow, first.IssuedAt)

	second, err := svc.Generate(ctx, todoRequest(numerator.RotateNone))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.No)
	assert.Equal(t, "2", second.FormattedNo)
}

func TestGenerate_MonthlyRotationIsolation(t *testing.T) {
	svc := newTestService(core.NewMemoryBackend(), nil)
	ctx := context.Background()

	june := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)
	july := time.Date(2024, time.July, 3, 0, 0, 0, 0, time.UTC)

	req := todoRequest(numerator.RotateMonthly)
	req.Date = &june
	a, err := svc.Generate(ctx, req)
	require.NoError(t, err)

	req.Date = &july
	b, err := svc.Generate(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.No)
	assert.Equal(t, int64(1), b.No)
	assert.Equal(t, "MBC#sequence#202406", a.ID)
	assert.Equal(t, "MBC#sequence#202407", b.ID)

	req.Date = &june
	c, err := svc.Generate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.No)
}

func TestGenerate_UsesStoredConfig(t *testing.T) {
	backend := core.NewMemoryBackend()
	ctx := context.Background()
	register := time.Date(2020, time.May, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, backend.PutConfig(ctx, core.Config{
		TenantCode:   "MBC",
		TypeCode:     "invoice",
		Format:       "%%code1%%-%%fiscal_year%%-%%no#:0>5%%",
		StartMonth:   4,
		RegisterDate: &register,
	}))
	svc := newTestService(backend, nil)

	date := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	req := core.GenerateRequest{
		TenantCode: "MBC",
		TypeCode:   "invoice",
		Params:     core.Params{Code1: "INV"},
		RotateBy:   numerator.RotateFiscalYearly,
		Date:       &date,
		Prefix:     "<",
		Postfix:    ">",
	}

	res, err := svc.Generate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "MBC#invoice#2023", res.ID)
	assert.Equal(t, "<INV-4-00001>", res.FormattedNo)
	assert.Equal(t, date, res.IssuedAt)
}

func TestGenerate_FiscalBoundary(t *testing.T) {
	svc := newTestService(core.NewMemoryBackend(), nil)
	ctx := context.Background()

	before := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
	after := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	req := todoRequest(numerator.RotateFiscalYearly)
	req.Date = &before
	a, err := svc.Generate(ctx, req)
	require.NoError(t, err)

	req.Date = &after
	b, err := svc.Generate(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "MBC#sequence#2023", a.ID)
	assert.Equal(t, "MBC#sequence#2024", b.ID)
	assert.Equal(t, int64(1), b.No)
}

func TestGenerate_ValidationDoesNotTouchStore(t *testing.T) {
	calls := 0
	store := &core.MockCounterStore{
		IncrementFunc: func(ctx context.Context, key core.Key, stamp core.Stamp) (*core.Counter, error) {
			calls++
			return &core.Counter{Count: 1}, nil
		},
	}
	svc := NewService(ServiceConfig{Counters: store})
	ctx := context.Background()

	tests := []struct {
		name  string
		mod   func(r *core.GenerateRequest)
		field string
	}{
		{"missing code1", func(r *core.GenerateRequest) { r.Params.Code1 = "" }, "params.code1"},
		{"unknown rotation", func(r *core.GenerateRequest) { r.RotateBy = "weekly" }, "rotateBy"},
		{"missing type", func(r *core.GenerateRequest) { r.TypeCode = "" }, "typeCode"},
		{"separator in tenant", func(r *core.GenerateRequest) { r.TenantCode = "a#b" }, "tenantCode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := todoRequest(numerator.RotateNone)
			tt.mod(&req)

			_, err := svc.Generate(ctx, req)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
	assert.Zero(t, calls)
}

func TestGenerate_StoreFailureIsRetryable(t *testing.T) {
	obs := &recordingObserver{}
	store := &core.MockCounterStore{
		IncrementFunc: func(ctx context.Context, key core.Key, stamp core.Stamp) (*core.Counter, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewService(ServiceConfig{Counters: store, Observer: obs})

	_, err := svc.Generate(context.Background(), todoRequest(numerator.RotateNone))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnavailable, appErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.HTTPStatus)
	assert.True(t, appErr.Retryable())
	assert.Equal(t, "MBC#sequence#none", appErr.Details["id"])
	assert.Equal(t, 1, obs.failures)
}

func TestGenerate_StoreTimeout(t *testing.T) {
	store := &core.MockCounterStore{
		IncrementFunc: func(ctx context.Context, key core.Key, stamp core.Stamp) (*core.Counter, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	svc := NewService(ServiceConfig{Counters: store, StoreTimeout: 10 * time.Millisecond})

	_, err := svc.Generate(context.Background(), todoRequest(numerator.RotateNone))
	require.Error(t, err)
	assert.True(t, apperror.IsRetryable(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerate_ConfigFailureDegrades(t *testing.T) {
	obs := &recordingObserver{}
	configs := &core.MockConfigStore{
		GetConfigFunc: func(ctx context.Context, tenantCode, typeCode string) (*core.Config, error) {
			return nil, errors.New("timeout")
		},
	}
	svc := NewService(ServiceConfig{
		Counters: core.NewMemoryBackend(),
		Configs:  NewConfigProvider(configs, core.DefaultConfig(), WithProviderObserver(obs)),
		Observer: obs,
	})

	res, err := svc.Generate(context.Background(), todoRequest(numerator.RotateNone))
	require.NoError(t, err)
	assert.Equal(t, "1", res.FormattedNo)
	assert.Equal(t, []string{DegradedConfigLookup}, obs.degraded)
}

func TestGenerate_UnknownPlaceholderDegrades(t *testing.T) {
	obs := &recordingObserver{}
	svc := newTestService(core.NewMemoryBackend(), obs)

	res, err := svc.GenerateWithSetting(context.Background(), todoRequest(numerator.RotateNone), core.Setting{
		Format: "%%bogus%%-%%no%%",
	})
	require.NoError(t, err)
	assert.Equal(t, "-1", res.FormattedNo)
	assert.Contains(t, obs.degraded, DegradedUnknownPlaceholder)
}

func TestGenerate_FutureRegisterDateClampsFiscalYear(t *testing.T) {
	obs := &recordingObserver{}
	svc := newTestService(core.NewMemoryBackend(), obs)
	register := time.Date(2030, time.May, 1, 0, 0, 0, 0, time.UTC)

	res, err := svc.GenerateWithSetting(context.Background(), todoRequest(numerator.RotateNone), core.Setting{
		Format:       "%%fiscal_year%%/%%no%%",
		RegisterDate: &register,
	})
	require.NoError(t, err)
	assert.Equal(t, "0/1", res.FormattedNo)
	assert.Contains(t, obs.degraded, DegradedFiscalYear)
}

func TestGenerateWithSetting_SharesCounter(t *testing.T) {
	svc := newTestService(core.NewMemoryBackend(), nil)
	ctx := context.Background()

	_, err := svc.Generate(ctx, todoRequest(numerator.RotateNone))
	require.NoError(t, err)

	res, err := svc.GenerateWithSetting(ctx, todoRequest(numerator.RotateNone), core.Setting{Format: "%%code1%%-%%no%%"})
	require.NoError(t, err)
	assert.Equal(t, "TODO-2", res.FormattedNo)

	_, err = svc.GenerateWithSetting(ctx, todoRequest(numerator.RotateNone), core.Setting{})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.GenerateWithSetting(ctx, todoRequest(numerator.RotateNone), core.Setting{Format: "x", StartMonth: 13})
	assert.True(t, apperror.IsValidation(err))
}

func TestGenerate_StampsAuditInfo(t *testing.T) {
	var got core.Stamp
	store := &core.MockCounterStore{
		IncrementFunc: func(ctx context.Context, key core.Key, stamp core.Stamp) (*core.Counter, error) {
			got = stamp
			return &core.Counter{Count: 5}, nil
		},
	}
	svc := NewService(ServiceConfig{Counters: store, Now: func() time.Time { return fixedNow }})

	ctx := appctx.WithTrace(context.Background(), &appctx.TraceContext{RequestID: "req-1", ClientIP: "10.0.0.1"})
	_, err := svc.Generate(ctx, todoRequest(numerator.RotateDaily))
	require.NoError(t, err)
	assert.Equal(t, appctx.SystemUser, got.UserID)
	assert.Equal(t, "10.0.0.1", got.SourceIP)
	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, numerator.RotateDaily, got.RotateBy)
	assert.Equal(t, fixedNow, got.At)

	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "alice"})
	_, err = svc.Generate(ctx, todoRequest(numerator.RotateDaily))
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserID)
}

func TestGenerate_ConcurrentNoDuplicates(t *testing.T) {
	svc := newTestService(core.NewMemoryBackend(), nil)
	ctx := context.Background()

	const n = 200
	results := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Generate(ctx, todoRequest(numerator.RotateNone))
			if err == nil {
				results <- res.No
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, n)
	for no := range results {
		assert.False(t, seen[no], "duplicate number %d", no)
		seen[no] = true
	}
	assert.Len(t, seen, n)
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "missing number %d", i)
	}
}

func TestCurrent(t *testing.T) {
	backend := core.NewMemoryBackend()
	svc := newTestService(backend, nil)
	ctx := context.Background()

	_, err := svc.Current(ctx, core.Key{TenantCode: "MBC", TypeCode: "sequence"})
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.Generate(ctx, todoRequest(numerator.RotateNone))
	require.NoError(t, err)

	c, err := svc.Current(ctx, core.Key{TenantCode: "MBC", TypeCode: "sequence"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.Count)
	assert.Equal(t, "none", c.RotateValue)

	// Current never advances the counter
	c, err = svc.Current(ctx, core.Key{TenantCode: "MBC", TypeCode: "sequence", RotateValue: "none"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.Count)
}

func TestCurrent_StoreFailure(t *testing.T) {
	store := &core.MockCounterStore{
		GetFunc: func(ctx context.Context, key core.Key) (*core.Counter, error) {
			return nil, errors.New("closed")
		},
	}
	svc := NewService(ServiceConfig{Counters: store})

	_, err := svc.Current(context.Background(), core.Key{TenantCode: "MBC", TypeCode: "sequence"})
	assert.True(t, apperror.IsRetryable(err))
}

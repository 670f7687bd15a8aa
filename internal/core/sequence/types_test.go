package sequence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sequencer/pkg/numerator"
)

func TestKeyID(t *testing.T) {
	k := Key{TenantCode: "MBC", TypeCode: "invoice", RotateValue: "2024"}
	assert.Equal(t, "MBC#invoice#2024", k.ID())

	c := &Counter{TenantCode: "MBC", TypeCode: "invoice", RotateValue: "2024"}
	assert.Equal(t, k, c.Key())
}

func TestConfigNormalize(t *testing.T) {
	cfg := Config{TypeCode: "invoice", StartMonth: 0}.Normalize()
	assert.Equal(t, numerator.DefaultFormat, cfg.Format)
	assert.Equal(t, numerator.DefaultStartMonth, cfg.StartMonth)

	cfg = Config{Format: "%%code1%%", StartMonth: 7}.Normalize()
	assert.Equal(t, "%%code1%%", cfg.Format)
	assert.Equal(t, 7, cfg.StartMonth)

	def := DefaultConfig()
	assert.Equal(t, DefaultTypeCode, def.TypeCode)
	assert.Equal(t, "%%no%%", def.Format)
	assert.Equal(t, 4, def.StartMonth)
}

func TestParamsCodes(t *testing.T) {
	p := Params{Code1: "a", Code3: "c", Code5: "e"}
	assert.Equal(t, [5]string{"a", "", "c", "", "e"}, p.Codes())
}

func TestMemoryBackend_IncrementConcurrent(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	key := Key{TenantCode: "MBC", TypeCode: "invoice", RotateValue: "none"}

	const n = 100
	seen := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := b.Increment(ctx, key, Stamp{At: time.Now(), UserID: "u"})
			if err == nil {
				seen[i] = c.Count
			}
		}(i)
	}
	wg.Wait()

	assert.ElementsMatch(t, rangeInt64(1, n), seen)

	c, err := b.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(n), c.Count)
}

func TestMemoryBackend_Configs(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	_, err := b.GetConfig(ctx, "MBC", "invoice")
	assert.ErrorIs(t, err, ErrConfigNotFound)

	require.NoError(t, b.PutConfig(ctx, Config{TenantCode: "MBC", TypeCode: "quote", Format: "Q%%no%%"}))
	require.NoError(t, b.PutConfig(ctx, Config{TenantCode: "MBC", TypeCode: "invoice", Format: "I%%no%%"}))
	require.NoError(t, b.PutConfig(ctx, Config{TenantCode: "OTHER", TypeCode: "invoice"}))

	list, err := b.ListConfigs(ctx, "MBC")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "invoice", list[0].TypeCode)
	assert.Equal(t, "quote", list[1].TypeCode)

	require.NoError(t, b.DeleteConfig(ctx, "MBC", "quote"))
	assert.ErrorIs(t, b.DeleteConfig(ctx, "MBC", "quote"), ErrConfigNotFound)
}

func rangeInt64(from, to int64) []int64 {
	out := make([]int64, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

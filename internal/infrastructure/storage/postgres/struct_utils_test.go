package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sequencer/internal/core/sequence"
)

type AuditFields struct {
	UpdatedBy string `db:"updated_by"`
}

type withEmbedded struct {
	AuditFields
	Code    string `db:"code"`
	Ignored string `db:"-"`
	NoTag   string
}

func TestExtractDBColumns_Counter(t *testing.T) {
	assert.Equal(t, []string{
		"tenant_code", "type_code", "rotate_value", "rotate_by", "seq", "request_id",
		"created_at", "created_by", "created_ip", "updated_at", "updated_by", "updated_ip",
	}, ExtractDBColumns[sequence.Counter]())
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	assert.Equal(t, []string{"updated_by", "code"}, ExtractDBColumns[withEmbedded]())
	assert.Equal(t, []string{"updated_by", "code"}, ExtractDBColumns[*withEmbedded]())
}

func TestStructToMap_Config(t *testing.T) {
	now := time.Now().UTC()
	cfg := sequence.Config{
		TenantCode:   "MBC",
		TypeCode:     "invoice",
		Format:       "%%no%%",
		StartMonth:   4,
		RegisterDate: &now,
		UpdatedAt:    now,
	}

	m := StructToMap(cfg)

	assert.Len(t, m, 6)
	assert.Equal(t, "MBC", m["tenant_code"])
	assert.Equal(t, "invoice", m["type_code"])
	assert.Equal(t, 4, m["start_month"])
	assert.Equal(t, &now, m["register_date"])
	assert.Equal(t, m, StructToMap(&cfg))
}

func TestStructToMap_Embedded(t *testing.T) {
	m := StructToMap(withEmbedded{AuditFields: AuditFields{UpdatedBy: "alice"}, Code: "X", Ignored: "y"})
	assert.Equal(t, map[string]any{"updated_by": "alice", "code": "X"}, m)
	assert.Nil(t, StructToMap(42))
}

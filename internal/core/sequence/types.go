// Package sequence provides domain contracts for tenant-scoped sequence numbering.
package sequence

import (
	"strings"
	"time"

	"sequencer/internal/core/tenant"
	"sequencer/pkg/numerator"
)

// DefaultTypeCode names the process-wide fallback configuration.
const DefaultTypeCode = "sequence"

// Params are the caller-supplied code values a format template can reference.
// They affect rendering only, never the counter identity.
type Params struct {
	Code1 string `json:"code1"`
	Code2 string `json:"code2,omitempty"`
	Code3 string `json:"code3,omitempty"`
	Code4 string `json:"code4,omitempty"`
	Code5 string `json:"code5,omitempty"`
}

// Codes returns the params in placeholder order.
func (p Params) Codes() [5]string {
	return [5]string{p.Code1, p.Code2, p.Code3, p.Code4, p.Code5}
}

// Key identifies one counter.
type Key struct {
	TenantCode  string
	TypeCode    string
	RotateValue string
}

// ID renders the key as "tenant#typeCode#rotateValue".
func (k Key) ID() string {
	return strings.Join([]string{k.TenantCode, k.TypeCode, k.RotateValue}, tenant.KeySeparator)
}

// Stamp is the audit information written alongside an increment.
type Stamp struct {
	At        time.Time
	UserID    string
	SourceIP  string
	RequestID string
	RotateBy  numerator.RotateBy
}

// Counter is the persisted state of one sequence partition.
type Counter struct {
	TenantCode  string    `db:"tenant_code" json:"tenantCode"`
	TypeCode    string    `db:"type_code" json:"typeCode"`
	RotateValue string    `db:"rotate_value" json:"rotateValue"`
	RotateBy    string    `db:"rotate_by" json:"rotateBy"`
	Count       int64     `db:"seq" json:"no"`
	RequestID   string    `db:"request_id" json:"requestId"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	CreatedBy   string    `db:"created_by" json:"createdBy"`
	CreatedIP   string    `db:"created_ip" json:"createdIp"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
	UpdatedBy   string    `db:"updated_by" json:"updatedBy"`
	UpdatedIP   string    `db:"updated_ip" json:"updatedIp"`
}

// Key returns the counter identity.
func (c *Counter) Key() Key {
	return Key{TenantCode: c.TenantCode, TypeCode: c.TypeCode, RotateValue: c.RotateValue}
}

// Config describes how numbers of one type are rendered.
type Config struct {
	TenantCode   string     `db:"tenant_code" json:"tenantCode"`
	TypeCode     string     `db:"type_code" json:"typeCode"`
	Format       string     `db:"format" json:"format"`
	StartMonth   int        `db:"start_month" json:"startMonth"`
	RegisterDate *time.Time `db:"register_date" json:"registerDate,omitempty"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// DefaultConfig returns the configuration used when a type has none.
func DefaultConfig() Config {
	return Config{
		TypeCode:   DefaultTypeCode,
		Format:     numerator.DefaultFormat,
		StartMonth: numerator.DefaultStartMonth,
	}
}

// Normalize fills an empty format and repairs an out-of-range start month.
func (c Config) Normalize() Config {
	if c.Format == "" {
		c.Format = numerator.DefaultFormat
	}
	c.StartMonth = numerator.NormalizeStartMonth(c.StartMonth)
	return c
}

// Calendar returns the fiscal calendar of the type.
func (c Config) Calendar(epochYear int) numerator.FiscalCalendar {
	return numerator.FiscalCalendar{
		StartMonth:   c.StartMonth,
		EpochYear:    epochYear,
		RegisterDate: c.RegisterDate,
	}
}

// GenerateRequest asks for the next number of a sequence type.
type GenerateRequest struct {
	TenantCode string
	TypeCode   string
	Params     Params
	RotateBy   numerator.RotateBy

	// Date selects the rotation bucket. Nil means now.
	Date *time.Time

	// Prefix and Postfix are wrapped around the rendered number.
	Prefix  string
	Postfix string
}

// Setting replaces the stored configuration for a single allocation.
type Setting struct {
	Format       string
	StartMonth   int
	RegisterDate *time.Time
}

// Result is one allocated number.
type Result struct {
	ID          string    `json:"id"`
	No          int64     `json:"no"`
	FormattedNo string    `json:"formattedNo"`
	IssuedAt    time.Time `json:"issuedAt"`
}

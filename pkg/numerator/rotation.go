// Package numerator provides the pure building blocks of document numbering:
// rotation buckets, fiscal calendar arithmetic and number format templates.
//
// Nothing in this package performs I/O. Counter state lives behind
// sequence.CounterStore in the infrastructure layer.
package numerator

import (
	"fmt"
	"strings"
	"time"
)

// RotateBy defines how often a counter starts over in a fresh bucket.
type RotateBy string

const (
	// RotateNone never resets: one counter for the lifetime of the type.
	RotateNone RotateBy = "none"

	// RotateDaily resets every calendar day (bucket "20240615").
	RotateDaily RotateBy = "daily"

	// RotateMonthly resets every calendar month (bucket "202406").
	RotateMonthly RotateBy = "monthly"

	// RotateYearly resets every calendar year (bucket "2024").
	RotateYearly RotateBy = "yearly"

	// RotateFiscalYearly resets at the start of every fiscal year (bucket "2023").
	RotateFiscalYearly RotateBy = "fiscal_yearly"
)

// RotateValues lists every supported policy in a stable order.
func RotateValues() []RotateBy {
	return []RotateBy{RotateNone, RotateDaily, RotateMonthly, RotateYearly, RotateFiscalYearly}
}

// ParseRotateBy converts caller input to a RotateBy.
// An empty string means RotateNone. Matching is case-insensitive so that
// "FISCAL_YEARLY" and "fiscal_yearly" are the same policy.
func ParseRotateBy(s string) (RotateBy, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RotateNone, nil
	}
	candidate := RotateBy(strings.ToLower(s))
	if candidate.Valid() {
		return candidate, nil
	}
	return RotateNone, fmt.Errorf("unknown rotation policy %q", s)
}

// Valid reports whether r is one of the supported policies.
func (r RotateBy) Valid() bool {
	switch r {
	case RotateNone, RotateDaily, RotateMonthly, RotateYearly, RotateFiscalYearly:
		return true
	}
	return false
}

// OrNone returns r, or RotateNone when r is empty or unknown.
func (r RotateBy) OrNone() RotateBy {
	if r.Valid() {
		return r
	}
	return RotateNone
}

// RotationKey returns the bucket string identifying the period that date
// falls into under the given policy. Unknown or empty policies map to "none".
//
// startMonth is only consulted for RotateFiscalYearly.
func RotationKey(rotateBy RotateBy, date time.Time, startMonth int) string {
	switch rotateBy {
	case RotateFiscalYearly:
		return fmt.Sprintf("%04d", FiscalYearOf(date, startMonth))
	case RotateYearly:
		return date.Format("2006")
	case RotateMonthly:
		return date.Format("200601")
	case RotateDaily:
		return date.Format("20060102")
	default:
		return string(RotateNone)
	}
}

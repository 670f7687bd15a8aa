package numerator

import "time"

const (
	// EpochYear is the organization epoch used to number fiscal years when a
	// sequence type has no registration date: fiscal year EpochYear is ordinal 1.
	EpochYear = 1953

	// DefaultStartMonth is April, the first month of the default fiscal year.
	DefaultStartMonth = 4
)

// FiscalCalendar numbers fiscal years for one sequence type.
type FiscalCalendar struct {
	// StartMonth is the first month (1-12) of the fiscal year.
	// Values outside 1..12 fall back to DefaultStartMonth.
	StartMonth int

	// EpochYear is the fiscal year label numbered 1 when RegisterDate is nil.
	// Zero means the package EpochYear.
	EpochYear int

	// RegisterDate re-bases numbering: its fiscal year becomes ordinal 1.
	RegisterDate *time.Time
}

// NormalizeStartMonth returns m when it is a valid month, DefaultStartMonth otherwise.
func NormalizeStartMonth(m int) int {
	if m < 1 || m > 12 {
		return DefaultStartMonth
	}
	return m
}

// FiscalYearOf returns the label of the fiscal year containing date: the
// calendar year in which that fiscal year begins. The 1st of startMonth
// already belongs to the new fiscal year.
func FiscalYearOf(date time.Time, startMonth int) int {
	if int(date.Month()) < NormalizeStartMonth(startMonth) {
		return date.Year() - 1
	}
	return date.Year()
}

// FiscalYearOrdinal is FiscalCalendar{StartMonth: startMonth, RegisterDate: registerDate}.Ordinal(now).
func FiscalYearOrdinal(now time.Time, startMonth int, registerDate *time.Time) int {
	return FiscalCalendar{StartMonth: startMonth, RegisterDate: registerDate}.Ordinal(now)
}

// YearOf returns the fiscal year label of date.
func (c FiscalCalendar) YearOf(date time.Time) int {
	return FiscalYearOf(date, c.StartMonth)
}

// Ordinal returns the display number of the fiscal year containing now.
//
// Without a registration date it counts from the epoch year. With one, it
// counts from the fiscal year the registration date falls in. A registration
// date later than now yields a value <= 0; callers decide how to present it.
func (c FiscalCalendar) Ordinal(now time.Time) int {
	base := c.EpochYear
	if base == 0 {
		base = EpochYear
	}
	if c.RegisterDate != nil && !c.RegisterDate.IsZero() {
		base = c.YearOf(*c.RegisterDate)
	}
	return c.YearOf(now) - base + 1
}

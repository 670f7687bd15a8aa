package sequence

import "time"

// Degradation reasons reported to the Observer.
const (
	DegradedConfigLookup       = "config_lookup"
	DegradedUnknownPlaceholder = "unknown_placeholder"
	DegradedFiscalYear         = "fiscal_year_out_of_range"
)

// Observer receives allocation outcomes. The metrics package implements it.
type Observer interface {
	// ObserveAllocation records one Increment call and how long it took.
	ObserveAllocation(typeCode, rotateBy string, err error, elapsed time.Duration)

	// ObserveDegraded records a request that succeeded in a degraded way.
	ObserveDegraded(reason string)
}

type nopObserver struct{}

func (nopObserver) ObserveAllocation(string, string, error, time.Duration) {}
func (nopObserver) ObserveDegraded(string)                                {}

// Package id generates request and trace identifiers.
// UUIDv7 is time-ordered, so ids sort by creation time in logs and audit columns.
package id

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// New returns a new UUIDv7 string.
func New() string {
	v, err := uuid.NewV7()
	if err != nil {
		// Fallback to V4 if V7 fails (should never happen)
		return uuid.NewString()
	}
	return v.String()
}

// Short returns 16 random hex characters, sized like an OpenTelemetry span id.
func Short() string {
	v, err := uuid.NewV7()
	if err != nil {
		v = uuid.New()
	}
	// The low 8 bytes are random in both V4 and V7.
	return hex.EncodeToString(v[8:])
}

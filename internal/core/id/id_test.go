package id

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsV7AndOrdered(t *testing.T) {
	a, b := New(), New()
	assert.NoError(t, uuid.Validate(a))
	assert.NotEqual(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.LessOrEqual(t, a[:13], b[:13])
}

func TestShort(t *testing.T) {
	s := Short()
	assert.Len(t, s, 16)
	assert.NotEqual(t, s, Short())
}

package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetActor(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, SystemUser, GetActor(ctx))

	ctx = WithUser(ctx, &UserContext{UserID: ""})
	assert.Equal(t, SystemUser, GetActor(ctx))

	ctx = WithUser(ctx, &UserContext{UserID: "u-42"})
	assert.Equal(t, "u-42", GetActor(ctx))
}

func TestHasPermission(t *testing.T) {
	assert.False(t, HasPermission(context.Background(), "sequence:generate"))

	ctx := WithUser(context.Background(), &UserContext{UserID: "u", Permissions: []string{"sequence:generate"}})
	assert.True(t, HasPermission(ctx, "sequence:generate"))
	assert.False(t, HasPermission(ctx, "sequence_config:write"))

	admin := WithUser(context.Background(), &UserContext{UserID: "root", IsAdmin: true})
	assert.True(t, HasPermission(admin, "sequence_config:write"))
}

func TestTraceValues(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetTrace(ctx))
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetClientIP(ctx))

	tc := NewTraceContext("10.0.0.7")
	ctx = WithTrace(ctx, tc)
	assert.Same(t, tc, GetTrace(ctx))
	assert.NotEmpty(t, GetRequestID(ctx))
	assert.NotEqual(t, tc.TraceID, tc.RequestID)
	assert.Len(t, tc.SpanID, 16)
	assert.Equal(t, "10.0.0.7", GetClientIP(ctx))
}

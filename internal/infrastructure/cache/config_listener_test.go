package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

type recordingInvalidator struct {
	keys []string
	all  int
}

func (r *recordingInvalidator) InvalidateKey(key string) { r.keys = append(r.keys, key) }
func (r *recordingInvalidator) InvalidateAll()           { r.all++ }

func TestHandleNotification(t *testing.T) {
	inv := &recordingInvalidator{}
	l := NewConfigListener(nil, "sequence_config_changed", inv)

	var seen []string
	l.OnInvalidate(func(channel, payload string) { seen = append(seen, payload) })
	l.OnInvalidate(func(channel, payload string) { panic("boom") })

	l.handleNotification("sequence_config_changed", "MBC#invoice")
	l.handleNotification("sequence_config_changed", "  ")

	assert.Equal(t, []string{"MBC#invoice"}, inv.keys)
	assert.Equal(t, 1, inv.all)
	assert.Equal(t, []string{"MBC#invoice", "  "}, seen)
}

func TestStopWithoutStart(t *testing.T) {
	l := NewConfigListener(nil, "c", &recordingInvalidator{})
	l.Stop()
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"sequence_config_changed"`, quoteIdent("sequence_config_changed"))
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
}

type fakeConn struct {
	execErr  error
	executed []string
	released bool
	hijacked bool
}

func (f *fakeConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.executed = append(f.executed, sql)
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakeConn) Release() { f.released = true }

func (f *fakeConn) Hijack() *pgx.Conn {
	f.hijacked = true
	return nil
}

func TestReleaseConn_UnlistensBeforeRelease(t *testing.T) {
	l := NewConfigListener(nil, "sequence_config_changed", &recordingInvalidator{})

	conn := &fakeConn{}
	l.releaseConn(conn)
	assert.Equal(t, []string{`UNLISTEN "sequence_config_changed"`}, conn.executed)
	assert.True(t, conn.released)
	assert.False(t, conn.hijacked)
}

func TestReleaseConn_DropsBrokenConnection(t *testing.T) {
	l := NewConfigListener(nil, "sequence_config_changed", &recordingInvalidator{})

	conn := &fakeConn{execErr: errors.New("conn closed")}
	l.releaseConn(conn)
	assert.False(t, conn.released)
	assert.True(t, conn.hijacked)
}

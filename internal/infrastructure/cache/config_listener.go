// Package cache keeps in-process config caches coherent across instances
// through PostgreSQL LISTEN/NOTIFY.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"sequencer/pkg/logger"
)

const unlistenTimeout = 2 * time.Second

// Invalidator drops cached entries. The sequence ConfigProvider implements it.
type Invalidator interface {
	InvalidateKey(key string)
	InvalidateAll()
}

// InvalidationListener is called after each handled notification.
type InvalidationListener func(channel string, payload string)

// ConfigListener subscribes to a NOTIFY channel and drops the cache entry
// named by each payload. After a reconnect it drops everything, since
// notifications sent while disconnected are lost.
type ConfigListener struct {
	pool        *pgxpool.Pool
	channel     string
	invalidator Invalidator

	listeners   []InvalidationListener
	listenersMu sync.RWMutex

	retryDelay  time.Duration
	waitTimeout time.Duration

	// Lifecycle
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewConfigListener creates a listener for channel.
func NewConfigListener(pool *pgxpool.Pool, channel string, invalidator Invalidator) *ConfigListener {
	return &ConfigListener{
		pool:        pool,
		channel:     channel,
		invalidator: invalidator,
		retryDelay:  time.Second,
		waitTimeout: 30 * time.Second,
	}
}

// OnInvalidate registers a callback run after each notification.
func (l *ConfigListener) OnInvalidate(fn InvalidationListener) {
	l.listenersMu.Lock()
	defer l.listenersMu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// Start begins listening in a background goroutine.
func (l *ConfigListener) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()
	if l.started {
		return
	}
	l.ctx, l.cancel = context.WithCancel(ctx)
	l.started = true

	l.wg.Add(1)
	go l.listenLoop()
	logger.Info(l.ctx, "config listener started", "channel", l.channel)
}

// Stop gracefully stops the listener.
func (l *ConfigListener) Stop() {
	l.lifecycleMu.Lock()
	if !l.started {
		l.lifecycleMu.Unlock()
		return
	}
	cancel := l.cancel
	l.started = false
	l.cancel = nil
	l.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.wg.Wait()
	logger.Info(context.Background(), "config listener stopped", "channel", l.channel)
}

func (l *ConfigListener) listenLoop() {
	defer l.wg.Done()

	connected := false
	for {
		select {
		case <-l.ctx.Done():
			return
		default:
		}

		// Acquire dedicated connection for LISTEN
		conn, err := l.pool.Acquire(l.ctx)
		if err != nil {
			logger.Error(l.ctx, "failed to acquire connection for LISTEN", "error", err)
			l.sleep()
			continue
		}

		if _, err := conn.Exec(l.ctx, "LISTEN "+quoteIdent(l.channel)); err != nil {
			logger.Error(l.ctx, "failed to LISTEN", "channel", l.channel, "error", err)
			l.releaseConn(conn)
			l.sleep()
			continue
		}

		if connected {
			l.invalidator.InvalidateAll()
		}
		connected = true
		logger.Info(l.ctx, "listening for config notifications", "channel", l.channel)

		l.waitForNotifications(conn)
		l.releaseConn(conn)
	}
}

// waitForNotifications blocks until the context ends or the connection fails.
func (l *ConfigListener) waitForNotifications(conn *pgxpool.Conn) {
	for {
		ctx, cancel := context.WithTimeout(l.ctx, l.waitTimeout)
		notification, err := conn.Conn().WaitForNotification(ctx)
		timedOut := ctx.Err() != nil
		cancel()

		if err != nil {
			if l.ctx.Err() != nil {
				return // Shutting down
			}
			if timedOut {
				continue
			}
			logger.Warn(l.ctx, "LISTEN connection lost, reconnecting", "error", err)
			return
		}

		l.handleNotification(notification.Channel, notification.Payload)
	}
}

// handleNotification drops the cache entry named by payload.
func (l *ConfigListener) handleNotification(channel, payload string) {
	logger.Debug(context.Background(), "received notification", "channel", channel, "payload", payload)

	key := strings.TrimSpace(payload)
	if key == "" {
		l.invalidator.InvalidateAll()
	} else {
		l.invalidator.InvalidateKey(key)
	}

	l.listenersMu.RLock()
	defer l.listenersMu.RUnlock()
	for _, listener := range l.listeners {
		func(fn InvalidationListener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(context.Background(), "listener panic recovered", "channel", channel, "panic", r)
				}
			}()
			fn(channel, payload)
		}(listener)
	}
}

func (l *ConfigListener) sleep() {
	select {
	case <-l.ctx.Done():
	case <-time.After(l.retryDelay):
	}
}

// listenConn is the part of *pgxpool.Conn used to hand a LISTEN
// connection back.
type listenConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Release()
	Hijack() *pgx.Conn
}

// releaseConn returns conn to the pool only once it is unsubscribed, so
// pooled queries never receive notifications. A connection that cannot run
// UNLISTEN is taken out of the pool and closed.
func (l *ConfigListener) releaseConn(conn listenConn) {
	ctx, cancel := context.WithTimeout(context.Background(), unlistenTimeout)
	defer cancel()

	if _, err := conn.Exec(ctx, "UNLISTEN "+quoteIdent(l.channel)); err == nil {
		conn.Release()
		return
	}

	logger.Debug(ctx, "closing LISTEN connection", "channel", l.channel)
	if c := conn.Hijack(); c != nil {
		_ = c.Close(ctx)
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

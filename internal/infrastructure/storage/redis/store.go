// Package redis provides the Redis sequence backend.
//
// Every counter is a hash. Increments run as one Lua script so the
// bump, the audit fields and the read-back happen atomically on the server.
package redis

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"sequencer/internal/core/sequence"
)

const timeFormat = time.RFC3339Nano

// Keys use a {tenant} hash tag so a tenant's keys share a cluster slot.
const (
	counterPrefix = "seq"
	configPrefix  = "seqcfg"
)

var incrementScript = rueidis.NewLuaScript(`
local n = redis.call('HINCRBY', KEYS[1], 'seq', 1)
redis.call('HSETNX', KEYS[1], 'tenant_code', ARGV[1])
redis.call('HSETNX', KEYS[1], 'type_code', ARGV[2])
redis.call('HSETNX', KEYS[1], 'rotate_value', ARGV[3])
redis.call('HSETNX', KEYS[1], 'created_at', ARGV[6])
redis.call('HSETNX', KEYS[1], 'created_by', ARGV[7])
redis.call('HSETNX', KEYS[1], 'created_ip', ARGV[8])
redis.call('HSET', KEYS[1],
	'rotate_by', ARGV[4],
	'request_id', ARGV[5],
	'updated_at', ARGV[6],
	'updated_by', ARGV[7],
	'updated_ip', ARGV[8])
return redis.call('HGETALL', KEYS[1])
`)

var putConfigScript = rueidis.NewLuaScript(`
redis.call('HSET', KEYS[1],
	'tenant_code', ARGV[1],
	'type_code', ARGV[2],
	'format', ARGV[3],
	'start_month', ARGV[4],
	'register_date', ARGV[5],
	'updated_at', ARGV[6])
redis.call('SADD', KEYS[2], ARGV[2])
return 1
`)

var deleteConfigScript = rueidis.NewLuaScript(`
local n = redis.call('DEL', KEYS[1])
redis.call('SREM', KEYS[2], ARGV[1])
return n
`)

// Store implements sequence.Backend on Redis.
type Store struct {
	client rueidis.Client
}

var _ sequence.Backend = (*Store)(nil)

// Open connects to url ("redis://host:port/db"). password overrides an
// empty password in the URL.
func Open(ctx context.Context, url, password string) (*Store, error) {
	opts, err := rueidis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if password != "" && opts.Password == "" {
		opts.Password = password
	}
	opts.DisableCache = true

	client, err := rueidis.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	s := New(client)
	if err := s.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return s, nil
}

// New wraps an existing client.
func New(client rueidis.Client) *Store {
	return &Store{client: client}
}

// Name implements sequence.Backend.
func (s *Store) Name() string { return "redis" }

// Ping implements sequence.Backend.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

// Close implements sequence.Backend.
func (s *Store) Close() error {
	s.client.Close()
	return nil
}

// Increment implements sequence.CounterStore.
func (s *Store) Increment(ctx context.Context, key sequence.Key, stamp sequence.Stamp) (*sequence.Counter, error) {
	at := stamp.At.UTC().Format(timeFormat)
	fields, err := incrementScript.Exec(ctx, s.client,
		[]string{counterKey(key)},
		[]string{
			key.TenantCode,
			key.TypeCode,
			key.RotateValue,
			string(stamp.RotateBy.OrNone()),
			stamp.RequestID,
			at,
			stamp.UserID,
			stamp.SourceIP,
		},
	).AsStrMap()
	if err != nil {
		return nil, fmt.Errorf("increment counter: %w", err)
	}
	return parseCounter(fields)
}

// Get implements sequence.CounterStore.
func (s *Store) Get(ctx context.Context, key sequence.Key) (*sequence.Counter, error) {
	fields, err := s.client.Do(ctx, s.client.B().Hgetall().Key(counterKey(key)).Build()).AsStrMap()
	if err != nil {
		return nil, fmt.Errorf("get counter: %w", err)
	}
	if len(fields) == 0 {
		return nil, sequence.ErrCounterNotFound
	}
	return parseCounter(fields)
}

// GetConfig implements sequence.ConfigStore.
func (s *Store) GetConfig(ctx context.Context, tenantCode, typeCode string) (*sequence.Config, error) {
	fields, err := s.client.Do(ctx, s.client.B().Hgetall().Key(configKey(tenantCode, typeCode)).Build()).AsStrMap()
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	if len(fields) == 0 {
		return nil, sequence.ErrConfigNotFound
	}
	return parseConfig(fields)
}

// ListConfigs implements sequence.ConfigWriter.
func (s *Store) ListConfigs(ctx context.Context, tenantCode string) ([]sequence.Config, error) {
	typeCodes, err := s.client.Do(ctx, s.client.B().Smembers().Key(configIndexKey(tenantCode)).Build()).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}
	slices.Sort(typeCodes)

	list := make([]sequence.Config, 0, len(typeCodes))
	if len(typeCodes) == 0 {
		return list, nil
	}

	cmds := make(rueidis.Commands, 0, len(typeCodes))
	for _, typeCode := range typeCodes {
		cmds = append(cmds, s.client.B().Hgetall().Key(configKey(tenantCode, typeCode)).Build())
	}
	for _, res := range s.client.DoMulti(ctx, cmds...) {
		fields, err := res.AsStrMap()
		if err != nil {
			return nil, fmt.Errorf("list configs: %w", err)
		}
		if len(fields) == 0 {
			continue // removed between SMEMBERS and HGETALL
		}
		cfg, err := parseConfig(fields)
		if err != nil {
			return nil, err
		}
		list = append(list, *cfg)
	}
	return list, nil
}

// PutConfig implements sequence.ConfigWriter.
func (s *Store) PutConfig(ctx context.Context, cfg sequence.Config) error {
	registerDate := ""
	if cfg.RegisterDate != nil {
		registerDate = cfg.RegisterDate.UTC().Format(timeFormat)
	}
	updatedAt := cfg.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	err := putConfigScript.Exec(ctx, s.client,
		[]string{configKey(cfg.TenantCode, cfg.TypeCode), configIndexKey(cfg.TenantCode)},
		[]string{
			cfg.TenantCode,
			cfg.TypeCode,
			cfg.Format,
			strconv.Itoa(cfg.StartMonth),
			registerDate,
			updatedAt.UTC().Format(timeFormat),
		},
	).Error()
	if err != nil {
		return fmt.Errorf("put config: %w", err)
	}
	return nil
}

// DeleteConfig implements sequence.ConfigWriter.
func (s *Store) DeleteConfig(ctx context.Context, tenantCode, typeCode string) error {
	n, err := deleteConfigScript.Exec(ctx, s.client,
		[]string{configKey(tenantCode, typeCode), configIndexKey(tenantCode)},
		[]string{typeCode},
	).AsInt64()
	if err != nil {
		return fmt.Errorf("delete config: %w", err)
	}
	if n == 0 {
		return sequence.ErrConfigNotFound
	}
	return nil
}

// Each code is written as <len>:<code> so codes containing ':' '{' or '}'
// cannot shift into a neighbouring part of another tenant's key.
func counterKey(key sequence.Key) string {
	return fmt.Sprintf("%s:{%s}:%s:%s", counterPrefix, keyPart(key.TenantCode), keyPart(key.TypeCode), key.RotateValue)
}

func configKey(tenantCode, typeCode string) string {
	return fmt.Sprintf("%s:{%s}:%s", configPrefix, keyPart(tenantCode), keyPart(typeCode))
}

func configIndexKey(tenantCode string) string {
	return fmt.Sprintf("%s:{%s}", configPrefix, keyPart(tenantCode))
}

func keyPart(code string) string {
	return strconv.Itoa(len(code)) + ":" + code
}

func parseCounter(m map[string]string) (*sequence.Counter, error) {
	count, err := strconv.ParseInt(m["seq"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse seq: %w", err)
	}
	createdAt, err := parseTime(m["created_at"])
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	updatedAt, err := parseTime(m["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &sequence.Counter{
		TenantCode:  m["tenant_code"],
		TypeCode:    m["type_code"],
		RotateValue: m["rotate_value"],
		RotateBy:    m["rotate_by"],
		Count:       count,
		RequestID:   m["request_id"],
		CreatedAt:   createdAt,
		CreatedBy:   m["created_by"],
		CreatedIP:   m["created_ip"],
		UpdatedAt:   updatedAt,
		UpdatedBy:   m["updated_by"],
		UpdatedIP:   m["updated_ip"],
	}, nil
}

func parseConfig(m map[string]string) (*sequence.Config, error) {
	cfg := &sequence.Config{
		TenantCode: m["tenant_code"],
		TypeCode:   m["type_code"],
		Format:     m["format"],
	}

	if v := m["start_month"]; v != "" {
		month, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse start_month: %w", err)
		}
		cfg.StartMonth = month
	}
	if v := strings.TrimSpace(m["register_date"]); v != "" {
		t, err := time.Parse(timeFormat, v)
		if err != nil {
			return nil, fmt.Errorf("parse register_date: %w", err)
		}
		cfg.RegisterDate = &t
	}
	updatedAt, err := parseTime(m["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	cfg.UpdatedAt = updatedAt
	return cfg, nil
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeFormat, v)
}

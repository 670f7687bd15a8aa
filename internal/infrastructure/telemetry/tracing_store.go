package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sequencer/internal/core/sequence"
)

const tracerName = "sequencer/internal/infrastructure/telemetry"

// TracingCounterStore wraps a sequence.CounterStore with a span per call.
type TracingCounterStore struct {
	next    sequence.CounterStore
	backend string
	tracer  trace.Tracer
}

var _ sequence.CounterStore = (*TracingCounterStore)(nil)

// NewTracingCounterStore creates a tracing decorator around next.
// backend names the storage engine in span attributes.
func NewTracingCounterStore(next sequence.CounterStore, backend string) *TracingCounterStore {
	return &TracingCounterStore{
		next:    next,
		backend: backend,
		tracer:  otel.Tracer(tracerName),
	}
}

func (s *TracingCounterStore) Increment(ctx context.Context, key sequence.Key, stamp sequence.Stamp) (*sequence.Counter, error) {
	ctx, span := s.tracer.Start(ctx, "CounterStore.Increment",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(s.keyAttributes(key)...),
	)
	defer span.End()

	counter, err := s.next.Increment(ctx, key, stamp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int64("sequence.count", counter.Count))
	return counter, nil
}

func (s *TracingCounterStore) Get(ctx context.Context, key sequence.Key) (*sequence.Counter, error) {
	ctx, span := s.tracer.Start(ctx, "CounterStore.Get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(s.keyAttributes(key)...),
	)
	defer span.End()

	counter, err := s.next.Get(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return counter, err
}

func (s *TracingCounterStore) keyAttributes(key sequence.Key) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("db.system", s.backend),
		attribute.String("sequence.tenant_code", key.TenantCode),
		attribute.String("sequence.type_code", key.TypeCode),
		attribute.String("sequence.rotate_value", key.RotateValue),
	}
}

// Package telemetry implements the coordination engine's telemetry spine
// (C2): correlation ids, a hierarchical span tree per correlation, point
// event markers, and duration aggregation. Spans are recorded through
// OpenTelemetry (go.opentelemetry.io/otel) for export, while the
// parent/child tree itself -- needed to force-close children when a parent
// closes early -- is tracked independently, since the OTel SDK does not
// expose span hierarchies for traversal.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// CorrelationID ties a set of spans and events together across an
// operation's lifetime, per spec §3.
type CorrelationID string

// eventBufferCap bounds the number of retained point events; once full,
// further events are dropped silently and only counted (spec §5, bounded
// event buffer).
const eventBufferCap = 4096

// Event is a point-in-time marker recorded against a span.
type Event struct {
	Name      string
	Attrs     map[string]string
	Timestamp time.Time
}

// Spine is the engine-wide telemetry facility. One Spine is shared by all
// components.
type Spine struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	durationHist   metric.Float64Histogram
	overflowCount  metric.Int64Counter

	mu      sync.Mutex
	spans   map[string]*SpanHandle
	events  []Event
	dropped int64
}

// Option configures a Spine.
type Option func(*options)

type options struct {
	traceWriter interface {
		Write(p []byte) (int, error)
	}
}

// WithTraceWriter overrides where exported spans are written (the stdout
// exporter writes JSON-lines); tests pass io.Discard or a buffer.
func WithTraceWriter(w interface{ Write(p []byte) (int, error) }) Option {
	return func(o *options) { o.traceWriter = w }
}

// New constructs a Spine backed by the OTel SDK's stdout trace exporter and
// an in-memory metric provider, labeled with serviceName.
func New(serviceName string, opts ...Option) (*Spine, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var exporterOpts []stdouttrace.Option
	if o.traceWriter != nil {
		exporterOpts = append(exporterOpts, stdouttrace.WithWriter(o.traceWriter))
	}
	exporter, err := stdouttrace.New(exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	mp := sdkmetric.NewMeterProvider()

	meter := mp.Meter(serviceName)
	durationHist, err := meter.Float64Histogram(
		"coordination.duration",
		metric.WithDescription("duration of coordination operations by category"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating duration histogram: %w", err)
	}
	overflowCount, err := meter.Int64Counter(
		"coordination.telemetry_overflow",
		metric.WithDescription("events dropped because the bounded event buffer was full"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating overflow counter: %w", err)
	}

	return &Spine{
		tracerProvider: tp,
		meterProvider:  mp,
		tracer:         tp.Tracer(serviceName),
		durationHist:   durationHist,
		overflowCount:  overflowCount,
		spans:          make(map[string]*SpanHandle),
	}, nil
}

// Shutdown flushes and releases the underlying providers.
func (s *Spine) Shutdown(ctx context.Context) error {
	if err := s.tracerProvider.Shutdown(ctx); err != nil {
		return err
	}
	return s.meterProvider.Shutdown(ctx)
}

// NewCorrelation mints a fresh CorrelationID.
func (s *Spine) NewCorrelation() CorrelationID {
	return CorrelationID(uuid.New().String())
}

// SpanHandle is a single open or closed span in the tree rooted at a
// correlation id.
type SpanHandle struct {
	ID          string
	Name        string
	Correlation CorrelationID
	Parent      *SpanHandle

	spine    *Spine
	otelSpan trace.Span
	ctx      context.Context

	mu       sync.Mutex
	closed   bool
	children []*SpanHandle
}

// OpenSpan starts a new span named name under parent (nil for a root span)
// within correlation, carrying attrs.
func (s *Spine) OpenSpan(ctx context.Context, name string, parent *SpanHandle, correlation CorrelationID, attrs map[string]string) *SpanHandle {
	if ctx == nil {
		ctx = context.Background()
	}

	kvs := make([]attribute.KeyValue, 0, len(attrs)+1)
	kvs = append(kvs, attribute.String("correlation.id", string(correlation)))
	for k, v := range attrs {
		kvs = append(kvs, attribute.String(k, v))
	}

	parentCtx := ctx
	if parent != nil {
		parentCtx = parent.ctx
	}
	spanCtx, otelSpan := s.tracer.Start(parentCtx, name, trace.WithAttributes(kvs...))

	h := &SpanHandle{
		ID:          uuid.New().String(),
		Name:        name,
		Correlation: correlation,
		Parent:      parent,
		spine:       s,
		otelSpan:    otelSpan,
		ctx:         spanCtx,
	}

	s.mu.Lock()
	s.spans[h.ID] = h
	s.mu.Unlock()

	if parent != nil {
		parent.mu.Lock()
		parent.children = append(parent.children, h)
		parent.mu.Unlock()
	}

	return h
}

// Context returns the span's context, usable as the parent context for
// further OpenSpan calls or for cancellation propagation.
func (h *SpanHandle) Context() context.Context {
	return h.ctx
}

// CloseSpan ends h. Closing is idempotent: a second close is a no-op. If h
// still has open children, they are force-closed first and CloseSpan
// returns a non-fatal error describing which children were force-closed;
// the span itself is still closed.
func (s *Spine) CloseSpan(h *SpanHandle) error {
	if h == nil {
		return nil
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	children := h.children
	h.mu.Unlock()

	var forced []string
	for _, c := range children {
		c.mu.Lock()
		alreadyClosed := c.closed
		c.mu.Unlock()
		if !alreadyClosed {
			forced = append(forced, c.Name)
			_ = s.CloseSpan(c)
		}
	}

	h.otelSpan.SetStatus(codes.Ok, "")
	h.otelSpan.End()

	s.mu.Lock()
	delete(s.spans, h.ID)
	s.mu.Unlock()

	if len(forced) > 0 {
		return fmt.Errorf("telemetry: span %q closed before %d child span(s) %v; force-closed", h.Name, len(forced), forced)
	}
	return nil
}

// Event records a point-in-time marker against h. If the bounded event
// buffer is full, the event is dropped silently except for an increment of
// the telemetry_overflow counter.
func (s *Spine) Event(ctx context.Context, h *SpanHandle, name string, attrs map[string]string) {
	if h != nil {
		kvs := make([]attribute.KeyValue, 0, len(attrs))
		for k, v := range attrs {
			kvs = append(kvs, attribute.String(k, v))
		}
		h.otelSpan.AddEvent(name, trace.WithAttributes(kvs...))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) >= eventBufferCap {
		s.dropped++
		s.overflowCount.Add(ctx, 1)
		return
	}
	s.events = append(s.events, Event{Name: name, Attrs: attrs, Timestamp: time.Now()})
}

// DroppedEvents returns the number of events dropped due to buffer
// overflow since the Spine was created.
func (s *Spine) DroppedEvents() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Events returns a snapshot of retained events.
func (s *Spine) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// RecordDuration aggregates d under category (e.g. "claim_work",
// "coordinate.atomic").
func (s *Spine) RecordDuration(ctx context.Context, category string, d time.Duration) {
	s.durationHist.Record(ctx, float64(d.Milliseconds()), metric.WithAttributes(attribute.String("category", category)))
}

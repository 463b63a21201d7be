package observability

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryMetricsProvider stores metrics in memory so tests can assert on them.
//
// Example:
//
//	provider := observability.NewInMemoryMetricsProvider()
//	gate := gate.New(cfg, gate.WithMetrics(provider))
//	...
//	if got := provider.GetCounter("ragate_gate_verdicts_total", labels); got != 1 { ... }
type InMemoryMetricsProvider struct {
	mu         sync.RWMutex
	counters   map[string]int64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewInMemoryMetricsProvider creates a new in-memory metrics provider
func NewInMemoryMetricsProvider() *InMemoryMetricsProvider {
	return &InMemoryMetricsProvider{
		counters:   make(map[string]int64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

func (p *InMemoryMetricsProvider) Counter(_ context.Context, name string, value int64, labels map[string]string) {
	key := metricsKey(name, labels)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counters[key] += value
}

func (p *InMemoryMetricsProvider) Gauge(_ context.Context, name string, value float64, labels map[string]string) {
	key := metricsKey(name, labels)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gauges[key] += value
}

func (p *InMemoryMetricsProvider) Histogram(_ context.Context, name string, value float64, labels map[string]string) {
	key := metricsKey(name, labels)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.histograms[key] = append(p.histograms[key], value)
}

func (p *InMemoryMetricsProvider) RecordDuration(ctx context.Context, name string, duration time.Duration, labels map[string]string) {
	p.Histogram(ctx, name, duration.Seconds(), labels)
}

// GetCounter returns the current counter value
func (p *InMemoryMetricsProvider) GetCounter(name string, labels map[string]string) int64 {
	key := metricsKey(name, labels)
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.counters[key]
}

// GetGauge returns the current gauge value
func (p *InMemoryMetricsProvider) GetGauge(name string, labels map[string]string) float64 {
	key := metricsKey(name, labels)
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.gauges[key]
}

// GetHistogram returns a copy of all recorded histogram values
func (p *InMemoryMetricsProvider) GetHistogram(name string, labels map[string]string) []float64 {
	key := metricsKey(name, labels)
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.histograms[key])
}

// Reset clears all metrics
func (p *InMemoryMetricsProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counters = make(map[string]int64)
	p.gauges = make(map[string]float64)
	p.histograms = make(map[string][]float64)
}

// metricsKey builds a stable key from the metric name and sorted labels.
func metricsKey(name string, labels map[string]string) string {
	var b strings.Builder
	b.WriteString(name)
	for _, k := range labelNames(labels) {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(labels[k])
	}
	return b.String()
}

// InMemoryTracerProvider records finished spans for inspection in tests.
type InMemoryTracerProvider struct {
	mu    sync.RWMutex
	spans []*RecordedSpan
}

// RecordedSpan represents a recorded span for testing
type RecordedSpan struct {
	Name       string
	Kind       SpanKind
	StartTime  time.Time
	EndTime    time.Time
	Attributes map[string]any
	Events     []RecordedEvent
	Status     SpanStatus
	StatusDesc string
	Error      error
	TraceID    string
	SpanID     string
}

// RecordedEvent represents a recorded span event
type RecordedEvent struct {
	Name       string
	Attributes map[string]any
	Time       time.Time
}

// NewInMemoryTracerProvider creates a new in-memory tracer provider
func NewInMemoryTracerProvider() *InMemoryTracerProvider {
	return &InMemoryTracerProvider{}
}

func (p *InMemoryTracerProvider) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span) {
	cfg := newSpanConfig(opts)

	span := &RecordedSpan{
		Name:       name,
		Kind:       cfg.kind,
		StartTime:  time.Now(),
		Attributes: make(map[string]any, len(cfg.attributes)),
		TraceID:    uuid.NewString(),
		SpanID:     uuid.NewString(),
	}
	for k, v := range cfg.attributes {
		span.Attributes[k] = v
	}

	return ctx, &inMemorySpan{provider: p, span: span}
}

func (p *InMemoryTracerProvider) Shutdown(_ context.Context) error {
	return nil
}

// GetSpans returns all finished spans in end order
func (p *InMemoryTracerProvider) GetSpans() []*RecordedSpan {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.spans)
}

// GetSpansByName returns finished spans with the given name
func (p *InMemoryTracerProvider) GetSpansByName(name string) []*RecordedSpan {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var result []*RecordedSpan
	for _, span := range p.spans {
		if span.Name == name {
			result = append(result, span)
		}
	}
	return result
}

// Reset clears all recorded spans
func (p *InMemoryTracerProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spans = nil
}

func (p *InMemoryTracerProvider) recordSpan(span *RecordedSpan) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spans = append(p.spans, span)
}

// inMemorySpan is owned by one goroutine until End.
type inMemorySpan struct {
	provider *InMemoryTracerProvider
	span     *RecordedSpan
}

func (s *inMemorySpan) End(err error) {
	s.span.EndTime = time.Now()
	s.span.Error = err
	if err != nil && s.span.Status == SpanStatusUnset {
		s.span.Status = SpanStatusError
		s.span.StatusDesc = err.Error()
	}
	s.provider.recordSpan(s.span)
}

func (s *inMemorySpan) SetAttribute(key string, value any) {
	s.span.Attributes[key] = value
}

func (s *inMemorySpan) AddEvent(name string, attrs map[string]any) {
	s.span.Events = append(s.span.Events, RecordedEvent{
		Name:       name,
		Attributes: attrs,
		Time:       time.Now(),
	})
}

func (s *inMemorySpan) SetStatus(code SpanStatus, description string) {
	s.span.Status = code
	s.span.StatusDesc = description
}

func (s *inMemorySpan) SpanContext() SpanContext {
	return SpanContext{
		TraceID: s.span.TraceID,
		SpanID:  s.span.SpanID,
	}
}

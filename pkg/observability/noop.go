package observability

import (
	"context"
	"time"
)

// NoopMetricsProvider is a MetricsProvider that records nothing.
type NoopMetricsProvider struct{}

func (p *NoopMetricsProvider) Counter(_ context.Context, _ string, _ int64, _ map[string]string) {}

func (p *NoopMetricsProvider) Gauge(_ context.Context, _ string, _ float64, _ map[string]string) {}

func (p *NoopMetricsProvider) Histogram(_ context.Context, _ string, _ float64, _ map[string]string) {
}

func (p *NoopMetricsProvider) RecordDuration(_ context.Context, _ string, _ time.Duration, _ map[string]string) {
}

// NoopTracerProvider is a TracerProvider whose spans do nothing.
type NoopTracerProvider struct{}

func (p *NoopTracerProvider) StartSpan(ctx context.Context, _ string, _ ...SpanOption) (context.Context, Span) {
	return ctx, noopSpan{}
}

func (p *NoopTracerProvider) Shutdown(_ context.Context) error {
	return nil
}

type noopSpan struct{}

func (noopSpan) End(_ error)                         {}
func (noopSpan) SetAttribute(_ string, _ any)        {}
func (noopSpan) AddEvent(_ string, _ map[string]any) {}
func (noopSpan) SetStatus(_ SpanStatus, _ string)    {}
func (noopSpan) SpanContext() SpanContext            { return SpanContext{} }

// Package observability provides the metrics, tracing and health-check
// abstractions used by the gate, the retrieval engine and the CLI. Prometheus
// and OTLP back the production implementations; in-memory and no-op providers
// serve tests and disabled deployments.
package observability

import (
	"context"
	"maps"
	"time"
)

// MetricsProvider defines the interface for collecting and exposing metrics.
//   - Counter: a value that only goes up (admitted queries, denials)
//   - Gauge: a value that can go up or down (tracked identities, queue depth)
//   - Histogram: distribution of values (stage latencies, candidate counts)
//
// A given metric name must always be recorded with the same label keys.
type MetricsProvider interface {
	Counter(ctx context.Context, name string, value int64, labels map[string]string)

	// Gauge uses Add semantics, pass negative values to decrease.
	Gauge(ctx context.Context, name string, value float64, labels map[string]string)

	Histogram(ctx context.Context, name string, value float64, labels map[string]string)

	// RecordDuration records the duration in seconds as a histogram.
	RecordDuration(ctx context.Context, name string, duration time.Duration, labels map[string]string)
}

// TracerProvider defines the interface for distributed tracing.
//
// Example usage:
//
//	ctx, span := provider.StartSpan(ctx, "retrieval.fetch")
//	defer span.End(err)
//	span.SetAttribute("limit", 10)
type TracerProvider interface {
	// StartSpan returns a context carrying the span and the span itself.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)

	// Shutdown flushes pending spans and releases resources.
	Shutdown(ctx context.Context) error
}

// Span represents a single operation within a trace. End must be called
// exactly once, typically with defer.
type Span interface {
	// End ends the span; a non-nil err marks it failed.
	End(err error)
	SetAttribute(key string, value any)
	AddEvent(name string, attrs map[string]any)
	SetStatus(code SpanStatus, description string)
	SpanContext() SpanContext
}

// SpanContext contains identifying trace information about a span.
type SpanContext struct {
	TraceID string
	SpanID  string
}

// SpanStatus represents the status of a span
type SpanStatus int

const (
	SpanStatusUnset SpanStatus = iota
	SpanStatusOK
	SpanStatusError
)

// SpanOption configures span creation
type SpanOption func(*spanConfig)

type spanConfig struct {
	kind       SpanKind
	attributes map[string]any
}

func newSpanConfig(opts []SpanOption) *spanConfig {
	cfg := &spanConfig{
		kind:       SpanKindInternal,
		attributes: make(map[string]any),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// SpanKind describes the relationship between the Span, its parents, and its children
type SpanKind int

const (
	SpanKindInternal SpanKind = iota
	SpanKindServer
	SpanKindClient
)

// WithSpanKind sets the kind of span
func WithSpanKind(kind SpanKind) SpanOption {
	return func(cfg *spanConfig) {
		cfg.kind = kind
	}
}

// WithAttributes sets initial attributes on the span
func WithAttributes(attrs map[string]any) SpanOption {
	return func(cfg *spanConfig) {
		maps.Copy(cfg.attributes, attrs)
	}
}

// HealthChecker verifies that one dependency (a search backend, the audit
// store) is reachable.
type HealthChecker interface {
	Name() string

	// Check returns nil if healthy. The context carries the check timeout.
	Check(ctx context.Context) error

	// Timeout returns the maximum time to wait; zero means the registry default.
	Timeout() time.Duration
}

// HealthStatus represents the overall health status of the system.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResult represents the result of a single health check.
type HealthCheckResult struct {
	Name    string        `json:"name"`
	Status  string        `json:"status"`          // "ok" or "error"
	Error   string        `json:"error,omitempty"` // set when status is "error"
	Latency time.Duration `json:"latency"`
}

// HealthReport represents the complete health report.
type HealthReport struct {
	Status    HealthStatus                 `json:"status"`
	Checks    map[string]HealthCheckResult `json:"checks"`
	Uptime    time.Duration                `json:"uptime"`
	Timestamp time.Time                    `json:"timestamp"`
}

// Labels is a convenience type for metric and span labels.
type Labels map[string]string

// Merge combines two label maps into a new map.
// If both maps have the same key, the value from 'other' takes precedence.
//
// Example:
//
//	base := Labels{"backend": "qdrant"}
//	merged := base.Merge(Labels{"stage": "fetch"})
func (l Labels) Merge(other Labels) Labels {
	result := make(Labels, len(l)+len(other))
	maps.Copy(result, l)
	maps.Copy(result, other)
	return result
}

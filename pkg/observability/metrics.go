package observability

import (
	"context"
	"time"
)

// MetricsConfig names the metric family a component records into.
type MetricsConfig struct {
	// Namespace prefixes all metric names ("ragate" → "ragate_gate_verdicts_total")
	Namespace string

	// Subsystem is added after namespace ("gate", "retrieval", "audit")
	Subsystem string

	// Labels are applied to every metric recorded through a Recorder.
	Labels Labels
}

// DefaultMetricsConfig returns the default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "ragate",
		Labels:    Labels{},
	}
}

// MetricsOption configures a Recorder
type MetricsOption func(*MetricsConfig)

// WithMetricsNamespace sets the namespace for metrics
func WithMetricsNamespace(namespace string) MetricsOption {
	return func(cfg *MetricsConfig) {
		cfg.Namespace = namespace
	}
}

// WithMetricsSubsystem sets the subsystem for metrics
func WithMetricsSubsystem(subsystem string) MetricsOption {
	return func(cfg *MetricsConfig) {
		cfg.Subsystem = subsystem
	}
}

// WithMetricsLabels sets default labels for all metrics
func WithMetricsLabels(labels Labels) MetricsOption {
	return func(cfg *MetricsConfig) {
		cfg.Labels = labels
	}
}

// Recorder binds a MetricsProvider to a namespace, subsystem and default labels.
// A nil provider records nothing.
type Recorder struct {
	provider MetricsProvider
	cfg      MetricsConfig
}

// NewRecorder creates a Recorder.
//
// Example:
//
//	rec := observability.NewRecorder(provider, observability.WithMetricsSubsystem("gate"))
//	rec.Count(ctx, "verdicts_total", observability.Labels{"outcome": "admitted"})
func NewRecorder(provider MetricsProvider, opts ...MetricsOption) *Recorder {
	cfg := DefaultMetricsConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if provider == nil {
		provider = &NoopMetricsProvider{}
	}
	return &Recorder{provider: provider, cfg: cfg}
}

// Count increments the named counter by one.
func (r *Recorder) Count(ctx context.Context, name string, labels Labels) {
	r.provider.Counter(ctx, r.Name(name), 1, r.cfg.Labels.Merge(labels))
}

// Add moves the named gauge by delta.
func (r *Recorder) Add(ctx context.Context, name string, delta float64, labels Labels) {
	r.provider.Gauge(ctx, r.Name(name), delta, r.cfg.Labels.Merge(labels))
}

// Observe records value into the named histogram.
func (r *Recorder) Observe(ctx context.Context, name string, value float64, labels Labels) {
	r.provider.Histogram(ctx, r.Name(name), value, r.cfg.Labels.Merge(labels))
}

// Since records the time elapsed from start into the named duration histogram.
func (r *Recorder) Since(ctx context.Context, name string, start time.Time, labels Labels) {
	r.provider.RecordDuration(ctx, r.Name(name), time.Since(start), r.cfg.Labels.Merge(labels))
}

// Name builds the full metric name with namespace and subsystem
func (r *Recorder) Name(name string) string {
	return metricName(r.cfg, name)
}

func metricName(cfg MetricsConfig, name string) string {
	if cfg.Namespace != "" && cfg.Subsystem != "" {
		return cfg.Namespace + "_" + cfg.Subsystem + "_" + name
	}
	if cfg.Namespace != "" {
		return cfg.Namespace + "_" + name
	}
	if cfg.Subsystem != "" {
		return cfg.Subsystem + "_" + name
	}
	return name
}

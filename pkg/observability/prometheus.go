package observability

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusProvider implements MetricsProvider using the Prometheus client
// library. Vectors are created lazily on first use of a metric name, with the
// label keys of that first call.
//
// Scraped output looks like:
//
//	# TYPE ragate_gate_verdicts_total counter
//	ragate_gate_verdicts_total{outcome="admitted"} 1542
type PrometheusProvider struct {
	mu         sync.RWMutex
	registry   *prometheus.Registry
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec

	durationBuckets []float64
	runtime         bool
}

// PrometheusOption configures the Prometheus provider
type PrometheusOption func(*PrometheusProvider)

// WithDurationBuckets sets custom buckets for histograms
func WithDurationBuckets(buckets []float64) PrometheusOption {
	return func(p *PrometheusProvider) {
		p.durationBuckets = buckets
	}
}

// WithPrometheusRegistry uses a custom Prometheus registry
func WithPrometheusRegistry(registry *prometheus.Registry) PrometheusOption {
	return func(p *PrometheusProvider) {
		p.registry = registry
	}
}

// WithoutRuntimeCollectors skips registering the Go and process collectors.
func WithoutRuntimeCollectors() PrometheusOption {
	return func(p *PrometheusProvider) {
		p.runtime = false
	}
}

// NewPrometheusProvider creates a new Prometheus metrics provider with its own
// registry and the Go runtime collectors.
//
// Example:
//
//	provider := observability.NewPrometheusProvider(
//	    observability.WithDurationBuckets([]float64{0.001, 0.01, 0.1, 1}),
//	)
//	http.Handle("/metrics", provider.Handler())
func NewPrometheusProvider(opts ...PrometheusOption) *PrometheusProvider {
	p := &PrometheusProvider{
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		durationBuckets: []float64{
			0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
		},
		runtime: true,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.runtime {
		p.registry.MustRegister(collectors.NewGoCollector())
		p.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	return p
}

func (p *PrometheusProvider) Counter(_ context.Context, name string, value int64, labels map[string]string) {
	p.counterVec(name, labels).With(labels).Add(float64(value))
}

func (p *PrometheusProvider) Gauge(_ context.Context, name string, value float64, labels map[string]string) {
	p.gaugeVec(name, labels).With(labels).Add(value)
}

func (p *PrometheusProvider) Histogram(_ context.Context, name string, value float64, labels map[string]string) {
	p.histogramVec(name, labels).With(labels).Observe(value)
}

func (p *PrometheusProvider) RecordDuration(_ context.Context, name string, duration time.Duration, labels map[string]string) {
	p.histogramVec(name, labels).With(labels).Observe(duration.Seconds())
}

// Handler returns an HTTP handler for Prometheus metrics scraping
func (p *PrometheusProvider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the underlying Prometheus registry
func (p *PrometheusProvider) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusProvider) counterVec(name string, labels map[string]string) *prometheus.CounterVec {
	return getOrCreate(&p.mu, p.counters, name, func() *prometheus.CounterVec {
		vec := prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: name,
			Help: "Counter for " + name,
		}, labelNames(labels))
		p.registry.MustRegister(vec)
		return vec
	})
}

func (p *PrometheusProvider) gaugeVec(name string, labels map[string]string) *prometheus.GaugeVec {
	return getOrCreate(&p.mu, p.gauges, name, func() *prometheus.GaugeVec {
		vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: name,
			Help: "Gauge for " + name,
		}, labelNames(labels))
		p.registry.MustRegister(vec)
		return vec
	})
}

func (p *PrometheusProvider) histogramVec(name string, labels map[string]string) *prometheus.HistogramVec {
	return getOrCreate(&p.mu, p.histograms, name, func() *prometheus.HistogramVec {
		vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    name,
			Help:    "Histogram for " + name,
			Buckets: p.durationBuckets,
		}, labelNames(labels))
		p.registry.MustRegister(vec)
		return vec
	})
}

// getOrCreate looks the vector up under the read lock and creates it under
// the write lock, re-checking after the upgrade.
func getOrCreate[V any](mu *sync.RWMutex, m map[string]V, name string, create func() V) V {
	mu.RLock()
	v, ok := m[name]
	mu.RUnlock()
	if ok {
		return v
	}

	mu.Lock()
	defer mu.Unlock()
	if v, ok = m[name]; ok {
		return v
	}
	v = create()
	m[name] = v
	return v
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

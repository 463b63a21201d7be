package audit

import (
	"context"

	"github.com/calque-ai/ragate/pkg/observability"
)

// MetricsSink counts events by type and severity as
// <namespace>_audit_events_total{type,severity}.
type MetricsSink struct {
	rec *observability.Recorder
}

// NewMetricsSink creates a MetricsSink recording into provider.
func NewMetricsSink(provider observability.MetricsProvider) *MetricsSink {
	return &MetricsSink{
		rec: observability.NewRecorder(provider, observability.WithMetricsSubsystem("audit")),
	}
}

func (s *MetricsSink) Record(e Event) {
	s.rec.Count(context.Background(), "events_total", observability.Labels{
		"type":     string(e.Type),
		"severity": string(e.Severity),
	})
}

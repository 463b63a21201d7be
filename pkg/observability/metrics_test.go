package observability

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  MetricsConfig
		want string
	}{
		{"namespace and subsystem", MetricsConfig{Namespace: "ragate", Subsystem: "gate"}, "ragate_gate_verdicts_total"},
		{"namespace only", MetricsConfig{Namespace: "ragate"}, "ragate_verdicts_total"},
		{"subsystem only", MetricsConfig{Subsystem: "gate"}, "gate_verdicts_total"},
		{"bare", MetricsConfig{}, "verdicts_total"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := metricName(tt.cfg, "verdicts_total"); got != tt.want {
				t.Errorf("metricName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	provider := NewInMemoryMetricsProvider()
	rec := NewRecorder(provider,
		WithMetricsSubsystem("retrieval"),
		WithMetricsLabels(Labels{"backend": "mock"}),
	)
	ctx := context.Background()

	rec.Count(ctx, "requests_total", Labels{"outcome": "ok"})
	rec.Count(ctx, "requests_total", Labels{"outcome": "ok"})
	rec.Observe(ctx, "candidates", 7, nil)
	rec.Add(ctx, "inflight", 2, nil)
	rec.Add(ctx, "inflight", -1, nil)
	rec.Since(ctx, "stage_seconds", time.Now().Add(-time.Millisecond), nil)

	labels := map[string]string{"backend": "mock", "outcome": "ok"}
	if got := provider.GetCounter("ragate_retrieval_requests_total", labels); got != 2 {
		t.Errorf("counter = %d, want 2", got)
	}
	base := map[string]string{"backend": "mock"}
	if got := provider.GetHistogram("ragate_retrieval_candidates", base); len(got) != 1 || got[0] != 7 {
		t.Errorf("histogram = %v, want [7]", got)
	}
	if got := provider.GetGauge("ragate_retrieval_inflight", base); got != 1 {
		t.Errorf("gauge = %v, want 1", got)
	}
	if got := provider.GetHistogram("ragate_retrieval_stage_seconds", base); len(got) != 1 || got[0] <= 0 {
		t.Errorf("duration histogram = %v", got)
	}
}

func TestRecorder_NilProvider(t *testing.T) {
	t.Parallel()

	rec := NewRecorder(nil)
	rec.Count(context.Background(), "anything", nil)
}

func TestMetricsKey_StableOrder(t *testing.T) {
	t.Parallel()

	labels := map[string]string{"z": "1", "a": "2", "m": "3"}
	want := "metric|a=2|m=3|z=1"
	for range 20 {
		if got := metricsKey("metric", labels); got != want {
			t.Fatalf("metricsKey() = %q, want %q", got, want)
		}
	}
}

func TestPrometheusProvider(t *testing.T) {
	t.Parallel()

	p := NewPrometheusProvider(WithoutRuntimeCollectors())
	ctx := context.Background()

	p.Counter(ctx, "ragate_gate_verdicts_total", 3, map[string]string{"outcome": "admitted"})
	p.Gauge(ctx, "ragate_gate_identities", 5, nil)
	p.Histogram(ctx, "ragate_retrieval_candidates", 4, map[string]string{"stage": "fetch"})
	p.RecordDuration(ctx, "ragate_retrieval_seconds", 20*time.Millisecond, map[string]string{"stage": "rank"})

	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	out := string(body)

	for _, want := range []string{
		`ragate_gate_verdicts_total{outcome="admitted"} 3`,
		`ragate_gate_identities 5`,
		`ragate_retrieval_candidates_count{stage="fetch"} 1`,
		`ragate_retrieval_seconds_count{stage="rank"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("scrape output missing %q", want)
		}
	}

	if p.Registry() == nil {
		t.Error("Registry() should not be nil")
	}
}

func TestLabels_Merge(t *testing.T) {
	t.Parallel()

	base := Labels{"backend": "qdrant", "env": "prod"}
	merged := base.Merge(Labels{"env": "staging", "stage": "fetch"})

	if merged["backend"] != "qdrant" || merged["env"] != "staging" || merged["stage"] != "fetch" {
		t.Errorf("Merge() = %v", merged)
	}
	if base["env"] != "prod" {
		t.Error("Merge() must not modify the receiver")
	}
}

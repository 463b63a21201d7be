package qdrant

import (
	"testing"

	"github.com/google/uuid"
	qd "github.com/qdrant/go-client/qdrant"

	"github.com/calque-ai/ragate/pkg/embedding"
	"github.com/calque-ai/ragate/pkg/retrieval"
)

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	embedder := embedding.NewHashing(16)
	tests := []struct {
		name   string
		config *Config
	}{
		{name: "nil config", config: nil},
		{name: "missing URL", config: &Config{EmbeddingProvider: embedder}},
		{name: "missing embedder", config: &Config{URL: "http://localhost:6334"}},
		{name: "invalid URL", config: &Config{URL: "ht!tp://invalid url", EmbeddingProvider: embedder}},
		{name: "missing host", config: &Config{URL: "http://:6334", EmbeddingProvider: embedder}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := New(tt.config); err == nil {
				t.Error("New() accepted invalid config")
			}
		})
	}
}

func TestParseEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw      string
		wantHost string
		wantPort int
		wantTLS  bool
		wantErr  bool
	}{
		{raw: "http://localhost:6334", wantHost: "localhost", wantPort: 6334},
		{raw: "http://localhost", wantHost: "localhost", wantPort: DefaultPort},
		{raw: "https://cluster.example.com:443", wantHost: "cluster.example.com", wantPort: 443, wantTLS: true},
		{raw: "http://[::1]:7000", wantHost: "::1", wantPort: 7000},
		{raw: "http://localhost:port", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			host, port, useTLS, err := parseEndpoint(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseEndpoint() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if host != tt.wantHost || port != tt.wantPort || useTLS != tt.wantTLS {
				t.Errorf("parseEndpoint() = (%q, %d, %v), want (%q, %d, %v)",
					host, port, useTLS, tt.wantHost, tt.wantPort, tt.wantTLS)
			}
		})
	}
}

func TestPointID(t *testing.T) {
	t.Parallel()

	existing := uuid.NewString()
	if got := pointID(existing); got != existing {
		t.Errorf("pointID(uuid) = %q, want unchanged", got)
	}

	a, b := pointID("doc-1"), pointID("doc-1")
	if a != b {
		t.Errorf("pointID not deterministic: %q != %q", a, b)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("pointID(doc-1) = %q is not a UUID", a)
	}
	if a == pointID("doc-2") {
		t.Error("different ids map to the same point id")
	}
}

func TestBuildPayload(t *testing.T) {
	t.Parallel()

	payload := buildPayload(retrieval.Document{
		ID:       "doc-1",
		Content:  "hello",
		Metadata: map[string]string{"timestamp": "2026-01-01", "content": "shadowed"},
	})

	if got := payload[contentKey].GetStringValue(); got != "hello" {
		t.Errorf("content = %q, want hello", got)
	}
	if got := payload[sourceIDKey].GetStringValue(); got != "doc-1" {
		t.Errorf("source_id = %q, want doc-1", got)
	}
	if got := payload["timestamp"].GetStringValue(); got != "2026-01-01" {
		t.Errorf("timestamp = %q", got)
	}
}

func TestPointToHit(t *testing.T) {
	t.Parallel()

	point := &qd.ScoredPoint{
		Id:    qd.NewID("7f8a3c3e-0000-5000-8000-000000000001"),
		Score: 0.8,
		Payload: map[string]*qd.Value{
			contentKey:  qd.NewValueString("passage text"),
			sourceIDKey: qd.NewValueString("doc-9"),
			"timestamp": qd.NewValueString("2026-01-01"),
			"page":      qd.NewValueInt(3),
			"score":     qd.NewValueDouble(0.5),
			"draft":     qd.NewValueBool(false),
			"tags":      {Kind: &qd.Value_ListValue{ListValue: &qd.ListValue{}}},
		},
	}

	hit := pointToHit(point)
	if hit.Content != "passage text" || hit.SourceID != "doc-9" {
		t.Errorf("hit = %+v", hit)
	}
	if d := hit.Score - 0.2; d > 1e-6 || d < -1e-6 {
		t.Errorf("Score = %v, want distance 0.2", hit.Score)
	}
	want := map[string]string{"timestamp": "2026-01-01", "page": "3", "score": "0.5", "draft": "false"}
	if len(hit.Metadata) != len(want) {
		t.Errorf("Metadata = %v, want %v", hit.Metadata, want)
	}
	for k, v := range want {
		if hit.Metadata[k] != v {
			t.Errorf("Metadata[%q] = %q, want %q", k, hit.Metadata[k], v)
		}
	}
}

func TestPointToHit_FallbackSourceID(t *testing.T) {
	t.Parallel()

	hit := pointToHit(&qd.ScoredPoint{Id: qd.NewIDNum(42), Score: 1})
	if hit.SourceID != "42" {
		t.Errorf("SourceID = %q, want 42", hit.SourceID)
	}
	if hit.Score != 0 {
		t.Errorf("Score = %v, want 0", hit.Score)
	}
}

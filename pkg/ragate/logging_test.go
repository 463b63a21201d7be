package ragate

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newBufferedContext(level slog.Level) (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level}))
	ctx := WithLogger(context.Background(), logger)
	ctx = WithTraceID(ctx, "trace-1")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithIdentity(ctx, "alice")
	return ctx, &buf
}

func TestLogHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		log   func(ctx context.Context)
		level string
		want  string
	}{
		{"info", func(ctx context.Context) { LogInfo(ctx, "query admitted", "k", 5) }, "INFO", "k=5"},
		{"debug", func(ctx context.Context) { LogDebug(ctx, "candidates fetched", "count", 3) }, "DEBUG", "count=3"},
		{"warn", func(ctx context.Context) { LogWarn(ctx, "audit buffer full") }, "WARN", "audit buffer full"},
		{"error", func(ctx context.Context) { LogError(ctx, "search failed", errors.New("boom")) }, "ERROR", "error=boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx, buf := newBufferedContext(slog.LevelDebug)
			tt.log(ctx)

			out := buf.String()
			for _, want := range []string{tt.level, tt.want, "trace_id=trace-1", "request_id=req-1", "identity=alice"} {
				if !strings.Contains(out, want) {
					t.Errorf("output %q missing %q", out, want)
				}
			}
		})
	}
}

func TestLogHelpers_LevelDisabled(t *testing.T) {
	t.Parallel()

	ctx, buf := newBufferedContext(slog.LevelWarn)
	LogInfo(ctx, "hidden")
	LogDebug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got %q", buf.String())
	}
}

func TestLogWith(t *testing.T) {
	t.Parallel()

	ctx, buf := newBufferedContext(slog.LevelInfo)
	LogWith(ctx, "component", "retrieval").Info("ranked")

	out := buf.String()
	if !strings.Contains(out, "component=retrieval") || !strings.Contains(out, "request_id=req-1") {
		t.Errorf("LogWith() output %q missing fields", out)
	}
}

func TestLogAttr(t *testing.T) {
	t.Parallel()

	ctx, buf := newBufferedContext(slog.LevelInfo)
	LogErrorAttr(ctx, "fault", slog.String("kind", "search unavailable"))

	out := buf.String()
	if !strings.Contains(out, `kind="search unavailable"`) || !strings.Contains(out, "trace_id=trace-1") {
		t.Errorf("LogAttr() output %q missing fields", out)
	}
}

package ragate

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
)

func TestLogger_Default(t *testing.T) {
	t.Parallel()

	if Logger(context.Background()) != slog.Default() {
		t.Error("Logger() without a stored logger should return slog.Default()")
	}
}

func TestWithLogger(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)
	ctx := WithLogger(context.Background(), logger)
	if Logger(ctx) != logger {
		t.Error("Logger() did not return stored logger")
	}
}

func TestContextIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if TraceID(ctx) != "" || RequestID(ctx) != "" || Identity(ctx) != "" {
		t.Fatal("empty context should have no ids")
	}

	ctx = WithTraceID(ctx, "t-1")
	ctx = WithRequestID(ctx, "r-1")
	ctx = WithIdentity(ctx, "alice")

	if TraceID(ctx) != "t-1" {
		t.Errorf("TraceID() = %q", TraceID(ctx))
	}
	if RequestID(ctx) != "r-1" {
		t.Errorf("RequestID() = %q", RequestID(ctx))
	}
	if Identity(ctx) != "alice" {
		t.Errorf("Identity() = %q", Identity(ctx))
	}
}

func TestEnsureRequestID(t *testing.T) {
	t.Parallel()

	ctx, id := EnsureRequestID(context.Background())
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("generated id %q is not a uuid: %v", id, err)
	}
	if RequestID(ctx) != id {
		t.Error("generated id not stored in context")
	}

	same, again := EnsureRequestID(ctx)
	if again != id || same != ctx {
		t.Error("EnsureRequestID() should keep an existing id")
	}
}

func TestNewRequestID_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for range 100 {
		id := NewRequestID()
		if seen[id] {
			t.Fatalf("duplicate request id %q", id)
		}
		seen[id] = true
	}
}

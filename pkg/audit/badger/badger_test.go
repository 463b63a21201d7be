package badger

import (
	"context"
	"testing"
	"time"

	"github.com/calque-ai/ragate/pkg/audit"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", WithInMemory())
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_AppendList(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []audit.Event{
		{Type: audit.EventAdversarialDetected, Identity: "mallory", Severity: audit.SeverityHigh, Detail: "jailbreak", Timestamp: base.Add(2 * time.Second)},
		{Type: audit.EventQueryAdmitted, Identity: "alice", Severity: audit.SeverityLow, Timestamp: base},
		{Type: audit.EventRateLimitExceeded, Identity: "bob", Severity: audit.SeverityMedium, Timestamp: base.Add(time.Second)},
	}
	for _, e := range events {
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("Append() = %v", err)
		}
	}

	got, err := s.List(ctx, time.Time{}, 0)
	if err != nil {
		t.Fatalf("List() = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() len = %d, want 3", len(got))
	}
	wantOrder := []string{"alice", "bob", "mallory"}
	for i, id := range wantOrder {
		if got[i].Identity != id {
			t.Errorf("List()[%d].Identity = %q, want %q", i, got[i].Identity, id)
		}
	}
	if !got[2].Timestamp.Equal(base.Add(2*time.Second)) || got[2].Detail != "jailbreak" {
		t.Errorf("round-tripped event = %+v", got[2])
	}

	since, err := s.List(ctx, base.Add(time.Second), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(since) != 2 || since[0].Identity != "bob" {
		t.Errorf("List(since) = %+v", since)
	}

	limited, err := s.List(ctx, time.Time{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].Identity != "alice" {
		t.Errorf("List(limit 1) = %+v", limited)
	}

	n, err := s.Count()
	if err != nil || n != 3 {
		t.Errorf("Count() = %d, %v; want 3", n, err)
	}
}

func TestStore_SameTimestamp(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for range 5 {
		if err := s.Append(ctx, audit.Event{Type: audit.EventQueryAdmitted, Identity: "same", Timestamp: ts}); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := s.Count(); n != 5 {
		t.Errorf("Count() = %d, events with equal timestamps must not collide", n)
	}
}

func TestStore_CanceledContext(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Append(ctx, audit.Event{Type: audit.EventQueryAdmitted}); err == nil {
		t.Error("Append() with canceled context should fail")
	}
}

func TestStore_Health(t *testing.T) {
	t.Parallel()

	s, err := Open("", WithInMemory())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Health(context.Background()); err != nil {
		t.Errorf("Health() = %v", err)
	}
	s.Close()
	if err := s.Health(context.Background()); err == nil {
		t.Error("Health() after Close should fail")
	}
}

func TestStore_AsStoreSink(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	sink := audit.NewAsyncSink(ctx, audit.NewStoreSink(ctx, s), 8)
	sink.Record(audit.Event{Type: audit.EventInvalidQuery, Identity: "eve", Timestamp: time.Now()})
	if err := sink.Close(ctx); err != nil {
		t.Fatal(err)
	}

	got, err := s.List(ctx, time.Time{}, 0)
	if err != nil || len(got) != 1 || got[0].Identity != "eve" {
		t.Errorf("List() = %+v, %v", got, err)
	}
}

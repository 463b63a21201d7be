package audit

import (
	"fmt"
	"sync"
	"testing"
)

func TestRecorder_RecentRing(t *testing.T) {
	t.Parallel()

	r := NewRecorder(3)
	if got := r.Recent(0); len(got) != 0 {
		t.Fatalf("empty Recent() = %v", got)
	}

	for i := range 5 {
		r.Record(Event{Type: EventQueryAdmitted, Identity: fmt.Sprintf("u%d", i)})
	}

	got := r.Recent(0)
	if len(got) != 3 {
		t.Fatalf("Recent() len = %d, want 3", len(got))
	}
	for i, want := range []string{"u2", "u3", "u4"} {
		if got[i].Identity != want {
			t.Errorf("Recent()[%d] = %q, want %q", i, got[i].Identity, want)
		}
	}

	last := r.Recent(2)
	if len(last) != 2 || last[0].Identity != "u3" || last[1].Identity != "u4" {
		t.Errorf("Recent(2) = %+v", last)
	}
}

func TestRecorder_PartialRing(t *testing.T) {
	t.Parallel()

	r := NewRecorder(0)
	r.Record(Event{Identity: "a"})
	r.Record(Event{Identity: "b"})

	got := r.Recent(10)
	if len(got) != 2 || got[0].Identity != "a" || got[1].Identity != "b" {
		t.Errorf("Recent(10) = %+v", got)
	}
}

func TestRecorder_Stats(t *testing.T) {
	t.Parallel()

	r := NewRecorder(DefaultRecentEvents)
	for _, typ := range []EventType{
		EventQueryAdmitted, EventQueryAdmitted,
		EventRateLimitExceeded,
		EventInvalidQuery,
		EventAdversarialDetected,
		EventQueryError,
	} {
		r.Record(Event{Type: typ})
	}

	want := Stats{
		TotalQueries:        5,
		Admitted:            2,
		BlockedQueries:      1,
		RateLimitHits:       1,
		InvalidQueries:      1,
		AdversarialAttempts: 1,
		Errors:              1,
	}
	if got := r.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestRecorder_Concurrent(t *testing.T) {
	t.Parallel()

	r := NewRecorder(50)
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 100 {
				r.Record(Event{Type: EventQueryAdmitted})
				_ = r.Recent(5)
			}
		})
	}
	wg.Wait()

	if got := r.Stats().Admitted; got != 800 {
		t.Errorf("Admitted = %d, want 800", got)
	}
	if got := len(r.Recent(0)); got != 50 {
		t.Errorf("retained = %d, want 50", got)
	}
}

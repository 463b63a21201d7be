package audit

import (
	"sync"
)

// DefaultRecentEvents is the journal capacity used when none is given.
const DefaultRecentEvents = 50

// Stats aggregates the security counters.
type Stats struct {
	TotalQueries        uint64 `json:"total_queries"`
	Admitted            uint64 `json:"admitted"`
	BlockedQueries      uint64 `json:"blocked_queries"`
	RateLimitHits       uint64 `json:"rate_limit_hits"`
	InvalidQueries      uint64 `json:"invalid_queries"`
	AdversarialAttempts uint64 `json:"adversarial_attempts"`
	Errors              uint64 `json:"errors"`
}

// Recorder keeps the last N events in a ring and running counters.
type Recorder struct {
	mu    sync.Mutex
	ring  []Event
	next  int
	full  bool
	stats Stats
}

// NewRecorder creates a Recorder holding up to capacity events.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultRecentEvents
	}
	return &Recorder{ring: make([]Event, capacity)}
}

func (r *Recorder) Record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ring[r.next] = e
	r.next = (r.next + 1) % len(r.ring)
	if r.next == 0 {
		r.full = true
	}

	switch e.Type {
	case EventQueryAdmitted:
		r.stats.TotalQueries++
		r.stats.Admitted++
	case EventRateLimitExceeded:
		r.stats.TotalQueries++
		r.stats.RateLimitHits++
	case EventInvalidQuery:
		r.stats.TotalQueries++
		r.stats.InvalidQueries++
	case EventAdversarialDetected:
		r.stats.TotalQueries++
		r.stats.BlockedQueries++
		r.stats.AdversarialAttempts++
	case EventQueryError:
		r.stats.Errors++
	}
}

// Recent returns up to n of the most recent events, oldest first. n <= 0
// returns everything retained.
func (r *Recorder) Recent(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.next
	if r.full {
		size = len(r.ring)
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]Event, n)
	start := (r.next - n + len(r.ring)) % len(r.ring)
	for i := range n {
		out[i] = r.ring[(start+i)%len(r.ring)]
	}
	return out
}

// Stats returns a snapshot of the counters.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

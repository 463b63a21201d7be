package gate

import (
	"slices"
	"sync"
	"time"

	"github.com/calque-ai/ragate/pkg/helpers"
)

// RateGate bounds requests per identity over a trailing window. Each identity
// has its own window and lock, so identities never contend with each other.
type RateGate struct {
	maxRequests int
	window      time.Duration
	windows     sync.Map // Identity -> *rateWindow
}

type rateWindow struct {
	mu     sync.Mutex
	stamps []time.Time

	// dead is set under mu when Sweep removes the window from the map.
	dead bool
}

// NewRateGate creates a sliding-window limiter admitting at most maxRequests
// per window for each identity.
//
// Example:
//
//	rate, err := gate.NewRateGate(60, time.Minute)
//	if rate.Admit("alice", time.Now()) { ... }
func NewRateGate(maxRequests int, window time.Duration) (*RateGate, error) {
	if maxRequests <= 0 {
		return nil, helpers.NewError("invalid rate limit: max requests must be greater than 0, got %d", maxRequests)
	}
	if window <= 0 {
		return nil, helpers.NewError("invalid rate limit: window must be greater than 0, got %s", window)
	}
	return &RateGate{maxRequests: maxRequests, window: window}, nil
}

// MaxRequests returns the per-window limit.
func (g *RateGate) MaxRequests() int { return g.maxRequests }

// Window returns the trailing window length.
func (g *RateGate) Window() time.Duration { return g.window }

// Admit prunes timestamps older than now-window, then records now and returns
// true if fewer than MaxRequests remain. A denied request is not recorded.
func (g *RateGate) Admit(id Identity, now time.Time) bool {
	cutoff := now.Add(-g.window)
	for {
		w := g.windowFor(id)

		w.mu.Lock()
		if w.dead {
			// lost a race with Sweep; the next lookup creates a fresh window
			w.mu.Unlock()
			continue
		}
		w.prune(cutoff)
		if len(w.stamps) >= g.maxRequests {
			w.mu.Unlock()
			return false
		}
		w.stamps = append(w.stamps, now)
		w.mu.Unlock()
		return true
	}
}

// Remaining returns how many more requests id may make at now.
func (g *RateGate) Remaining(id Identity, now time.Time) int {
	v, ok := g.windows.Load(id)
	if !ok {
		return g.maxRequests
	}
	w := v.(*rateWindow)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dead {
		return g.maxRequests
	}
	w.prune(now.Add(-g.window))
	return max(0, g.maxRequests-len(w.stamps))
}

// Sweep drops identities whose windows are empty at now and returns how many
// were removed. Admit stays correct while a sweep runs.
func (g *RateGate) Sweep(now time.Time) int {
	cutoff := now.Add(-g.window)
	removed := 0

	g.windows.Range(func(key, value any) bool {
		w := value.(*rateWindow)
		w.mu.Lock()
		w.prune(cutoff)
		if len(w.stamps) == 0 && !w.dead {
			w.dead = true
			g.windows.CompareAndDelete(key, w)
			removed++
		}
		w.mu.Unlock()
		return true
	})

	return removed
}

// Tracked returns the number of identities currently holding a window.
func (g *RateGate) Tracked() int {
	n := 0
	g.windows.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (g *RateGate) windowFor(id Identity) *rateWindow {
	if v, ok := g.windows.Load(id); ok {
		return v.(*rateWindow)
	}
	v, _ := g.windows.LoadOrStore(id, &rateWindow{})
	return v.(*rateWindow)
}

// prune keeps stamps at or after cutoff. Callers may pass non-monotonic
// times, so every stamp is checked.
func (w *rateWindow) prune(cutoff time.Time) {
	w.stamps = slices.DeleteFunc(w.stamps, func(ts time.Time) bool {
		return ts.Before(cutoff)
	})
}

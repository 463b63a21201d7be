package gate

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestNewRateGate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		max     int
		window  time.Duration
		wantErr bool
	}{
		{name: "valid", max: 60, window: time.Minute},
		{name: "zero max", max: 0, window: time.Minute, wantErr: true},
		{name: "negative max", max: -1, window: time.Minute, wantErr: true},
		{name: "zero window", max: 1, window: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g, err := NewRateGate(tt.max, tt.window)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewRateGate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (g.MaxRequests() != tt.max || g.Window() != tt.window) {
				t.Errorf("got %d/%s, want %d/%s", g.MaxRequests(), g.Window(), tt.max, tt.window)
			}
		})
	}
}

func TestRateGate_SixtyPerMinute(t *testing.T) {
	t.Parallel()

	g, err := NewRateGate(60, 60*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	for i := range 60 {
		now := t0.Add(time.Duration(i) * 500 * time.Millisecond)
		if !g.Admit("alice", now) {
			t.Fatalf("request %d denied, want admitted", i+1)
		}
	}
	if g.Admit("alice", t0.Add(59*time.Second)) {
		t.Fatal("61st request admitted, want denied")
	}
}

func TestRateGate_SlidingWindow(t *testing.T) {
	t.Parallel()

	g, _ := NewRateGate(3, 10*time.Second)

	for i := range 3 {
		if !g.Admit("a", t0) {
			t.Fatalf("request %d denied", i+1)
		}
	}

	steps := []struct {
		at   time.Duration
		want bool
	}{
		{at: 0, want: false},
		{at: 5 * time.Second, want: false},
		// stamps exactly at now-window are still inside it
		{at: 10 * time.Second, want: false},
		{at: 10*time.Second + time.Nanosecond, want: true},
	}
	for _, s := range steps {
		if got := g.Admit("a", t0.Add(s.at)); got != s.want {
			t.Errorf("Admit at +%s = %v, want %v", s.at, got, s.want)
		}
	}
}

func TestRateGate_DenialNotRecorded(t *testing.T) {
	t.Parallel()

	g, _ := NewRateGate(1, 10*time.Second)

	if !g.Admit("a", t0) {
		t.Fatal("first request denied")
	}
	if g.Admit("a", t0.Add(5*time.Second)) {
		t.Fatal("second request admitted")
	}
	// only the t0 stamp exists, so the window is free again just after t0+10s
	if !g.Admit("a", t0.Add(10*time.Second+time.Millisecond)) {
		t.Fatal("denied request was recorded")
	}
}

func TestRateGate_IdentitiesIndependent(t *testing.T) {
	t.Parallel()

	g, _ := NewRateGate(1, time.Minute)

	if !g.Admit("a", t0) || !g.Admit("b", t0) {
		t.Fatal("first request per identity must be admitted")
	}
	if g.Admit("a", t0) {
		t.Error("a admitted twice")
	}
	if got := g.Tracked(); got != 2 {
		t.Errorf("Tracked() = %d, want 2", got)
	}
}

func TestRateGate_Concurrent(t *testing.T) {
	t.Parallel()

	const limit = 100
	g, _ := NewRateGate(limit, time.Minute)

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			for range 10 {
				if g.Admit("shared", t0) {
					admitted.Add(1)
				}
			}
		})
	}
	wg.Wait()

	if got := admitted.Load(); got != limit {
		t.Errorf("admitted %d, want exactly %d", got, limit)
	}
	if got := g.Remaining("shared", t0); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}
}

func TestRateGate_Remaining(t *testing.T) {
	t.Parallel()

	g, _ := NewRateGate(3, 10*time.Second)

	if got := g.Remaining("new", t0); got != 3 {
		t.Errorf("unknown identity Remaining() = %d, want 3", got)
	}
	g.Admit("a", t0)
	if got := g.Remaining("a", t0); got != 2 {
		t.Errorf("Remaining() = %d, want 2", got)
	}
	g.Admit("a", t0)
	g.Admit("a", t0)
	g.Admit("a", t0)
	if got := g.Remaining("a", t0); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}
	if got := g.Remaining("a", t0.Add(11*time.Second)); got != 3 {
		t.Errorf("Remaining() after window = %d, want 3", got)
	}
}

func TestRateGate_Sweep(t *testing.T) {
	t.Parallel()

	g, _ := NewRateGate(2, 10*time.Second)
	g.Admit("idle", t0)
	g.Admit("busy", t0.Add(8*time.Second))

	if got := g.Sweep(t0.Add(5 * time.Second)); got != 0 {
		t.Errorf("early Sweep() = %d, want 0", got)
	}
	if got := g.Sweep(t0.Add(11 * time.Second)); got != 1 {
		t.Errorf("Sweep() = %d, want 1", got)
	}
	if got := g.Tracked(); got != 1 {
		t.Errorf("Tracked() = %d, want 1", got)
	}
	if !g.Admit("idle", t0.Add(12*time.Second)) {
		t.Error("swept identity must get a fresh window")
	}
	if got := g.Tracked(); got != 2 {
		t.Errorf("Tracked() = %d, want 2", got)
	}
}

func TestRateGate_SweepDuringAdmit(t *testing.T) {
	t.Parallel()

	const (
		identities = 5
		workers    = 20
		perWorker  = 20
	)
	g, _ := NewRateGate(1000, time.Minute)

	stop := make(chan struct{})
	var sweeper sync.WaitGroup
	sweeper.Go(func() {
		for {
			select {
			case <-stop:
				return
			default:
				g.Sweep(t0)
			}
		}
	})

	var wg sync.WaitGroup
	for w := range workers {
		wg.Go(func() {
			id := Identity(fmt.Sprintf("id-%d", w%identities))
			for range perWorker {
				if !g.Admit(id, t0) {
					t.Errorf("%s denied below the limit", id)
				}
			}
		})
	}
	wg.Wait()
	close(stop)
	sweeper.Wait()

	want := workers * perWorker / identities
	for i := range identities {
		id := Identity(fmt.Sprintf("id-%d", i))
		if used := g.MaxRequests() - g.Remaining(id, t0); used != want {
			t.Errorf("%s recorded %d requests, want %d", id, used, want)
		}
	}
}

package audit

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/calque-ai/ragate/pkg/ragate"
)

// Sink receives audit events. Record must not block for long and cannot fail.
type Sink interface {
	Record(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Record(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

type multiSink []Sink

func (m multiSink) Record(e Event) {
	for _, s := range m {
		s.Record(e)
	}
}

// Multi fans each event out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

// DefaultBufferSize is the AsyncSink queue length used when none is given.
const DefaultBufferSize = 256

// AsyncSink forwards events to another sink from a single worker goroutine.
// Record never blocks: when the buffer is full the event is dropped and
// counted.
type AsyncSink struct {
	next    Sink
	events  chan Event
	done    chan struct{}
	dropped atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

// NewAsyncSink starts the worker. ctx is used only for logging dropped events.
func NewAsyncSink(ctx context.Context, next Sink, bufferSize int) *AsyncSink {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	s := &AsyncSink{
		next:   next,
		events: make(chan Event, bufferSize),
		done:   make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *AsyncSink) run(ctx context.Context) {
	defer close(s.done)
	for e := range s.events {
		s.next.Record(e)
	}
	if n := s.dropped.Load(); n > 0 {
		ragate.LogWarn(ctx, "audit events dropped", "count", n)
	}
}

func (s *AsyncSink) Record(e Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.events <- e:
	default:
		s.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded.
func (s *AsyncSink) Dropped() uint64 {
	return s.dropped.Load()
}

// Close stops accepting events and waits until queued events are delivered
// or ctx is done.
func (s *AsyncSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

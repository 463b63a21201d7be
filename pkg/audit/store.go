package audit

import (
	"context"
	"time"

	"github.com/calque-ai/ragate/pkg/ragate"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, e Event) error

	// List returns events at or after since, oldest first, at most limit
	// (limit <= 0 means no limit).
	List(ctx context.Context, since time.Time, limit int) ([]Event, error)
}

// StoreSink writes events to a Store. Write failures are logged, never
// returned; wrap it in an AsyncSink to keep I/O off the request path.
type StoreSink struct {
	ctx   context.Context
	store Store
}

// NewStoreSink creates a StoreSink. ctx carries the logger used for failures.
func NewStoreSink(ctx context.Context, store Store) *StoreSink {
	return &StoreSink{ctx: ctx, store: store}
}

func (s *StoreSink) Record(e Event) {
	if err := s.store.Append(s.ctx, e); err != nil {
		ragate.LogError(s.ctx, "failed to persist audit event", err, "event_type", string(e.Type))
	}
}

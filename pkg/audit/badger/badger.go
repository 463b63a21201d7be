// Package badger persists audit events in an embedded BadgerDB. Keys are
// ordered by event time so range scans return events chronologically.
package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/calque-ai/ragate/pkg/audit"
	"github.com/calque-ai/ragate/pkg/helpers"
)

const keyPrefix = "audit/"

// Store implements audit.Store using BadgerDB
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// Option configures a Store
type Option func(*options)

type options struct {
	inMemory bool
	ttl      time.Duration
}

// WithInMemory keeps the database in memory only; path is ignored.
func WithInMemory() Option {
	return func(o *options) { o.inMemory = true }
}

// WithRetention expires events after ttl. Zero keeps events forever.
func WithRetention(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// Open opens (or creates) the store at path.
func Open(path string, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	bopts := badger.DefaultOptions(path).WithLogger(nil)
	if o.inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, helpers.WrapErrorf(err, "failed to open audit store at %q", path)
	}
	return &Store{db: db, ttl: o.ttl}, nil
}

var _ audit.Store = (*Store)(nil)

// eventKey is prefix | big-endian unix nanos | random suffix.
func eventKey(ts time.Time) []byte {
	key := make([]byte, 0, len(keyPrefix)+8+16)
	key = append(key, keyPrefix...)
	key = binary.BigEndian.AppendUint64(key, uint64(ts.UnixNano()))
	id := uuid.New()
	return append(key, id[:]...)
}

func timeKey(ts time.Time) []byte {
	key := make([]byte, 0, len(keyPrefix)+8)
	key = append(key, keyPrefix...)
	return binary.BigEndian.AppendUint64(key, uint64(ts.UnixNano()))
}

func (s *Store) Append(ctx context.Context, e audit.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	value, err := json.Marshal(e)
	if err != nil {
		return helpers.WrapError(err, "failed to encode audit event")
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(eventKey(e.Timestamp), value)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (s *Store) List(ctx context.Context, since time.Time, limit int) ([]audit.Event, error) {
	var events []audit.Event

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: true,
			PrefetchSize:   100,
			Prefix:         []byte(keyPrefix),
		})
		defer it.Close()

		start := []byte(keyPrefix)
		if !since.IsZero() {
			start = timeKey(since)
		}

		for it.Seek(start); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var e audit.Event
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return helpers.WrapError(err, "failed to decode audit event")
			}
			events = append(events, e)
			if limit > 0 && len(events) >= limit {
				return nil
			}
		}
		return nil
	})
	return events, err
}

// Count returns the number of stored events.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Health reports whether the database is open.
func (s *Store) Health(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("audit store is closed")
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

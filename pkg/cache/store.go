package cache

import (
	"slices"
	"sync"
	"time"
)

// DefaultCleanupInterval is how often expired entries are evicted.
const DefaultCleanupInterval = 5 * time.Minute

// InMemoryStore is a map-backed Store with per-entry TTL. Expired entries are
// invisible to readers immediately and are evicted by a background sweep.
type InMemoryStore struct {
	data map[string]*cacheEntry
	mu   sync.RWMutex
	now  func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// StoreOption configures an InMemoryStore
type StoreOption func(*InMemoryStore)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *InMemoryStore) {
		s.now = now
	}
}

// NewInMemoryStore creates a store and starts its cleanup goroutine. Call
// Close to stop the goroutine.
func NewInMemoryStore(cleanupInterval time.Duration, opts ...StoreOption) *InMemoryStore {
	store := &InMemoryStore{
		data: make(map[string]*cacheEntry),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(store)
	}

	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	go store.backgroundCleanup(cleanupInterval)

	return store
}

func (s *InMemoryStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.data[key]
	if !exists || !s.live(entry) {
		return nil, nil
	}
	return slices.Clone(entry.data), nil
}

// Set stores a copy of value. A non-positive ttl stores nothing.
func (s *InMemoryStore) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = &cacheEntry{
		data:      slices.Clone(value),
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *InMemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

func (s *InMemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]*cacheEntry)
	return nil
}

func (s *InMemoryStore) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.data[key]
	return exists && s.live(entry)
}

func (s *InMemoryStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for key, entry := range s.data {
		if s.live(entry) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of stored entries, expired or not.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close stops the background cleanup. It is safe to call more than once.
func (s *InMemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *InMemoryStore) live(entry *cacheEntry) bool {
	return s.now().Before(entry.expiresAt)
}

func (s *InMemoryStore) backgroundCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stop:
			return
		}
	}
}

func (s *InMemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.data {
		if !s.live(entry) {
			delete(s.data, key)
		}
	}
}

package retrieval

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/calque-ai/ragate/pkg/cache"
	"github.com/calque-ai/ragate/pkg/ragate"
)

// DefaultCacheTTL is how long a cached search response stays valid.
const DefaultCacheTTL = 5 * time.Minute

// CachingSearcher memoises successful responses of another Searcher by
// (namespace, text, limit). Errors are never cached.
type CachingSearcher struct {
	next      Searcher
	store     cache.Store
	ttl       time.Duration
	namespace string
}

// NewCachingSearcher wraps next. namespace separates backends sharing a store.
//
// Example:
//
//	store := cache.NewInMemoryStore(cache.DefaultCleanupInterval)
//	searcher := retrieval.NewCachingSearcher(qdrantClient, store, time.Minute, "qdrant")
func NewCachingSearcher(next Searcher, store cache.Store, ttl time.Duration, namespace string) *CachingSearcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachingSearcher{next: next, store: store, ttl: ttl, namespace: namespace}
}

func (s *CachingSearcher) Search(ctx context.Context, text string, limit int) ([]SearchHit, error) {
	key := cache.Key("search", s.namespace, text, strconv.Itoa(limit))

	if data, err := s.store.Get(key); err == nil && data != nil {
		var hits []SearchHit
		if err := json.Unmarshal(data, &hits); err == nil {
			ragate.LogDebug(ctx, "search cache hit", "limit", limit)
			return hits, nil
		}
		// undecodable entry; fall through and overwrite it
		_ = s.store.Delete(key)
	}

	hits, err := s.next.Search(ctx, text, limit)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(hits); err == nil {
		if err := s.store.Set(key, data, s.ttl); err != nil {
			ragate.LogWarn(ctx, "search cache write failed", "error", err)
		}
	}
	return hits, nil
}

// Package mock is an in-memory retrieval.Searcher over a fixed corpus. It
// scores documents by bag-of-words cosine similarity, so results are
// deterministic without an embedding model.
package mock

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/calque-ai/ragate/pkg/retrieval"
)

// Searcher serves retrieval.SearchHit values from documents held in memory.
type Searcher struct {
	mu   sync.RWMutex
	docs []indexedDoc

	delay time.Duration
	err   error
	calls int
}

type indexedDoc struct {
	doc   retrieval.Document
	terms map[string]float64
	norm  float64
}

// Option configures a Searcher
type Option func(*Searcher)

// WithDelay makes every Search wait d, or until the context is done.
func WithDelay(d time.Duration) Option {
	return func(s *Searcher) { s.delay = d }
}

// WithError makes every Search fail with err.
func WithError(err error) Option {
	return func(s *Searcher) { s.err = err }
}

// New creates a Searcher holding docs.
func New(docs []retrieval.Document, opts ...Option) *Searcher {
	s := &Searcher{}
	for _, opt := range opts {
		opt(s)
	}
	s.Store(docs...)
	return s
}

// Store appends documents to the corpus. Documents with empty content are skipped.
func (s *Searcher) Store(docs ...retrieval.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		if strings.TrimSpace(d.Content) == "" {
			continue
		}
		terms, norm := termVector(d.Content)
		s.docs = append(s.docs, indexedDoc{doc: d, terms: terms, norm: norm})
	}
}

// Len returns the corpus size.
func (s *Searcher) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Calls returns how many times Search has been invoked.
func (s *Searcher) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

// Search returns up to limit documents ordered by ascending cosine distance.
// Ties keep corpus order.
func (s *Searcher) Search(ctx context.Context, text string, limit int) ([]retrieval.SearchHit, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	if limit <= 0 {
		return []retrieval.SearchHit{}, nil
	}

	qterms, qnorm := termVector(text)

	s.mu.RLock()
	hits := make([]retrieval.SearchHit, 0, len(s.docs))
	for _, d := range s.docs {
		hits = append(hits, retrieval.SearchHit{
			Content:  d.doc.Content,
			SourceID: d.doc.ID,
			Score:    1 - cosine(qterms, qnorm, d.terms, d.norm),
			Metadata: d.doc.Metadata,
		})
	}
	s.mu.RUnlock()

	slices.SortStableFunc(hits, func(a, b retrieval.SearchHit) int {
		return cmp.Compare(a.Score, b.Score)
	})
	return hits[:min(limit, len(hits))], nil
}

// Health always succeeds unless the searcher was built WithError.
func (s *Searcher) Health(context.Context) error {
	return s.err
}

// Close is a no-op.
func (s *Searcher) Close() error { return nil }

func termVector(text string) (map[string]float64, float64) {
	terms := make(map[string]float64)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return strings.ContainsRune(".,;:!?\"'()[]{}", r)
		})
		if w != "" {
			terms[w]++
		}
	}
	sum := 0.0
	for _, v := range terms {
		sum += v * v
	}
	return terms, math.Sqrt(sum)
}

func cosine(a map[string]float64, anorm float64, b map[string]float64, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	dot := 0.0
	for w, av := range a {
		dot += av * b[w]
	}
	return dot / (anorm * bnorm)
}

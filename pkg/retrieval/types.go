// Package retrieval turns an admitted query into a small ranked set of
// context passages: over-fetch from a similarity search, drop weak matches,
// drop near-duplicates, then rank by a content quality heuristic.
//
// Backends live in subpackages (qdrant, pgvector, weaviate, mock) and all
// implement Searcher with Score as a distance: lower is more relevant.
package retrieval

import (
	"context"
)

// Searcher is the similarity-search backend contract.
//
// Hits come back in decreasing relevance order, possibly fewer than limit.
// Score is a distance; adapters convert backend similarities to 1 - s.
type Searcher interface {
	Search(ctx context.Context, text string, limit int) ([]SearchHit, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, text string, limit int) ([]SearchHit, error)

func (f SearcherFunc) Search(ctx context.Context, text string, limit int) ([]SearchHit, error) {
	return f(ctx, text, limit)
}

// SearchHit is one backend result.
type SearchHit struct {
	Content  string            `json:"content"`
	SourceID string            `json:"source_id"`
	Score    float64           `json:"score"` // distance, lower is better
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Candidate is a fetched passage moving through the engine stages.
type Candidate struct {
	Content  string
	SourceID string
	Distance float64
	Metadata map[string]string
}

// Similarity returns 1 - Distance.
func (c Candidate) Similarity() float64 {
	return 1 - c.Distance
}

// RankedCandidate is a final result with its 1-based rank and quality score.
type RankedCandidate struct {
	Candidate
	Rank    int     `json:"rank"`
	Quality float64 `json:"quality"`
}

// Result is the outcome of Engine.Retrieve. The caller owns it.
type Result struct {
	Query      string
	Candidates []RankedCandidate

	// Stage counts: fetched from the backend, above the similarity
	// threshold, and after diversity filtering.
	Fetched  int
	Relevant int
	Diverse  int

	// TimedOut is set when the caller's deadline expired during search.
	TimedOut bool
}

// Len returns the number of ranked candidates.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Candidates)
}

// Document is a passage to index into a backend. Adapters accept it for
// seeding test and demo collections.
type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// EmbeddingVector is a dense query or document embedding.
type EmbeddingVector []float32

// EmbeddingProvider turns text into a vector for backends that search by vector.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) (EmbeddingVector, error)
}

// EmbeddingFunc adapts a function to EmbeddingProvider.
type EmbeddingFunc func(ctx context.Context, text string) (EmbeddingVector, error)

func (f EmbeddingFunc) Embed(ctx context.Context, text string) (EmbeddingVector, error) {
	return f(ctx, text)
}

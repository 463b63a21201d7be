package retrieval

import (
	"context"
	"log/slog"
	"math"

	"github.com/calque-ai/ragate/pkg/ragate"
)

// OverFetchFactor is how many candidates are requested per final result.
const OverFetchFactor = 2

// CandidateRetriever over-fetches from a Searcher.
type CandidateRetriever struct {
	searcher Searcher
}

// NewCandidateRetriever wraps searcher.
func NewCandidateRetriever(searcher Searcher) *CandidateRetriever {
	return &CandidateRetriever{searcher: searcher}
}

// Fetch asks the backend for 2k hits. Fewer hits are fine and zero hits give
// an empty slice. k <= 0 returns empty without calling the backend.
//
// Backend errors become a *Fault of kind ErrSearchUnavailable; hits with a
// NaN or infinite score become ErrMalformedResponse.
func (r *CandidateRetriever) Fetch(ctx context.Context, query string, k int) ([]Candidate, error) {
	if k <= 0 {
		return []Candidate{}, nil
	}
	limit := OverFetchFactor * k

	hits, err := r.searcher.Search(ctx, query, limit)
	if err != nil {
		return nil, newFault(ErrSearchUnavailable,
			ragate.WrapErr(ctx, err, "similarity search failed").Tag(slog.Int("limit", limit)))
	}

	candidates := make([]Candidate, 0, len(hits))
	for i, h := range hits {
		if math.IsNaN(h.Score) || math.IsInf(h.Score, 0) {
			return nil, newFault(ErrMalformedResponse,
				ragate.NewErr(ctx, "invalid hit score").Tags(
					slog.Int("index", i),
					slog.String("source_id", h.SourceID),
					slog.Float64("score", h.Score),
				))
		}
		candidates = append(candidates, Candidate{
			Content:  h.Content,
			SourceID: h.SourceID,
			Distance: h.Score,
			Metadata: h.Metadata,
		})
	}

	ragate.LogDebug(ctx, "candidates fetched", "requested", limit, "returned", len(candidates))
	return candidates, nil
}

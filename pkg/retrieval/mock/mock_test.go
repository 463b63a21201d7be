package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calque-ai/ragate/pkg/retrieval"
)

var corpus = []retrieval.Document{
	{ID: "rate", Content: "A sliding window rate limit bounds requests per identity."},
	{ID: "vec", Content: "Vector databases store embeddings for similarity search.", Metadata: map[string]string{"timestamp": "2024-01-01"}},
	{ID: "rank", Content: "Quality ranking prefers long passages with query overlap."},
	{ID: "empty", Content: "   "},
}

func TestSearcher_Search(t *testing.T) {
	t.Parallel()

	s := New(corpus)
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (empty content skipped)", s.Len())
	}

	hits, err := s.Search(context.Background(), "similarity search over embeddings", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].SourceID != "vec" {
		t.Errorf("best hit = %s, want vec", hits[0].SourceID)
	}
	if hits[0].Score >= hits[1].Score {
		t.Errorf("scores not ascending distances: %v, %v", hits[0].Score, hits[1].Score)
	}
	if hits[0].Metadata["timestamp"] != "2024-01-01" {
		t.Error("metadata not carried")
	}
	if s.Calls() != 1 {
		t.Errorf("Calls() = %d", s.Calls())
	}
}

func TestSearcher_Unrelated(t *testing.T) {
	t.Parallel()

	hits, err := New(corpus).Search(context.Background(), "zebra", 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range hits {
		if h.Score != 1 {
			t.Errorf("%s distance = %v, want 1", h.SourceID, h.Score)
		}
	}
}

func TestSearcher_Failures(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	if _, err := New(corpus, WithError(boom)).Search(context.Background(), "q", 1); !errors.Is(err, boom) {
		t.Errorf("error = %v, want boom", err)
	}
	if err := New(corpus, WithError(boom)).Health(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Health() = %v, want boom", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := New(corpus, WithDelay(time.Second)).Search(ctx, "q", 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}

func TestSearcher_WithEngine(t *testing.T) {
	t.Parallel()

	engine, err := retrieval.NewEngine(New(corpus))
	if err != nil {
		t.Fatal(err)
	}
	res, err := engine.Retrieve(context.Background(), "vector databases store embeddings", 2)
	if err != nil {
		t.Fatal(err)
	}
	if res.Len() != 1 || res.Candidates[0].SourceID != "vec" {
		t.Errorf("Retrieve() = %+v", res.Candidates)
	}
}

package retrieval

import (
	"math"
	"slices"
	"strings"
	"testing"
)

func TestQualityRanker_Score(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 501)
	stamp := map[string]string{"timestamp": "2024-05-01"}

	tests := []struct {
		name  string
		c     Candidate
		query string
		want  float64
	}{
		{name: "nothing", c: Candidate{Content: "short"}, query: "unrelated", want: 0},
		{name: "long only", c: Candidate{Content: long}, query: "unrelated", want: 0.3},
		{name: "exactly 500 chars", c: Candidate{Content: strings.Repeat("x", 500)}, query: "q", want: 0},
		{name: "full overlap", c: Candidate{Content: "Vector search basics"}, query: "vector search", want: 0.4},
		{name: "half overlap", c: Candidate{Content: "vector databases"}, query: "vector search", want: 0.2},
		{name: "timestamp only", c: Candidate{Content: "a", Metadata: stamp}, query: "b", want: 0.3},
		{name: "empty query", c: Candidate{Content: "vector"}, query: "   ", want: 0},
		{
			name:  "everything",
			c:     Candidate{Content: long + " vector search", Metadata: stamp},
			query: "vector search",
			want:  1.0,
		},
	}

	r := NewQualityRanker()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := r.Score(tt.c, tt.query); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQualityRanker_CustomTimestampKeys(t *testing.T) {
	t.Parallel()

	r := NewQualityRanker("created_at", "updated_at")
	c := Candidate{Content: "a", Metadata: map[string]string{"updated_at": "x"}}
	if got := r.Score(c, "b"); math.Abs(got-RecencyWeight) > 1e-9 {
		t.Errorf("Score() = %v, want %v", got, RecencyWeight)
	}
	if got := r.Score(Candidate{Content: "a", Metadata: map[string]string{"timestamp": "x"}}, "b"); got != 0 {
		t.Errorf("default key still counted: %v", got)
	}
}

func TestQualityRanker_Rank(t *testing.T) {
	t.Parallel()

	stamp := map[string]string{"timestamp": "t"}
	in := []Candidate{
		{Content: "plain", SourceID: "a"},
		{Content: "plain too", SourceID: "b"},
		{Content: "stamped", SourceID: "c", Metadata: stamp},
		{Content: "query words here", SourceID: "d"},
		{Content: "plain again", SourceID: "e"},
	}

	r := NewQualityRanker()
	got := r.Rank(in, "query words", 4)

	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.SourceID
		if c.Rank != i+1 {
			t.Errorf("rank of %s = %d, want %d", c.SourceID, c.Rank, i+1)
		}
	}
	// d scores 0.4, c 0.3, ties at 0 keep input order
	if want := []string{"d", "c", "a", "b"}; !slices.Equal(ids, want) {
		t.Errorf("Rank() order = %v, want %v", ids, want)
	}
}

func TestQualityRanker_Deterministic(t *testing.T) {
	t.Parallel()

	in := candidates("b c", "a b", "c d", "a", "b", "a b c d")
	r := NewQualityRanker()

	first := r.Rank(in, "a b", 6)
	for range 20 {
		again := r.Rank(in, "a b", 6)
		if !slices.EqualFunc(first, again, func(x, y RankedCandidate) bool {
			return x.SourceID == y.SourceID && x.Quality == y.Quality && x.Rank == y.Rank
		}) {
			t.Fatal("Rank() is not deterministic")
		}
	}
}

func TestQualityRanker_Truncation(t *testing.T) {
	t.Parallel()

	r := NewQualityRanker()
	in := candidates("a", "b", "c")

	if got := r.Rank(in, "q", 2); len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	if got := r.Rank(in, "q", 10); len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
	if got := r.Rank(in, "q", 0); got == nil || len(got) != 0 {
		t.Errorf("k=0 = %v, want empty", got)
	}
	if got := r.Rank(nil, "q", 3); got == nil || len(got) != 0 {
		t.Errorf("no candidates = %v, want empty", got)
	}
}

package retrieval

import (
	"cmp"
	"slices"
	"unicode/utf8"
)

// Quality score weights. They sum to 1.
const (
	LengthWeight  = 0.3
	OverlapWeight = 0.4
	RecencyWeight = 0.3

	// LongContentThreshold is the length, in characters, above which a
	// passage earns the length bonus.
	LongContentThreshold = 500

	// DefaultTimestampKey is the metadata key that earns the recency bonus.
	DefaultTimestampKey = "timestamp"
)

// QualityRanker orders candidates by a content heuristic.
type QualityRanker struct {
	timestampKeys []string
}

// NewQualityRanker creates a ranker. With no keys, DefaultTimestampKey is used.
func NewQualityRanker(timestampKeys ...string) *QualityRanker {
	if len(timestampKeys) == 0 {
		timestampKeys = []string{DefaultTimestampKey}
	}
	return &QualityRanker{timestampKeys: slices.Clone(timestampKeys)}
}

// Score computes
//
//	0.3*[chars > 500] + 0.4*|qwords ∩ cwords|/|qwords| + 0.3*[has timestamp key]
//
// with words lower-cased and whitespace separated. Overlap is 0 for a query
// with no words.
func (r *QualityRanker) Score(c Candidate, query string) float64 {
	return r.score(c, wordSet(query))
}

func (r *QualityRanker) score(c Candidate, qwords map[string]struct{}) float64 {
	score := 0.0

	if utf8.RuneCountInString(c.Content) > LongContentThreshold {
		score += LengthWeight
	}

	if len(qwords) > 0 {
		cwords := wordSet(c.Content)
		common := 0
		for w := range qwords {
			if _, ok := cwords[w]; ok {
				common++
			}
		}
		score += OverlapWeight * float64(common) / float64(len(qwords))
	}

	for _, key := range r.timestampKeys {
		if _, ok := c.Metadata[key]; ok {
			score += RecencyWeight
			break
		}
	}

	return score
}

// Rank scores every candidate, sorts by score descending (ties keep their
// input order) and truncates to k.
func (r *QualityRanker) Rank(candidates []Candidate, query string, k int) []RankedCandidate {
	if k <= 0 || len(candidates) == 0 {
		return []RankedCandidate{}
	}

	qwords := wordSet(query)
	ranked := make([]RankedCandidate, len(candidates))
	for i, c := range candidates {
		ranked[i] = RankedCandidate{Candidate: c, Quality: r.score(c, qwords)}
	}

	slices.SortStableFunc(ranked, func(a, b RankedCandidate) int {
		return cmp.Compare(b.Quality, a.Quality)
	})

	ranked = ranked[:min(k, len(ranked))]
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

package retrieval

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"
)

// DefaultDiversityThreshold keeps a candidate only while its similarity to
// every kept candidate is below 1 - 0.3.
const DefaultDiversityThreshold = 0.3

// Similarity scores two passages in [0, 1], 1 meaning identical.
type Similarity func(a, b string) float64

// SimilarityAlgorithm names a Similarity for configuration.
type SimilarityAlgorithm string

const (
	// JaccardSimilarity is the word-set Jaccard index on lower-cased text
	JaccardSimilarity SimilarityAlgorithm = "jaccard"
	// CosineSimilarity is bigram cosine similarity
	CosineSimilarity SimilarityAlgorithm = "cosine"
	// SorensenDiceSimilarity is the word-level Sorensen-Dice coefficient
	SorensenDiceSimilarity SimilarityAlgorithm = "sorensen-dice"
)

// SimilarityFor returns the Similarity for algorithm. The empty name is Jaccard.
func SimilarityFor(algorithm SimilarityAlgorithm) (Similarity, error) {
	switch algorithm {
	case JaccardSimilarity, "":
		return Jaccard, nil
	case CosineSimilarity:
		return NGramCosine, nil
	case SorensenDiceSimilarity:
		return SorensenDice, nil
	default:
		return nil, fmt.Errorf("unknown similarity algorithm: %s", algorithm)
	}
}

// Jaccard is |A ∩ B| / |A ∪ B| over lower-cased whitespace-separated words.
// It is 0 when either side has no words.
func Jaccard(a, b string) float64 {
	wa, wb := wordSet(a), wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	inter := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

// NGramCosine compares lower-cased bigram profiles.
func NGramCosine(a, b string) float64 {
	return edlibSimilarity(a, b, func(x, y string) float32 {
		return edlib.CosineSimilarity(x, y, 2)
	})
}

// SorensenDice compares lower-cased word sets.
func SorensenDice(a, b string) float64 {
	return edlibSimilarity(a, b, func(x, y string) float32 {
		return edlib.SorensenDiceCoefficient(x, y, 0)
	})
}

func edlibSimilarity(a, b string, fn func(x, y string) float32) float64 {
	// edlib splits on single spaces, so normalise runs of whitespace first
	x := strings.Join(strings.Fields(strings.ToLower(a)), " ")
	y := strings.Join(strings.Fields(strings.ToLower(b)), " ")
	if x == "" || y == "" {
		return 0
	}
	return float64(fn(x, y))
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// DiversityFilter drops candidates too similar to one already kept.
type DiversityFilter struct {
	similarity Similarity
}

// NewDiversityFilter creates a filter. A nil similarity uses Jaccard.
func NewDiversityFilter(similarity Similarity) *DiversityFilter {
	if similarity == nil {
		similarity = Jaccard
	}
	return &DiversityFilter{similarity: similarity}
}

// Filter keeps the first candidate, then each later candidate whose
// similarity to every kept candidate is strictly below 1 - threshold.
// Input order is preserved and the result is never longer than the input.
func (f *DiversityFilter) Filter(candidates []Candidate, threshold float64) []Candidate {
	if len(candidates) == 0 {
		return []Candidate{}
	}

	limit := 1 - threshold
	kept := make([]Candidate, 0, len(candidates))
	kept = append(kept, candidates[0])

	for _, c := range candidates[1:] {
		distinct := true
		for _, k := range kept {
			if f.similarity(c.Content, k.Content) >= limit {
				distinct = false
				break
			}
		}
		if distinct {
			kept = append(kept, c)
		}
	}
	return kept
}

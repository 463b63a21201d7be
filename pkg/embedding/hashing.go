// Package embedding holds query embedding providers for vector backends.
// Subpackages wrap hosted models (openai, ollama, gemini); Hashing is an
// offline, deterministic provider for tests, demos and air-gapped setups.
package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/calque-ai/ragate/pkg/retrieval"
)

// DefaultHashingDimension is the vector size used when none is given.
const DefaultHashingDimension = 256

// Hashing embeds text by feature hashing lower-cased word tokens into a fixed
// number of buckets and L2-normalising the result. Texts sharing words get
// close vectors, which is enough for cosine search over small corpora.
type Hashing struct {
	dimension int
}

// NewHashing creates a Hashing provider. dimension <= 0 uses DefaultHashingDimension.
func NewHashing(dimension int) *Hashing {
	if dimension <= 0 {
		dimension = DefaultHashingDimension
	}
	return &Hashing{dimension: dimension}
}

// Dimension returns the vector size.
func (h *Hashing) Dimension() int { return h.dimension }

// Embed returns the normalised hashed bag of words. Text without words is an error.
func (h *Hashing) Embed(_ context.Context, text string) (retrieval.EmbeddingVector, error) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(words) == 0 {
		return nil, fmt.Errorf("cannot embed text without words")
	}

	vec := make(retrieval.EmbeddingVector, h.dimension)
	for _, w := range words {
		hasher := fnv.New64a()
		_, _ = hasher.Write([]byte(w))
		sum := hasher.Sum64()

		// the top bit picks the sign so collisions partly cancel out
		sign := float32(1)
		if sum>>63 == 1 {
			sign = -1
		}
		vec[sum%uint64(h.dimension)] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		// every token cancelled out; fall back to the first bucket
		vec[0] = 1
		return vec, nil
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	pgvector "github.com/pgvector/pgvector-go"
)

// SimpleProvider generates embeddings by hashing tokens into vector dimensions.
// Not semantically meaningful, but deterministic and offline — enough for
// development and for exercising the store without metered API calls.
type SimpleProvider struct{}

// NewSimpleProvider creates a new SimpleProvider.
func NewSimpleProvider() *SimpleProvider {
	return &SimpleProvider{}
}

// Name returns the provider name.
func (p *SimpleProvider) Name() string {
	return "simple"
}

// Embed hashes each token (and adjacent token bigram) to a dimension index and
// accumulates, then L2-normalizes. Identical text always yields the same
// vector, so similarity on shared tokens survives.
func (p *SimpleProvider) Embed(_ context.Context, text string) (pgvector.Vector, error) {
	vec := make([]float32, Dimensions)

	tokens := tokenize(text)

	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		idx := h.Sum64() % uint64(Dimensions)
		vec[idx] += 1.0
	}

	for i := 0; i < len(tokens)-1; i++ {
		bigram := tokens[i] + " " + tokens[i+1]
		h := fnv.New64a()
		h.Write([]byte(bigram))
		idx := h.Sum64() % uint64(Dimensions)
		vec[idx] += 0.5
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}

	return pgvector.NewVector(vec), nil
}

// tokenize lowercases and splits on anything that is not a letter or digit.
// Works for Hangul as well as Latin text since unicode.IsLetter covers both.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

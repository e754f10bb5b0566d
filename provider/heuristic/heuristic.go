// Package heuristic provides offline stand-ins for the language model and
// the embedding model.
package heuristic

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// Completer answers every prompt with an empty JSON object, which sends the
// pipeline down its deterministic fallback paths.
type Completer struct{}

func (Completer) Complete(context.Context, string, string) (string, error) { return "{}", nil }

// HashingEmbedder maps word unigrams and bigrams into a fixed number of
// signed buckets. Texts sharing vocabulary land close together, which is
// enough for company-scoped recall without a model server.
type HashingEmbedder struct {
	Dim int
}

func (h HashingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	dim := h.Dim
	if dim <= 0 {
		dim = 384
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, dim)
		tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for j, tok := range tokens {
			add(vec, tok)
			if j > 0 {
				add(vec, tokens[j-1]+" "+tok)
			}
		}
		out[i] = vec
	}
	return out, nil
}

func add(vec []float32, feature string) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()
	idx := int(sum % uint64(len(vec)))
	if sum>>63 == 1 {
		vec[idx]--
	} else {
		vec[idx]++
	}
}

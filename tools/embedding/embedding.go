package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/hreddy742/enterprise-ai-due-diligence-agent/provider"
)

const defaultBatchSize = 64

// Embedding wraps a provider embedder, batching requests and returning
// unit-length vectors.
type Embedding struct {
	provider  provider.Embedder
	batchSize int
}

func NewEmbedding(p provider.Embedder) *Embedding {
	return &Embedding{provider: p, batchSize: defaultBatchSize}
}

// EmbedMany embeds texts in batches and L2-normalises each vector. Vectors
// of inconsistent width are rejected.
func (e Embedding) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.provider.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), end-start)
		}
		out = append(out, vecs...)
	}
	dim := len(out[0])
	for i, v := range out {
		if len(v) != dim || dim == 0 {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), dim)
		}
		Normalize(v)
	}
	return out, nil
}

// Normalize scales v to unit length in place. Zero vectors are left as-is.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}

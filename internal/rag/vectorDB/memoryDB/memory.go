package memoryDB

import (
	"context"
	"fmt"
	"math"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/rag/vectorDB"
)

type backend struct{}

// NewBackend returns a brute force in-process backend.
func NewBackend() vectorDB.Backend {
	return backend{}
}

func (backend) Name() string { return config.VectorBackendMemory }

func (backend) Create(ctx context.Context, chunks []commonModels.Chunk, vectors [][]float32, metric string) (vectorDB.Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	score, err := scorer(metric)
	if err != nil {
		return nil, err
	}
	// copies keep the index immutable even if the caller reuses its slices
	idx := &index{
		chunks:  append([]commonModels.Chunk(nil), chunks...),
		vectors: make([][]float32, len(vectors)),
		score:   score,
	}
	for i, v := range vectors {
		idx.vectors[i] = append([]float32(nil), v...)
	}
	return idx, ctx.Err()
}

type index struct {
	chunks  []commonModels.Chunk
	vectors [][]float32
	score   func(a, b []float32) float32
}

func (i *index) Query(ctx context.Context, vector []float32, k int) ([]commonModels.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hits := make([]commonModels.ScoredChunk, len(i.chunks))
	for n, c := range i.chunks {
		hits[n] = commonModels.ScoredChunk{Chunk: c, Score: i.score(vector, i.vectors[n])}
	}
	vectorDB.SortScored(hits)
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (i *index) Len() int { return len(i.chunks) }

func (i *index) Close(context.Context) error { return nil }

func scorer(metric string) (func(a, b []float32) float32, error) {
	switch metric {
	case config.MetricCosine, "":
		return cosine, nil
	case config.MetricDot:
		return dot, nil
	default:
		return nil, fmt.Errorf("unknown similarity metric %q", metric)
	}
}

func dot(a, b []float32) float32 {
	var s float64
	for i := range min(len(a), len(b)) {
		s += float64(a[i]) * float64(b[i])
	}
	return float32(s)
}

// cosine treats a zero vector as unrelated to everything.
func cosine(a, b []float32) float32 {
	var ab, aa, bb float64
	for i := range min(len(a), len(b)) {
		ab += float64(a[i]) * float64(b[i])
		aa += float64(a[i]) * float64(a[i])
		bb += float64(b[i]) * float64(b[i])
	}
	if aa == 0 || bb == 0 {
		return 0
	}
	return float32(ab / (math.Sqrt(aa) * math.Sqrt(bb)))
}

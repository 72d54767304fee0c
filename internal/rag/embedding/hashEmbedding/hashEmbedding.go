// Package hashEmbedding is an offline embedder. It hashes lowercase word
// tokens into a fixed number of buckets and L2 normalizes the counts, so
// texts sharing vocabulary land close together without any remote call.
package hashEmbedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/akolanti/docgenie/internal/rag/embedding"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

type embedder struct {
	dimension int
}

func NewHashEmbedder(dimension int) embedding.Embedder {
	if dimension <= 0 {
		dimension = 1
	}
	return &embedder{dimension: dimension}
}

func (e *embedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(query), nil
}

func (e *embedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	out := make([][]float32, 0, len(chunks))
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, e.embed(c))
	}
	return out, nil
}

func (e *embedder) embed(text string) []float32 {
	vec := make([]float32, e.dimension)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum32()
		// the top bit picks the sign so colliding tokens tend to cancel
		sign := float32(1)
		if sum&(1<<31) != 0 {
			sign = -1
		}
		vec[int(sum%uint32(e.dimension))] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

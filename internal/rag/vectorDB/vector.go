package vectorDB

import (
	"context"
	"slices"

	"github.com/akolanti/docgenie/internal/domain/commonModels"
)

// Backend stores one immutable set of chunk vectors per Create call.
type Backend interface {
	Name() string
	Create(ctx context.Context, chunks []commonModels.Chunk, vectors [][]float32, metric string) (Index, error)
}

// Index answers nearest neighbour queries over the vectors it was created with.
// Results are ordered by descending score, equal scores by chunk position.
type Index interface {
	Query(ctx context.Context, vector []float32, k int) ([]commonModels.ScoredChunk, error)
	Len() int
	Close(ctx context.Context) error
}

// SortScored orders hits by descending score and breaks ties by insertion
// position, so equal scores always come back in the same order.
func SortScored(hits []commonModels.ScoredChunk) {
	slices.SortStableFunc(hits, func(a, b commonModels.ScoredChunk) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return a.Chunk.Position - b.Chunk.Position
	})
}

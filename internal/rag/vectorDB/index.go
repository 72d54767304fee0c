package vectorDB

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/domain/ragErrors"
	"github.com/akolanti/docgenie/internal/metrics"
	"github.com/akolanti/docgenie/internal/rag/embedding"
	"github.com/akolanti/docgenie/internal/rag/retry"
	"github.com/akolanti/docgenie/pkg/logger_i"
)

type Builder struct {
	embedder   embedding.Embedder
	backend    Backend
	policy     retry.Policy
	metric     string
	batchSize  int
	allowEmpty bool
	logger     *logger_i.Logger
}

func NewBuilder(embedder embedding.Embedder, backend Backend, cfg *config.Config) *Builder {
	batch := cfg.Embedding.BatchSize
	if batch <= 0 {
		batch = config.EmbeddingBatchSize
	}
	return &Builder{
		embedder:   embedder,
		backend:    backend,
		policy:     retry.PolicyFrom(cfg.Capability),
		metric:     cfg.Retrieval.Metric,
		batchSize:  batch,
		allowEmpty: cfg.Vector.AllowEmptyIndex,
		logger:     logger_i.NewLogger("index_builder"),
	}
}

// VectorIndex pairs a stored index with the embedder that produced it, so
// queries are always embedded the same way as the chunks were.
type VectorIndex struct {
	index     Index
	embedder  embedding.Embedder
	policy    retry.Policy
	metric    string
	dimension int
	builtAt   time.Time
}

// Build embeds every chunk and stores the result. Any embedding failure
// aborts the whole build; no partial index is returned.
func (b *Builder) Build(ctx context.Context, chunks []commonModels.Chunk) (*VectorIndex, error) {
	log := b.logger.WithContext(ctx).With("chunks", len(chunks), "backend", b.backend.Name())

	if len(chunks) == 0 && !b.allowEmpty {
		return nil, ragErrors.ErrEmptyCorpus
	}

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += b.batchSize {
		end := min(start+b.batchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		var batch [][]float32
		err := retry.Do(ctx, b.policy, "embedding", func(ctx context.Context) error {
			var err error
			batch, err = b.embedder.BatchEmbedding(ctx, texts)
			return err
		})
		if err != nil {
			log.Error("embedding batch failed", "start", start, "error", err)
			return nil, ragErrors.New(ragErrors.EmbeddingFailure, "embedding capability failed", err)
		}
		if len(batch) != len(texts) {
			return nil, ragErrors.New(ragErrors.EmbeddingFailure,
				fmt.Sprintf("embedding returned %d vectors for %d chunks", len(batch), len(texts)), nil)
		}
		vectors = append(vectors, batch...)
	}

	dimension, err := checkVectors(vectors)
	if err != nil {
		return nil, ragErrors.New(ragErrors.EmbeddingFailure, "malformed embedding output", err)
	}

	idx, err := b.backend.Create(ctx, chunks, vectors, b.metric)
	if err != nil {
		log.Error("vector backend rejected the index", "error", err)
		return nil, ragErrors.New(ragErrors.EmbeddingFailure, "could not store vectors", err)
	}

	metrics.CaptureIndexSize(len(chunks))
	log.Info("index built", "dimension", dimension, "metric", b.metric)
	return &VectorIndex{
		index:     idx,
		embedder:  b.embedder,
		policy:    b.policy,
		metric:    b.metric,
		dimension: dimension,
		builtAt:   time.Now(),
	}, nil
}

func checkVectors(vectors [][]float32) (int, error) {
	dimension := 0
	for i, v := range vectors {
		if len(v) == 0 {
			return 0, fmt.Errorf("vector %d is empty", i)
		}
		if dimension == 0 {
			dimension = len(v)
			continue
		}
		if len(v) != dimension {
			return 0, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dimension)
		}
	}
	return dimension, nil
}

// Query embeds text and returns up to k chunks, best first. A nil or empty
// index answers with an empty result without calling the embedder.
func (v *VectorIndex) Query(ctx context.Context, text string, k int) ([]commonModels.ScoredChunk, error) {
	if v == nil || v.index == nil || v.index.Len() == 0 || k <= 0 {
		return []commonModels.ScoredChunk{}, nil
	}

	var vector []float32
	err := retry.Do(ctx, v.policy, "query_embedding", func(ctx context.Context) error {
		var err error
		vector, err = v.embedder.GetEmbedding(ctx, text)
		return err
	})
	if err != nil {
		return nil, ragErrors.New(ragErrors.RetrievalFailure, "could not embed the question", err)
	}
	if len(vector) != v.dimension {
		return nil, ragErrors.New(ragErrors.RetrievalFailure,
			fmt.Sprintf("query vector has dimension %d, index has %d", len(vector), v.dimension), nil)
	}

	var hits []commonModels.ScoredChunk
	err = retry.Do(ctx, v.policy, "vector_search", func(ctx context.Context) error {
		var err error
		hits, err = v.index.Query(ctx, vector, k)
		return err
	})
	if err != nil {
		return nil, ragErrors.New(ragErrors.RetrievalFailure, "vector search failed", err)
	}
	return hits, nil
}

func (v *VectorIndex) Len() int {
	if v == nil || v.index == nil {
		return 0
	}
	return v.index.Len()
}

func (v *VectorIndex) Metric() string {
	if v == nil {
		return ""
	}
	return v.metric
}

func (v *VectorIndex) BuiltAt() time.Time {
	if v == nil {
		return time.Time{}
	}
	return v.builtAt
}

// Close releases backend resources. Safe on nil.
func (v *VectorIndex) Close(ctx context.Context) error {
	if v == nil || v.index == nil {
		return nil
	}
	return v.index.Close(ctx)
}

package vectorDB_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/domain/ragErrors"
	"github.com/akolanti/docgenie/internal/rag/vectorDB"
	"github.com/akolanti/docgenie/internal/rag/vectorDB/memoryDB"
)

type mockEmbedder struct {
	GetEmbeddingFunc   func(ctx context.Context, query string) ([]float32, error)
	BatchEmbeddingFunc func(ctx context.Context, chunks []string) ([][]float32, error)
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return m.GetEmbeddingFunc(ctx, query)
}

func (m *mockEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	return m.BatchEmbeddingFunc(ctx, chunks)
}

// lookupEmbedder returns the vector registered for each text.
func lookupEmbedder(table map[string][]float32) *mockEmbedder {
	return &mockEmbedder{
		GetEmbeddingFunc: func(ctx context.Context, query string) ([]float32, error) {
			return table[query], nil
		},
		BatchEmbeddingFunc: func(ctx context.Context, chunks []string) ([][]float32, error) {
			out := make([][]float32, len(chunks))
			for i, c := range chunks {
				out[i] = table[c]
			}
			return out, nil
		},
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Capability.RetryBaseDelay = time.Millisecond
	cfg.Capability.RetryMaxDelay = 2 * time.Millisecond
	cfg.Capability.Timeout = time.Second
	return cfg
}

func chunks(texts ...string) []commonModels.Chunk {
	out := make([]commonModels.Chunk, len(texts))
	for i, t := range texts {
		out[i] = commonModels.Chunk{Text: t, Position: i}
	}
	return out
}

func positions(hits []commonModels.ScoredChunk) []int {
	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.Chunk.Position
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuild_EmptyCorpus(t *testing.T) {
	cfg := testConfig()
	b := vectorDB.NewBuilder(lookupEmbedder(nil), memoryDB.NewBackend(), cfg)

	_, err := b.Build(context.Background(), nil)
	if !errors.Is(err, ragErrors.ErrEmptyCorpus) {
		t.Fatalf("Expected EmptyCorpus, got %v", err)
	}
}

func TestBuild_AllowedEmptyIndexAnswersEmpty(t *testing.T) {
	cfg := testConfig()
	cfg.Vector.AllowEmptyIndex = true
	called := false
	emb := &mockEmbedder{
		GetEmbeddingFunc: func(ctx context.Context, query string) ([]float32, error) {
			called = true
			return []float32{1}, nil
		},
	}

	idx, err := vectorDB.NewBuilder(emb, memoryDB.NewBackend(), cfg).Build(context.Background(), nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	hits, err := idx.Query(context.Background(), "anything", 4)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Expected no hits, got %d", len(hits))
	}
	if called {
		t.Error("Expected the embedder not to be called for an empty index")
	}
}

func TestBuild_EmbeddingFailures(t *testing.T) {
	tests := []struct {
		name      string
		batch     func(ctx context.Context, chunks []string) ([][]float32, error)
		wantCalls int
	}{
		{
			name: "capability unreachable is retried then surfaced",
			batch: func(ctx context.Context, chunks []string) ([][]float32, error) {
				return nil, errors.New("connection refused")
			},
			wantCalls: config.DefaultRetryAttempts,
		},
		{
			name: "wrong vector count",
			batch: func(ctx context.Context, chunks []string) ([][]float32, error) {
				return [][]float32{{1, 0}}, nil
			},
			wantCalls: 1,
		},
		{
			name: "inconsistent dimensions",
			batch: func(ctx context.Context, chunks []string) ([][]float32, error) {
				return [][]float32{{1, 0}, {1, 0, 0}}, nil
			},
			wantCalls: 1,
		},
		{
			name: "empty vector",
			batch: func(ctx context.Context, chunks []string) ([][]float32, error) {
				return [][]float32{{1, 0}, {}}, nil
			},
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			emb := &mockEmbedder{BatchEmbeddingFunc: func(ctx context.Context, c []string) ([][]float32, error) {
				calls++
				return tt.batch(ctx, c)
			}}
			idx, err := vectorDB.NewBuilder(emb, memoryDB.NewBackend(), testConfig()).
				Build(context.Background(), chunks("a", "b"))

			if !errors.Is(err, ragErrors.ErrEmbeddingFailure) {
				t.Fatalf("Expected EmbeddingFailure, got %v", err)
			}
			if idx != nil {
				t.Error("Expected no partial index")
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d; want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestBuild_BatchesChunks(t *testing.T) {
	cfg := testConfig()
	cfg.Embedding.BatchSize = 2
	var sizes []int
	emb := &mockEmbedder{BatchEmbeddingFunc: func(ctx context.Context, c []string) ([][]float32, error) {
		sizes = append(sizes, len(c))
		out := make([][]float32, len(c))
		for i := range out {
			out[i] = []float32{1, 1}
		}
		return out, nil
	}}

	idx, err := vectorDB.NewBuilder(emb, memoryDB.NewBackend(), cfg).
		Build(context.Background(), chunks("a", "b", "c", "d", "e"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !equalInts(sizes, []int{2, 2, 1}) {
		t.Errorf("batch sizes = %v; want [2 2 1]", sizes)
	}
	if idx.Len() != 5 {
		t.Errorf("Len() = %d; want 5", idx.Len())
	}
}

func TestQuery_RanksDeterministically(t *testing.T) {
	table := map[string][]float32{
		"refund policy":   {1, 0, 0},
		"shipping times":  {0, 1, 0},
		"refund deadline": {0.9, 0.1, 0},
		"question":        {1, 0, 0},
	}
	idx, err := vectorDB.NewBuilder(lookupEmbedder(table), memoryDB.NewBackend(), testConfig()).
		Build(context.Background(), chunks("refund policy", "shipping times", "refund deadline"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	first, err := idx.Query(context.Background(), "question", 2)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	second, _ := idx.Query(context.Background(), "question", 2)

	if !equalInts(positions(first), []int{0, 2}) {
		t.Errorf("positions = %v; want [0 2]", positions(first))
	}
	if !equalInts(positions(first), positions(second)) {
		t.Errorf("Expected identical results, got %v and %v", positions(first), positions(second))
	}
}

func TestQuery_TiesFollowInsertionOrder(t *testing.T) {
	table := map[string][]float32{
		"c0": {1, 0}, "c1": {1, 0}, "c2": {0, 1}, "c3": {1, 0},
		"question": {1, 0},
	}
	idx, err := vectorDB.NewBuilder(lookupEmbedder(table), memoryDB.NewBackend(), testConfig()).
		Build(context.Background(), chunks("c0", "c1", "c2", "c3"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	hits, _ := idx.Query(context.Background(), "question", 4)
	if !equalInts(positions(hits), []int{0, 1, 3, 2}) {
		t.Errorf("positions = %v; want [0 1 3 2]", positions(hits))
	}
}

func TestQuery_KLargerThanIndex(t *testing.T) {
	table := map[string][]float32{"only": {1, 0}, "question": {0, 1}}
	idx, _ := vectorDB.NewBuilder(lookupEmbedder(table), memoryDB.NewBackend(), testConfig()).
		Build(context.Background(), chunks("only"))

	hits, err := idx.Query(context.Background(), "question", 10)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("Expected 1 hit, got %d", len(hits))
	}
}

func TestQuery_DotMetricHonoursMagnitude(t *testing.T) {
	table := map[string][]float32{"small": {1, 0}, "large": {3, 3}, "question": {1, 0}}
	cases := map[string][]int{
		config.MetricCosine: {0, 1},
		config.MetricDot:    {1, 0},
	}
	for metric, want := range cases {
		cfg := testConfig()
		cfg.Retrieval.Metric = metric
		idx, err := vectorDB.NewBuilder(lookupEmbedder(table), memoryDB.NewBackend(), cfg).
			Build(context.Background(), chunks("small", "large"))
		if err != nil {
			t.Fatalf("%s: Build() error = %v", metric, err)
		}
		hits, _ := idx.Query(context.Background(), "question", 2)
		if !equalInts(positions(hits), want) {
			t.Errorf("%s: positions = %v; want %v", metric, positions(hits), want)
		}
		if idx.Metric() != metric {
			t.Errorf("Metric() = %q; want %q", idx.Metric(), metric)
		}
	}
}

func TestQuery_Failures(t *testing.T) {
	table := map[string][]float32{"a": {1, 0}}
	emb := lookupEmbedder(table)
	idx, err := vectorDB.NewBuilder(emb, memoryDB.NewBackend(), testConfig()).
		Build(context.Background(), chunks("a"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	emb.GetEmbeddingFunc = func(ctx context.Context, query string) ([]float32, error) {
		return nil, errors.New("timeout")
	}
	if _, err := idx.Query(context.Background(), "q", 1); !errors.Is(err, ragErrors.ErrRetrievalFailure) {
		t.Errorf("Expected RetrievalFailure for embedding error, got %v", err)
	}

	emb.GetEmbeddingFunc = func(ctx context.Context, query string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	if _, err := idx.Query(context.Background(), "q", 1); !errors.Is(err, ragErrors.ErrRetrievalFailure) {
		t.Errorf("Expected RetrievalFailure for dimension mismatch, got %v", err)
	}
}

func TestNilIndexIsSafe(t *testing.T) {
	var idx *vectorDB.VectorIndex
	hits, err := idx.Query(context.Background(), "q", 3)
	if err != nil || len(hits) != 0 {
		t.Errorf("Expected empty result, got %v, %v", hits, err)
	}
	if idx.Len() != 0 {
		t.Errorf("Len() = %d; want 0", idx.Len())
	}
	if err := idx.Close(context.Background()); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

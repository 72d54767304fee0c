package hashEmbedding

import (
	"context"
	"math"
	"testing"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestEmbedding_IsDeterministicAndNormalized(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()

	first, err := e.GetEmbedding(ctx, "Refunds are processed within 14 days")
	if err != nil {
		t.Fatalf("GetEmbedding() error = %v", err)
	}
	second, _ := e.GetEmbedding(ctx, "refunds ARE processed within 14 days")

	if len(first) != 64 {
		t.Fatalf("Expected 64 dimensions, got %d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Expected case-insensitive identical vectors, differ at %d", i)
		}
	}
	if n := dot(first, first); math.Abs(n-1) > 1e-5 {
		t.Errorf("Expected unit norm, got %f", n)
	}
}

func TestEmbedding_SharedVocabularyScoresHigher(t *testing.T) {
	e := NewHashEmbedder(256)
	ctx := context.Background()

	vectors, err := e.BatchEmbedding(ctx, []string{
		"the warranty covers battery replacement",
		"quarterly revenue grew in europe",
	})
	if err != nil {
		t.Fatalf("BatchEmbedding() error = %v", err)
	}
	query, _ := e.GetEmbedding(ctx, "does the warranty cover the battery")

	if dot(query, vectors[0]) <= dot(query, vectors[1]) {
		t.Errorf("Expected the warranty passage to score higher")
	}
}

func TestEmbedding_EmptyTextIsZeroVector(t *testing.T) {
	e := NewHashEmbedder(8)
	v, err := e.GetEmbedding(context.Background(), "   ")
	if err != nil {
		t.Fatalf("GetEmbedding() error = %v", err)
	}
	for _, x := range v {
		if x != 0 {
			t.Fatalf("Expected zero vector, got %v", v)
		}
	}
}

func TestEmbedding_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHashEmbedder(8).BatchEmbedding(ctx, []string{"a"}); err == nil {
		t.Error("Expected an error for a cancelled context")
	}
}

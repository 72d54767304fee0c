package memoryDB

import (
	"context"
	"testing"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/domain/commonModels"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 2}, []float32{1, 2}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosine(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-6 || diff < -1e-6 {
				t.Errorf("cosine() = %f; want %f", got, tt.want)
			}
		})
	}
}

func TestCreate_RejectsUnknownMetric(t *testing.T) {
	_, err := NewBackend().Create(context.Background(), nil, nil, "manhattan")
	if err == nil {
		t.Error("Expected an error for an unknown metric")
	}
}

func TestCreate_CopiesInput(t *testing.T) {
	chunks := []commonModels.Chunk{{Text: "a", Position: 0}}
	vectors := [][]float32{{1, 0}}
	idx, err := NewBackend().Create(context.Background(), chunks, vectors, config.MetricDot)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	vectors[0][0] = -5
	chunks[0].Text = "changed"

	hits, _ := idx.Query(context.Background(), []float32{1, 0}, 1)
	if hits[0].Score != 1 || hits[0].Chunk.Text != "a" {
		t.Errorf("Expected the index to be unaffected by caller mutation, got %+v", hits[0])
	}
}

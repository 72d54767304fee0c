package extractive

import (
	"context"
	"strings"
	"testing"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/domain/commonModels"
	"github.com/akolanti/docgenie/internal/rag/llm"
)

func grounding(texts ...string) []commonModels.ScoredChunk {
	out := make([]commonModels.ScoredChunk, len(texts))
	for i, t := range texts {
		out[i] = commonModels.ScoredChunk{Chunk: commonModels.Chunk{Text: t, Position: i}}
	}
	return out
}

func TestGenerate(t *testing.T) {
	p := NewExtractiveProvider(config.Default().LLM)

	tests := []struct {
		name      string
		req       llm.GenerationRequest
		contains  string
		notAnswer bool
	}{
		{
			name: "quotes the matching sentence",
			req: llm.GenerationRequest{
				Question:  "How long is the warranty?",
				Grounding: grounding("The office is in Berlin. The warranty lasts two years from purchase."),
			},
			contains: "warranty lasts two years",
		},
		{
			name:      "no grounding",
			req:       llm.GenerationRequest{Question: "How long is the warranty?"},
			notAnswer: true,
		},
		{
			name: "no shared vocabulary",
			req: llm.GenerationRequest{
				Question:  "warranty?",
				Grounding: grounding("Revenue grew in Europe."),
			},
			notAnswer: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Generate(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if tt.notAnswer && got != NoAnswer {
				t.Errorf("Expected the fallback answer, got %q", got)
			}
			if tt.contains != "" && !strings.Contains(got, tt.contains) {
				t.Errorf("Expected %q in %q", tt.contains, got)
			}
			if strings.Contains(got, "Berlin") {
				t.Errorf("Expected the unrelated sentence to be left out, got %q", got)
			}
		})
	}
}

func TestGenerate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewExtractiveProvider(config.Default().LLM).Generate(ctx, llm.GenerationRequest{}); err == nil {
		t.Error("Expected an error for a cancelled context")
	}
}

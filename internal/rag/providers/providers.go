package providers

import (
	"context"
	"fmt"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/domain/jobModel"
	"github.com/akolanti/docgenie/internal/domain/ragErrors"
	"github.com/akolanti/docgenie/internal/rag/embedding"
	"github.com/akolanti/docgenie/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/docgenie/internal/rag/embedding/hashEmbedding"
	"github.com/akolanti/docgenie/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/docgenie/internal/rag/ingest"
	"github.com/akolanti/docgenie/internal/rag/llm"
	"github.com/akolanti/docgenie/internal/rag/llm/extractive"
	"github.com/akolanti/docgenie/internal/rag/llm/gemini"
	"github.com/akolanti/docgenie/internal/rag/llm/openaiLLM"
	"github.com/akolanti/docgenie/internal/rag/vectorDB"
	"github.com/akolanti/docgenie/internal/rag/vectorDB/memoryDB"
	"github.com/akolanti/docgenie/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/docgenie/internal/session"
	"github.com/akolanti/docgenie/pkg/logger_i"
)

func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (embedding.Embedder, error) {
	switch cfg.Provider {
	case config.EmbeddingProviderGoogle:
		return googleEmbedding.NewGoogleEmbedder(ctx, cfg)
	case config.EmbeddingProviderOpenAI:
		return openaiEmbedding.NewOpenAIEmbedder(cfg), nil
	case config.EmbeddingProviderLocal, "":
		return hashEmbedding.NewHashEmbedder(int(cfg.Dimension)), nil
	default:
		return nil, ragErrors.New(ragErrors.InvalidConfig, "unknown embedding provider "+cfg.Provider, nil)
	}
}

// NewLLM picks the generation provider. Remote providers count prompt tokens
// with tiktoken; the extractive one never builds a prompt.
func NewLLM(ctx context.Context, cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case config.LLMProviderGemini:
		return gemini.NewGeminiClient(ctx, cfg, llm.NewTokenCounter(config.TokenizerEncoding))
	case config.LLMProviderOpenAI:
		return openaiLLM.NewOpenAIClient(cfg, llm.NewTokenCounter(config.TokenizerEncoding)), nil
	case config.LLMProviderExtractive, "":
		return extractive.NewExtractiveProvider(cfg), nil
	default:
		return nil, ragErrors.New(ragErrors.InvalidConfig, "unknown llm provider "+cfg.Provider, nil)
	}
}

// NewBackend returns the vector backend. The qdrant client is closed when ctx ends.
func NewBackend(ctx context.Context, cfg config.VectorConfig) (vectorDB.Backend, error) {
	switch cfg.Backend {
	case config.VectorBackendQdrant:
		holder, err := qdrantDB.NewClientHolder(ctx, cfg.Qdrant)
		if err != nil {
			return nil, ragErrors.New(ragErrors.InvalidConfig, "could not connect to qdrant", err)
		}
		return holder, nil
	case config.VectorBackendMemory, "":
		return memoryDB.NewBackend(), nil
	default:
		return nil, ragErrors.New(ragErrors.InvalidConfig, "unknown vector backend "+cfg.Backend, nil)
	}
}

// NewDependencies wires the capabilities selected by cfg into what a session
// manager needs. turns decides where histories are kept.
func NewDependencies(ctx context.Context, cfg *config.Config, turns jobModel.TurnStore) (session.Dependencies, error) {
	logger := logger_i.NewLogger("providers")

	embedder, err := NewEmbedder(ctx, cfg.Embedding)
	if err != nil {
		return session.Dependencies{}, fmt.Errorf("embedding: %w", err)
	}
	provider, err := NewLLM(ctx, cfg.LLM)
	if err != nil {
		return session.Dependencies{}, fmt.Errorf("llm: %w", err)
	}
	backend, err := NewBackend(ctx, cfg.Vector)
	if err != nil {
		return session.Dependencies{}, fmt.Errorf("vector backend: %w", err)
	}

	logger.Info("capabilities ready",
		"embedding", cfg.Embedding.Provider,
		"llm", provider.Name(),
		"vectorBackend", backend.Name(),
		"metric", cfg.Retrieval.Metric)

	return session.Dependencies{
		Config:     cfg,
		Normalizer: ingest.NewNormalizer(),
		Builder:    vectorDB.NewBuilder(embedder, backend, cfg),
		LLM:        provider,
		Turns:      turns,
	}, nil
}

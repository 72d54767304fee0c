package openaiEmbedding

import (
	"context"
	"fmt"
	"sort"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/customHttpClient"
	"github.com/akolanti/docgenie/internal/rag/embedding"
	"github.com/akolanti/docgenie/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

type client struct {
	api       openai.Client
	model     string
	dimension int64
	logger    *logger_i.Logger
}

func NewOpenAIEmbedder(cfg config.EmbeddingConfig) embedding.Embedder {
	logger := logger_i.NewLogger("openai_embedding")
	logger.Info("OpenAI Embedding client created", "model", cfg.Model, "dimension", cfg.Dimension)
	return &client{
		api: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithHTTPClient(customHttpClient.GetHttpClient()),
			option.WithMaxRetries(0),
		),
		model:     cfg.Model,
		dimension: int64(cfg.Dimension),
		logger:    logger,
	}
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	return c.embed(ctx, chunks)
}

func (c *client) embed(ctx context.Context, input []string) ([][]float32, error) {
	log := c.logger.WithContext(ctx)
	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: input},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: param.NewOpt(c.dimension),
	})
	if err != nil {
		log.Error("Error getting Embeddings from OpenAI", "error", err)
		return nil, err
	}
	if len(resp.Data) != len(input) {
		return nil, fmt.Errorf("openai embedding returned %d vectors for %d inputs", len(resp.Data), len(input))
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i, d := range data {
		out[i] = toFloat32(d.Embedding)
	}
	return out, nil
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

package gemini

import (
	"context"
	"errors"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/customHttpClient"
	"github.com/akolanti/docgenie/internal/rag/llm"
	"github.com/akolanti/docgenie/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client      *genai.Client
	modelName   string
	temperature float32
	prompts     *llm.PromptBuilder
	logger      *logger_i.Logger
}

func NewGeminiClient(ctx context.Context, cfg config.LLMConfig, counter llm.TokenCounter) (llm.Provider, error) {
	logger := logger_i.NewLogger("llm_gemini")
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: customHttpClient.GetHttpClient(),
	})
	if err != nil {
		logger.Error("Error creating Gemini client:", "error", err)
		return nil, err
	}
	logger.Info("Gemini client created", "model", cfg.Model)
	return &llmClient{
		client:      c,
		modelName:   cfg.Model,
		temperature: cfg.Temperature,
		prompts:     llm.NewPromptBuilder(cfg.SystemPrompt, counter, cfg.MaxHistoryTokens),
		logger:      logger,
	}, nil
}

func (c *llmClient) Name() string { return config.LLMProviderGemini }

func (c *llmClient) Generate(ctx context.Context, req llm.GenerationRequest) (string, error) {
	log := c.logger.WithContext(ctx)
	prompt := c.prompts.Build(req)

	contents := make([]*genai.Content, 0, 2*len(prompt.History)+1)
	for _, t := range prompt.History {
		contents = append(contents,
			genai.NewContentFromText(t.Question, genai.RoleUser),
			genai.NewContentFromText(t.Answer, genai.RoleModel),
		)
	}
	contents = append(contents, genai.NewContentFromText(prompt.User, genai.RoleUser))

	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
		Temperature:       genai.Ptr(c.temperature),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, contentConfig)
	if err != nil {
		log.Error("Gemini generate failed", "error", err)
		return "", err
	}
	text := result.Text()
	if text == "" {
		return "", errors.New("gemini returned an empty answer")
	}
	log.Debug("Gemini answered", "promptTokens", prompt.Tokens)
	return text, nil
}

package openaiLLM

import (
	"context"
	"errors"

	"github.com/akolanti/docgenie/internal/config"
	"github.com/akolanti/docgenie/internal/customHttpClient"
	"github.com/akolanti/docgenie/internal/rag/llm"
	"github.com/akolanti/docgenie/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type llmClient struct {
	api         openai.Client
	modelName   string
	temperature float64
	prompts     *llm.PromptBuilder
	logger      *logger_i.Logger
}

func NewOpenAIClient(cfg config.LLMConfig, counter llm.TokenCounter) llm.Provider {
	logger := logger_i.NewLogger("llm_openai")
	logger.Info("OpenAI client created", "model", cfg.Model)
	return &llmClient{
		api: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithHTTPClient(customHttpClient.GetHttpClient()),
			option.WithMaxRetries(0),
		),
		modelName:   cfg.Model,
		temperature: float64(cfg.Temperature),
		prompts:     llm.NewPromptBuilder(cfg.SystemPrompt, counter, cfg.MaxHistoryTokens),
		logger:      logger,
	}
}

func (c *llmClient) Name() string { return config.LLMProviderOpenAI }

func (c *llmClient) Generate(ctx context.Context, req llm.GenerationRequest) (string, error) {
	log := c.logger.WithContext(ctx)
	prompt := c.prompts.Build(req)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2*len(prompt.History)+2)
	messages = append(messages, openai.SystemMessage(prompt.System))
	for _, t := range prompt.History {
		messages = append(messages, openai.UserMessage(t.Question), openai.AssistantMessage(t.Answer))
	}
	messages = append(messages, openai.UserMessage(prompt.User))

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       openai.ChatModel(c.modelName),
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		log.Error("OpenAI completion failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("openai returned an empty answer")
	}
	log.Debug("OpenAI answered", "promptTokens", prompt.Tokens, "usage", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/akolanti/docgenie/internal/domain/ragErrors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Capability CapabilityConfig `yaml:"capability"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	LLM        LLMConfig        `yaml:"llm"`
	Vector     VectorConfig     `yaml:"vector"`
	Redis      RedisConfig      `yaml:"redis"`
	Session    SessionConfig    `yaml:"session"`
}

type ServerConfig struct {
	ListenAddr         string   `yaml:"listen_addr" validate:"required"`
	RateLimitPerSecond float64  `yaml:"rate_limit_per_second" validate:"gt=0"`
	RateLimitBurst     int      `yaml:"rate_limit_burst" validate:"gt=0"`
	CORSOrigins        []string `yaml:"cors_origins"`
}

type AuthConfig struct {
	Token        string `yaml:"token"`
	NoAuthBypass bool   `yaml:"no_auth_bypass"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
}

type ChunkingConfig struct {
	MaxSize   int    `yaml:"max_size" validate:"gt=0"`
	Overlap   int    `yaml:"overlap" validate:"gte=0,ltfield=MaxSize"`
	Separator string `yaml:"separator"`
}

type RetrievalConfig struct {
	K      int    `yaml:"k" validate:"gt=0"`
	Metric string `yaml:"metric" validate:"oneof=cosine dot"`
}

type CapabilityConfig struct {
	Timeout        time.Duration `yaml:"timeout" validate:"gt=0"`
	RetryAttempts  int           `yaml:"retry_attempts" validate:"gte=1,lte=10"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" validate:"gte=0"`
	RetryMaxDelay  time.Duration `yaml:"retry_max_delay" validate:"gtefield=RetryBaseDelay"`
}

type EmbeddingConfig struct {
	Provider  string `yaml:"provider" validate:"oneof=google openai local"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	Dimension int32  `yaml:"dimension" validate:"gt=0"`
	BatchSize int    `yaml:"batch_size" validate:"gt=0"`
}

type LLMConfig struct {
	Provider         string  `yaml:"provider" validate:"oneof=gemini openai extractive"`
	Model            string  `yaml:"model"`
	APIKey           string  `yaml:"api_key"`
	Temperature      float32 `yaml:"temperature" validate:"gte=0,lte=2"`
	SystemPrompt     string  `yaml:"system_prompt"`
	MaxHistoryTokens int     `yaml:"max_history_tokens" validate:"gte=0"`
}

type VectorConfig struct {
	Backend         string       `yaml:"backend" validate:"oneof=memory qdrant"`
	AllowEmptyIndex bool         `yaml:"allow_empty_index"`
	Qdrant          QdrantConfig `yaml:"qdrant"`
}

type QdrantConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"gte=0,lte=65535"`
	APIKey   string `yaml:"api_key"`
	UseTLS   bool   `yaml:"use_tls"`
	PoolSize int    `yaml:"pool_size" validate:"gte=0"`
}

type RedisConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Addr             string        `yaml:"addr"`
	Password         string        `yaml:"password"`
	JobTTL           time.Duration `yaml:"job_ttl"`
	TurnTTL          time.Duration `yaml:"turn_ttl"`
	FallbackToMemory bool          `yaml:"fallback_to_memory"`
}

type SessionConfig struct {
	HistoryOnReindex string `yaml:"history_on_reindex" validate:"oneof=retain discard"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:         ServerListenAddr,
			RateLimitPerSecond: RATE_LIMIT_PER_SECOND,
			RateLimitBurst:     BURST_RATE_LIMIT_PER_SECOND,
			CORSOrigins:        []string{"http://localhost:*"},
		},
		Logging: LoggingConfig{Level: "debug", JSON: IS_PROD},
		Chunking: ChunkingConfig{
			MaxSize:   DefaultChunkMaxSize,
			Overlap:   DefaultChunkOverlap,
			Separator: DefaultChunkSeparator,
		},
		Retrieval: RetrievalConfig{K: DefaultRetrievalK, Metric: MetricCosine},
		Capability: CapabilityConfig{
			Timeout:        DefaultCapabilityTimeout,
			RetryAttempts:  DefaultRetryAttempts,
			RetryBaseDelay: DefaultRetryBaseDelay,
			RetryMaxDelay:  DefaultRetryMaxDelay,
		},
		Embedding: EmbeddingConfig{
			Provider:  EmbeddingProviderLocal,
			Dimension: LocalEmbeddingDimension,
			BatchSize: EmbeddingBatchSize,
		},
		LLM: LLMConfig{
			Provider:     LLMProviderExtractive,
			Temperature:  ModelTemperature,
			SystemPrompt: ModelContext,
		},
		Vector: VectorConfig{
			Backend: VectorBackendMemory,
			Qdrant: QdrantConfig{
				Host:     QdrantHost,
				Port:     QdrantGrpcPort,
				UseTLS:   QdrantUseTLS,
				PoolSize: QdrantPoolSize,
			},
		},
		Redis: RedisConfig{
			Addr:             RedisAddr,
			JobTTL:           RedisJobStoreTTL,
			TurnTTL:          RedisTurnStoreTTL,
			FallbackToMemory: FALLBACK_REDIS_TO_INTERNALSTORE,
		},
		Session: SessionConfig{HistoryOnReindex: HistoryRetain},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment (a .env file in the working directory is honoured). The result is
// validated before it is returned.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, ragErrors.New(ragErrors.InvalidConfig, "config file is not valid yaml", err)
			}
		}
	}
	applyEnvOverrides(cfg)
	applyProviderDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Chunking.MaxSize > 0 && c.Chunking.Overlap >= c.Chunking.MaxSize {
		return ragErrors.New(ragErrors.InvalidConfig,
			fmt.Sprintf("chunk overlap %d must be smaller than chunk max size %d", c.Chunking.Overlap, c.Chunking.MaxSize), nil)
	}
	if err := validate.Struct(c); err != nil {
		return ragErrors.New(ragErrors.InvalidConfig, "configuration rejected", err)
	}
	if c.Vector.Backend == VectorBackendQdrant && c.Vector.Qdrant.Host == "" {
		return ragErrors.New(ragErrors.InvalidConfig, "qdrant backend needs a host", nil)
	}
	if c.Embedding.Provider != EmbeddingProviderLocal && c.Embedding.APIKey == "" {
		return ragErrors.New(ragErrors.InvalidConfig, "embedding provider "+c.Embedding.Provider+" needs an api key", nil)
	}
	if c.LLM.Provider != LLMProviderExtractive && c.LLM.APIKey == "" {
		return ragErrors.New(ragErrors.InvalidConfig, "llm provider "+c.LLM.Provider+" needs an api key", nil)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.Auth.Token, "AUTH_TOKEN")
	setBool(&cfg.Auth.NoAuthBypass, "NO_AUTH_BYPASS")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setBool(&cfg.Logging.JSON, "LOG_JSON")

	setInt(&cfg.Chunking.MaxSize, "CHUNK_MAX_SIZE")
	setInt(&cfg.Chunking.Overlap, "CHUNK_OVERLAP")
	setInt(&cfg.Retrieval.K, "RETRIEVAL_K")
	setString(&cfg.Retrieval.Metric, "SIMILARITY_METRIC")

	setString(&cfg.Embedding.Provider, "EMBEDDING_PROVIDER")
	setString(&cfg.Embedding.Model, "EMBEDDING_MODEL")
	setString(&cfg.LLM.Provider, "LLM_PROVIDER")
	setString(&cfg.LLM.Model, "LLM_MODEL")

	setString(&cfg.Vector.Backend, "VECTOR_BACKEND")
	setString(&cfg.Vector.Qdrant.Host, "QDRANT_HOST")
	setInt(&cfg.Vector.Qdrant.Port, "QDRANT_PORT")
	setString(&cfg.Vector.Qdrant.APIKey, "QDRANT_API_KEY")

	setBool(&cfg.Redis.Enabled, "REDIS_ENABLED")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")

	setString(&cfg.Session.HistoryOnReindex, "HISTORY_ON_REINDEX")
}

// applyProviderDefaults fills model names and keys the selected providers expect.
func applyProviderDefaults(cfg *Config) {
	switch cfg.Embedding.Provider {
	case EmbeddingProviderGoogle:
		defaultString(&cfg.Embedding.Model, GoogleEmbeddingModel)
		defaultString(&cfg.Embedding.APIKey, os.Getenv("GOOGLE_API_KEY"))
		if cfg.Embedding.Dimension == LocalEmbeddingDimension {
			cfg.Embedding.Dimension = EmbeddingOutputDimensionality
		}
	case EmbeddingProviderOpenAI:
		defaultString(&cfg.Embedding.Model, OpenAIEmbeddingModel)
		defaultString(&cfg.Embedding.APIKey, os.Getenv("OPENAI_API_KEY"))
		if cfg.Embedding.Dimension == LocalEmbeddingDimension {
			cfg.Embedding.Dimension = EmbeddingOutputDimensionality
		}
	}

	switch cfg.LLM.Provider {
	case LLMProviderGemini:
		defaultString(&cfg.LLM.Model, GeminiModelName)
		defaultString(&cfg.LLM.APIKey, os.Getenv("GOOGLE_API_KEY"))
	case LLMProviderOpenAI:
		defaultString(&cfg.LLM.Model, OpenAIChatModel)
		defaultString(&cfg.LLM.APIKey, os.Getenv("OPENAI_API_KEY"))
	}
	defaultString(&cfg.LLM.SystemPrompt, ModelContext)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*dst = b
		}
	}
}

func defaultString(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

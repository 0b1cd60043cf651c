package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalidValue    = errors.New("invalid configuration value")
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"podcastqa"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"podcastqa"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	// Empty disables the query embedding cache.
	RedisAddr                string `envconfig:"REDIS_ADDR"`
	EmbeddingCacheTTLMinutes int    `envconfig:"EMBEDDING_CACHE_TTL_MINUTES" default:"1440"`

	EnableAPI          bool   `envconfig:"ENABLE_API" default:"true"`
	EnableIngestWorker bool   `envconfig:"ENABLE_INGEST_WORKER" default:"true"`
	IngestConcurrency  int    `envconfig:"INGEST_CONCURRENCY" default:"2"`
	MigrationPath      string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// LLM
	LLMProvider           string `envconfig:"LLM_PROVIDER" default:"gemini"`
	GeminiAPIKey          string `envconfig:"GEMINI_API_KEY"`
	GeminiEmbeddingModel  string `envconfig:"GEMINI_EMBEDDING_MODEL" default:"gemini-embedding-001"`
	GeminiChatModel       string `envconfig:"GEMINI_CHAT_MODEL" default:"gemini-2.0-flash"`
	OpenAIAPIKey          string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL         string `envconfig:"OPENAI_BASE_URL"`
	OpenAIEmbeddingModel  string `envconfig:"OPENAI_EMBEDDING_MODEL" default:"text-embedding-3-large"`
	OpenAICompletionModel string `envconfig:"OPENAI_COMPLETION_MODEL" default:"gpt-4o"`
	RerankAPIKey          string `envconfig:"RERANK_API_KEY"`

	// Embeddings
	EmbeddingDimensions int `envconfig:"EMBEDDING_DIMENSIONS" default:"3072"`
	EmbedBatchSize      int `envconfig:"EMBED_BATCH_SIZE" default:"10"`
	UpsertBatchSize     int `envconfig:"UPSERT_BATCH_SIZE" default:"100"`

	// Alignment & retrieval tuning
	FuzzyMatchThreshold float64 `envconfig:"FUZZY_MATCH_THRESHOLD" default:"0.7"`
	FusionBoost         float64 `envconfig:"FUSION_BOOST" default:"0.2"`
	KeywordBaseScore    float64 `envconfig:"KEYWORD_BASE_SCORE" default:"0.5"`
	SemanticTopK        int     `envconfig:"SEMANTIC_TOP_K" default:"30"`
	KeywordRowLimit     int     `envconfig:"KEYWORD_ROW_LIMIT" default:"50"`
	SearchLimit         int     `envconfig:"SEARCH_LIMIT" default:"30"`
	RerankCandidates    int     `envconfig:"RERANK_CANDIDATES" default:"30"`

	// Timeouts (seconds)
	EmbedTimeoutSeconds      int `envconfig:"EMBED_TIMEOUT_SECONDS" default:"30"`
	CompletionTimeoutSeconds int `envconfig:"COMPLETION_TIMEOUT_SECONDS" default:"30"`
	SearchTimeoutSeconds     int `envconfig:"SEARCH_TIMEOUT_SECONDS" default:"10"`

	// Server
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	ServerPort      int    `envconfig:"SERVER_PORT" default:"8081"`
	QueryLogPath    string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`
	MaxUploadSizeMB int64  `envconfig:"MAX_UPLOAD_SIZE_MB" default:"20"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars set in the shell take precedence; missing files are fine.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	rootEnv := filepath.Join(cwd, "../../.env")
	_ = godotenv.Load(rootEnv)

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.LLMProvider != ProviderGemini && c.LLMProvider != ProviderOpenAI {
		return fmt.Errorf("%w: LLM_PROVIDER must be %q or %q, got %q", ErrInvalidValue, ProviderGemini, ProviderOpenAI, c.LLMProvider)
	}
	if c.LLMProvider == ProviderOpenAI && c.OpenAIAPIKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingRequired)
	}
	if c.FuzzyMatchThreshold < 0 || c.FuzzyMatchThreshold > 1 {
		return fmt.Errorf("%w: FUZZY_MATCH_THRESHOLD must be within [0,1]", ErrInvalidValue)
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("%w: EMBEDDING_DIMENSIONS must be positive", ErrInvalidValue)
	}
	if c.EmbedBatchSize <= 0 || c.UpsertBatchSize <= 0 {
		return fmt.Errorf("%w: batch sizes must be positive", ErrInvalidValue)
	}
	if c.SemanticTopK <= 0 || c.KeywordRowLimit <= 0 || c.SearchLimit <= 0 {
		return fmt.Errorf("%w: retrieval limits must be positive", ErrInvalidValue)
	}
	// A hit found by both search modes must outrank either mode alone.
	if c.FusionBoost <= 0 {
		return fmt.Errorf("%w: FUSION_BOOST must be positive", ErrInvalidValue)
	}
	if c.KeywordBaseScore <= 0 || c.KeywordBaseScore > 1 {
		return fmt.Errorf("%w: KEYWORD_BASE_SCORE must be within (0,1]", ErrInvalidValue)
	}
	return nil
}

func (c *Config) EmbedTimeout() time.Duration {
	return time.Duration(c.EmbedTimeoutSeconds) * time.Second
}

func (c *Config) CompletionTimeout() time.Duration {
	return time.Duration(c.CompletionTimeoutSeconds) * time.Second
}

func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutSeconds) * time.Second
}

func (c *Config) EmbeddingCacheTTL() time.Duration {
	return time.Duration(c.EmbeddingCacheTTLMinutes) * time.Minute
}

// EmbeddingModel is the model name of the active provider, used to scope cached vectors.
func (c *Config) EmbeddingModel() string {
	if c.LLMProvider == ProviderOpenAI {
		return c.OpenAIEmbeddingModel
	}
	return c.GeminiEmbeddingModel
}

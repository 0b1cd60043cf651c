package config_test

import (
	"errors"
	"testing"

	"podcastqa/apps/backend/internal/config"

	"github.com/stretchr/testify/assert"
)

func validConfig() config.Config {
	return config.Config{
		DBHost:              "localhost",
		DBUser:              "user",
		DBName:              "db",
		LLMProvider:         config.ProviderGemini,
		FuzzyMatchThreshold: 0.7,
		EmbeddingDimensions: 3072,
		EmbedBatchSize:      10,
		UpsertBatchSize:     100,
		SemanticTopK:        30,
		KeywordRowLimit:     50,
		SearchLimit:         30,
		FusionBoost:         0.2,
		KeywordBaseScore:    0.5,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
		errIs   error
	}{
		{
			name:    "Valid Config",
			mutate:  func(c *config.Config) {},
			wantErr: false,
		},
		{
			name:    "Missing DBHost",
			mutate:  func(c *config.Config) { c.DBHost = "" },
			wantErr: true,
			errIs:   config.ErrMissingRequired,
		},
		{
			name:    "Missing DBUser",
			mutate:  func(c *config.Config) { c.DBUser = "" },
			wantErr: true,
			errIs:   config.ErrMissingRequired,
		},
		{
			name:    "Missing DBName",
			mutate:  func(c *config.Config) { c.DBName = "" },
			wantErr: true,
			errIs:   config.ErrMissingRequired,
		},
		{
			name:    "Unknown Provider",
			mutate:  func(c *config.Config) { c.LLMProvider = "llama" },
			wantErr: true,
			errIs:   config.ErrInvalidValue,
		},
		{
			name:    "OpenAI Without Key",
			mutate:  func(c *config.Config) { c.LLMProvider = config.ProviderOpenAI },
			wantErr: true,
			errIs:   config.ErrMissingRequired,
		},
		{
			name: "OpenAI With Key",
			mutate: func(c *config.Config) {
				c.LLMProvider = config.ProviderOpenAI
				c.OpenAIAPIKey = "sk-test"
			},
			wantErr: false,
		},
		{
			name:    "Threshold Out Of Range",
			mutate:  func(c *config.Config) { c.FuzzyMatchThreshold = 1.5 },
			wantErr: true,
			errIs:   config.ErrInvalidValue,
		},
		{
			name:    "Zero Dimensions",
			mutate:  func(c *config.Config) { c.EmbeddingDimensions = 0 },
			wantErr: true,
			errIs:   config.ErrInvalidValue,
		},
		{
			name:    "Zero Batch Size",
			mutate:  func(c *config.Config) { c.EmbedBatchSize = 0 },
			wantErr: true,
			errIs:   config.ErrInvalidValue,
		},
		{
			name:    "Zero Fusion Boost",
			mutate:  func(c *config.Config) { c.FusionBoost = 0 },
			wantErr: true,
			errIs:   config.ErrInvalidValue,
		},
		{
			name:    "Keyword Base Above One",
			mutate:  func(c *config.Config) { c.KeywordBaseScore = 1.5 },
			wantErr: true,
			errIs:   config.ErrInvalidValue,
		},
		{
			name:    "Zero Search Limit",
			mutate:  func(c *config.Config) { c.SearchLimit = 0 },
			wantErr: true,
			errIs:   config.ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errIs != nil {
					assert.True(t, errors.Is(err, tt.errIs))
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_EmbeddingModel(t *testing.T) {
	cfg := validConfig()
	cfg.GeminiEmbeddingModel = "gemini-embedding-001"
	cfg.OpenAIEmbeddingModel = "text-embedding-3-large"

	assert.Equal(t, "gemini-embedding-001", cfg.EmbeddingModel())

	cfg.LLMProvider = config.ProviderOpenAI
	assert.Equal(t, "text-embedding-3-large", cfg.EmbeddingModel())
}

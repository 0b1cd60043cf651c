// Package openai adapts an OpenAI-compatible endpoint to the embedding and
// chat contracts.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sdk "github.com/sashabaranov/go-openai"

	"podcastqa/apps/backend/internal/llm"
)

var ErrNoEmbedding = errors.New("no embedding returned")

type Config struct {
	APIKey          string
	BaseURL         string
	EmbeddingModel  string
	CompletionModel string
	Dimensions      int
}

type Client struct {
	client          *sdk.Client
	embeddingModel  sdk.EmbeddingModel
	completionModel string
	dimensions      int
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	c := sdk.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}

	return &Client{
		client:          sdk.NewClientWithConfig(c),
		embeddingModel:  sdk.EmbeddingModel(cfg.EmbeddingModel),
		completionModel: cfg.CompletionModel,
		dimensions:      cfg.Dimensions,
	}, nil
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	slog.DebugContext(ctx, "embedding content", "model", c.embeddingModel, "length", len(text))

	resp, err := c.client.CreateEmbeddings(ctx, sdk.EmbeddingRequestStrings{
		Input:      []string{text},
		Model:      c.embeddingModel,
		Dimensions: c.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrNoEmbedding
	}
	return resp.Data[0].Embedding, nil
}

func (c *Client) Complete(ctx context.Context, req llm.ChatRequest) (string, error) {
	messages := make([]sdk.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, sdk.ChatCompletionMessage{Role: sdk.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		role := sdk.ChatMessageRoleUser
		if m.Role == llm.RoleAssistant {
			role = sdk.ChatMessageRoleAssistant
		}
		messages = append(messages, sdk.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, sdk.ChatCompletionRequest{
		Model:       c.completionModel,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", llm.ErrEmptyCompletion
	}
	return llm.CheckCompletion(resp.Choices[0].Message.Content)
}

// Package llm holds the provider-neutral chat contract used for query
// rewriting, re-ranking and answer synthesis.
package llm

import (
	"context"
	"errors"
	"strings"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var ErrEmptyCompletion = errors.New("empty completion")

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// Ask is a single-turn request.
func Ask(system, prompt string, maxTokens int) ChatRequest {
	return ChatRequest{
		System:    system,
		Messages:  []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens: maxTokens,
	}
}

// CheckCompletion trims text and rejects an empty answer.
func CheckCompletion(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

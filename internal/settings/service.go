package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	RerankNone   = "none"
	RerankLLM    = "llm"
	RerankJina   = "jina"
	RerankCohere = "cohere"

	MaxSearchLimit = 100

	maskPrefix = "****"
)

var ErrInvalidSettings = errors.New("invalid settings")

type Settings struct {
	ID             int    `json:"-"`
	RerankProvider string `json:"rerank_provider"`
	RerankAPIKey   string `json:"rerank_api_key"`
	GeminiAPIKey   string `json:"gemini_api_key"`
	SearchLimit    int    `json:"search_limit"`
}

type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, s *Settings) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context) (*Settings, error) {
	return s.repo.Get(ctx)
}

// View returns the settings with API keys masked, for display.
func (s *Service) View(ctx context.Context) (*Settings, error) {
	set, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	masked := *set
	masked.RerankAPIKey = MaskKey(set.RerankAPIKey)
	masked.GeminiAPIKey = MaskKey(set.GeminiAPIKey)
	return &masked, nil
}

// Update stores set. A key sent back in its masked form keeps the stored key.
func (s *Service) Update(ctx context.Context, set *Settings) error {
	if isMasked(set.RerankAPIKey) || isMasked(set.GeminiAPIKey) {
		current, err := s.repo.Get(ctx)
		if err != nil {
			return err
		}
		if isMasked(set.RerankAPIKey) {
			set.RerankAPIKey = current.RerankAPIKey
		}
		if isMasked(set.GeminiAPIKey) {
			set.GeminiAPIKey = current.GeminiAPIKey
		}
	}
	if err := set.Validate(); err != nil {
		return err
	}
	return s.repo.Update(ctx, set)
}

// MaskKey keeps the last four characters of a key.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return maskPrefix
	}
	return maskPrefix + key[len(key)-4:]
}

func isMasked(key string) bool {
	return strings.HasPrefix(key, maskPrefix)
}

// Validate normalises an empty provider to none.
func (s *Settings) Validate() error {
	switch s.RerankProvider {
	case "":
		s.RerankProvider = RerankNone
	case RerankNone, RerankLLM, RerankJina, RerankCohere:
	default:
		return fmt.Errorf("%w: unknown rerank provider %q", ErrInvalidSettings, s.RerankProvider)
	}
	if (s.RerankProvider == RerankJina || s.RerankProvider == RerankCohere) && s.RerankAPIKey == "" {
		return fmt.Errorf("%w: rerank provider %s requires an api key", ErrInvalidSettings, s.RerankProvider)
	}
	if s.SearchLimit < 0 || s.SearchLimit > MaxSearchLimit {
		return fmt.Errorf("%w: search_limit must be between 0 and %d", ErrInvalidSettings, MaxSearchLimit)
	}
	return nil
}

package reranker

import (
	"context"
	"fmt"
	"sync"

	"podcastqa/apps/backend/internal/settings"
)

// DynamicClient picks the rerank provider from settings on every call. The
// "llm" provider delegates to the reranker passed to NewDynamicClient.
type DynamicClient struct {
	settingsSvc *settings.Service
	llm         Reranker

	mu          sync.Mutex
	client      *Client
	curProvider string
	curKey      string
}

func NewDynamicClient(svc *settings.Service, llm Reranker) *DynamicClient {
	return &DynamicClient{settingsSvc: svc, llm: llm}
}

func (d *DynamicClient) Rerank(ctx context.Context, query string, docs []string, topN int) ([]int, error) {
	s, err := d.settingsSvc.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	switch s.RerankProvider {
	case settings.RerankJina, settings.RerankCohere:
		return d.getClient(s.RerankProvider, s.RerankAPIKey).Rerank(ctx, query, docs, topN)
	case settings.RerankLLM:
		if d.llm != nil {
			return d.llm.Rerank(ctx, query, docs, topN)
		}
	}
	return Identity(len(docs)), nil
}

func (d *DynamicClient) getClient(provider, key string) *Client {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client != nil && d.curProvider == provider && d.curKey == key {
		return d.client
	}

	d.client = NewClient(provider, key)
	d.curProvider = provider
	d.curKey = key
	return d.client
}

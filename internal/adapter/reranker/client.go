// Package reranker reorders retrieved transcript passages by relevance using
// a hosted rerank API (Jina or Cohere).
package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	jinaURL     = "https://api.jina.ai/v1/rerank"
	jinaModel   = "jina-reranker-v2-base-multilingual"
	cohereURL   = "https://api.cohere.ai/v1/rerank"
	cohereModel = "rerank-english-v3.0"
)

// Reranker returns indices into docs, most relevant first. Indices may be a
// subset of docs. topN asks for at most that many; 0 means all of docs.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string, topN int) ([]int, error)
}

type Client struct {
	apiKey   string
	provider string
	client   *http.Client
	baseURL  string
}

func NewClient(provider, apiKey string) *Client {
	return &Client{
		provider: provider,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

func (c *Client) Rerank(ctx context.Context, query string, docs []string, topN int) ([]int, error) {
	topN = TopN(topN, len(docs))
	switch c.provider {
	case "jina":
		return c.post(ctx, c.urlOr(jinaURL), map[string]interface{}{
			"model":     jinaModel,
			"query":     query,
			"documents": docs,
			"top_n":     topN,
		}, len(docs))
	case "cohere":
		return c.post(ctx, c.urlOr(cohereURL), map[string]interface{}{
			"model":            cohereModel,
			"query":            query,
			"documents":        docs,
			"top_n":            topN,
			"return_documents": false,
		}, len(docs))
	default:
		return Identity(len(docs)), nil
	}
}

func (c *Client) urlOr(def string) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return def
}

func (c *Client) post(ctx context.Context, url string, body map[string]interface{}, n int) ([]int, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%s api error: %d %s", c.provider, resp.StatusCode, bytes.TrimSpace(detail))
	}

	var result struct {
		Results []struct {
			Index int     `json:"index"`
			Score float64 `json:"relevance_score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	indices := make([]int, 0, len(result.Results))
	for _, r := range result.Results {
		indices = append(indices, r.Index)
	}
	return Sanitize(indices, n), nil
}

// TopN clamps a requested result count to [1, n]; 0 or less means n.
func TopN(topN, n int) int {
	if topN <= 0 || topN > n {
		return n
	}
	return topN
}

// Identity returns 0..n-1.
func Identity(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// Sanitize drops out-of-range and repeated indices, keeping first occurrence order.
func Sanitize(indices []int, n int) []int {
	seen := make(map[int]bool, len(indices))
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= n || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	return out
}

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"podcastqa/apps/backend/internal/catalog"
	"podcastqa/apps/backend/internal/retrieval"
	"podcastqa/apps/backend/internal/settings"
)

const (
	ToolSearch = "podcast_search"
	ToolList   = "podcast_list"
)

var ErrInvalidArgs = errors.New("invalid arguments")

type Retriever interface {
	Search(ctx context.Context, query string, podcastIDs []int64, limit int) ([]retrieval.SearchResult, error)
}

type PodcastLister interface {
	ListPodcasts(ctx context.Context) ([]catalog.Podcast, error)
}

type SearchArgs struct {
	Query      string  `json:"query"`
	PodcastIDs []int64 `json:"podcast_ids,omitempty"`
	Limit      *int    `json:"limit,omitempty"`
}

func (a SearchArgs) validate() error {
	if strings.TrimSpace(a.Query) == "" {
		return fmt.Errorf("%w: query is required", ErrInvalidArgs)
	}
	if a.Limit != nil && (*a.Limit < 1 || *a.Limit > settings.MaxSearchLimit) {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidArgs, settings.MaxSearchLimit)
	}
	return nil
}

// Tools executes the MCP tools independently of the transport.
type Tools struct {
	retriever Retriever
	podcasts  PodcastLister
}

func NewTools(r Retriever, p PodcastLister) *Tools {
	return &Tools{retriever: r, podcasts: p}
}

// Search runs a hybrid search and renders the results as numbered citations.
func (t *Tools) Search(ctx context.Context, args SearchArgs) (string, error) {
	if err := args.validate(); err != nil {
		return "", err
	}
	limit := 0
	if args.Limit != nil {
		limit = *args.Limit
	}

	results, err := t.retriever.Search(ctx, args.Query, args.PodcastIDs, limit)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	slog.InfoContext(ctx, "tool execution completed", "tool", ToolSearch, "result_count", len(results))

	if len(results) == 0 {
		return "No matching passages found.", nil
	}
	return renderCitations(retrieval.FormatCitations(results)), nil
}

func renderCitations(citations []retrieval.Citation) string {
	var b strings.Builder
	for i, c := range citations {
		fmt.Fprintf(&b, "[%d] %s / %s\n", i+1, c.PodcastName, c.EpisodeTitle)
		fmt.Fprintf(&b, "Speaker: %s (%s-%s)\n", c.SpeakerName, clock(c.StartTime), clock(c.EndTime))
		fmt.Fprintf(&b, "%s\n", c.Content)
		fmt.Fprintf(&b, "Audio: %s\n", c.AudioURL)
		b.WriteString("---\n")
	}
	return b.String()
}

// clock renders seconds as m:ss or h:mm:ss.
func clock(seconds float64) string {
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

type podcastSummary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ListPodcasts renders the indexed podcasts as indented JSON.
func (t *Tools) ListPodcasts(ctx context.Context) (string, error) {
	podcasts, err := t.podcasts.ListPodcasts(ctx)
	if err != nil {
		return "", err
	}
	if len(podcasts) == 0 {
		return "No podcasts found.", nil
	}

	out := make([]podcastSummary, len(podcasts))
	for i, p := range podcasts {
		out[i] = podcastSummary{ID: p.ID, Name: p.Name, Description: p.Description}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

const searchDescription = `Search podcast transcripts. Performs a hybrid search (semantic + keyword) and returns passages with speaker, episode and an audio link that seeks to the passage.

USAGE EXAMPLES:
- podcast_search(query="what did they say about remote work")
- podcast_search(query="pricing strategy", podcast_ids=[1, 3], limit=5)`

const listDescription = `Discovery tool. Lists the podcasts whose transcripts are indexed. Use the ids to narrow podcast_search.`

func searchProperties() map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]string{
			"type":        "string",
			"description": "The question or topic to search for",
		},
		"podcast_ids": map[string]interface{}{
			"type":        "array",
			"items":       map[string]string{"type": "integer"},
			"description": "Restrict results to these podcasts (default: all)",
		},
		"limit": map[string]interface{}{
			"type":        "integer",
			"description": "Max passages to return",
			"minimum":     1,
			"maximum":     settings.MaxSearchLimit,
		},
	}
}

func searchSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": searchProperties(),
		"required":   []string{"query"},
	}
}

func listSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"podcastqa/apps/backend/internal/adapter/reranker"
	"podcastqa/apps/backend/internal/llm"
)

var ErrNoValidIndex = errors.New("rerank returned no valid index")

const rerankPrompt = `You are evaluating potential citations from podcast transcripts.

Consider how directly each excerpt answers the question, how authoritative the speaker is on the topic, and how well the citations complement each other.

User Query: %s

Potential Citations:
%s

Rank the citations by overall relevance. Return only the numbers of the top %d most relevant citations in order of relevance, separated by commas. For example: "3, 7, 1, 12, 5"

Output only the comma-separated list of numbers with no additional text.`

// LLMReranker ranks passages by asking a chat model for an ordered list of
// citation numbers.
type LLMReranker struct {
	chat llm.ChatCompleter
}

func NewLLMReranker(chat llm.ChatCompleter) *LLMReranker {
	return &LLMReranker{chat: chat}
}

func (r *LLMReranker) Rerank(ctx context.Context, query string, docs []string, topN int) ([]int, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	var b strings.Builder
	for i, d := range docs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s", i+1, d)
	}

	out, err := r.chat.Complete(ctx, llm.Ask("", fmt.Sprintf(rerankPrompt, query, b.String(), reranker.TopN(topN, len(docs))), 1024))
	if err != nil {
		return nil, fmt.Errorf("rerank completion: %w", err)
	}

	indices := ParseRankedIndices(out, len(docs))
	if len(indices) == 0 {
		return nil, ErrNoValidIndex
	}
	return indices, nil
}

// ParseRankedIndices reads a list of 1-based citation numbers and returns
// 0-based indices below n. Non-numeric entries and duplicates are discarded.
func ParseRankedIndices(text string, n int) []int {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n' || r == ' ' || r == '\t'
	})
	raw := make([]int, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, `[]."'`)
		v, err := strconv.Atoi(f)
		if err != nil {
			continue
		}
		raw = append(raw, v-1)
	}
	return reranker.Sanitize(raw, n)
}

// describe renders a candidate the way the rerank prompt lists it.
func describe(c Candidate, speaker string) string {
	return fmt.Sprintf("%s (Speaker: %s, Time: %s-%s)",
		c.Metadata.Content, speaker, formatSeconds(c.Metadata.StartTime), formatSeconds(c.Metadata.EndTime))
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

// Package query answers questions over the transcript corpus: hybrid search,
// citations and an LLM-synthesized answer.
package query

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"podcastqa/apps/backend/internal/llm"
	"podcastqa/apps/backend/internal/retrieval"
)

const (
	NoResultsAnswer = "I couldn't find any relevant information in the podcast transcripts for your query."
	FailureAnswer   = "I'm sorry, I encountered an error while generating a response. Please try again."
)

const synthesisSystem = `You are synthesizing information from podcast transcripts to answer a user query.

Create a comprehensive, accurate response based on the provided transcript chunks.

Guidelines:
1. Provide a bulleted list of key points with citation numbers in [brackets]
2. Follow with 1-2 paragraphs expanding on these points
3. Show multiple viewpoints when present, indicating consensus vs minority positions
4. Only use information from the provided chunks
5. If the chunks don't contain relevant information, say so clearly
6. Use citation numbers consistently throughout your response`

var citationRef = regexp.MustCompile(`\[(\d+)\]`)

// Synthesizer turns retrieved passages into an answer.
type Synthesizer struct {
	chat      llm.ChatCompleter
	timeout   time.Duration
	maxTokens int
}

func NewSynthesizer(chat llm.ChatCompleter, timeout time.Duration) *Synthesizer {
	return &Synthesizer{chat: chat, timeout: timeout, maxTokens: 4096}
}

// Answer asks the model for an answer grounded in results. history holds
// earlier turns of the conversation, oldest first.
func (s *Synthesizer) Answer(ctx context.Context, question string, results []retrieval.SearchResult, history []llm.Message) (string, error) {
	if s.chat == nil {
		return "", fmt.Errorf("answer synthesis: %w", llm.ErrEmptyCompletion)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	messages := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		if (m.Role == llm.RoleUser || m.Role == llm.RoleAssistant) && strings.TrimSpace(m.Content) != "" {
			messages = append(messages, m)
		}
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: synthesisPrompt(question, results)})

	out, err := s.chat.Complete(ctx, llm.ChatRequest{
		System:    synthesisSystem,
		Messages:  messages,
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("answer synthesis: %w", err)
	}
	return llm.CheckCompletion(out)
}

func synthesisPrompt(question string, results []retrieval.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nRelevant Transcript Chunks:\n", question)
	for i, r := range results {
		speaker := r.SpeakerName
		if speaker == "" {
			speaker = retrieval.UnknownSpeakerName
		}
		fmt.Fprintf(&b, "[%d] %s (Speaker: %s, Episode: %s, Time: %s-%s)\n\n",
			i+1, r.Content, speaker, r.EpisodeTitle, seconds(r.StartTime), seconds(r.EndTime))
	}
	b.WriteString("Please provide a comprehensive answer to my query based on these transcript chunks.")
	return b.String()
}

func seconds(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// CitedIndices returns the distinct zero-based passage indices referenced as
// [n] in text, in order of first reference. Out-of-range references are
// ignored.
func CitedIndices(text string, n int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, m := range citationRef.FindAllStringSubmatch(text, -1) {
		i, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		i--
		if i < 0 || i >= n || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	return out
}

// SelectCitations keeps the citations the answer refers to, or all of them
// when it refers to none.
func SelectCitations(answer string, citations []retrieval.Citation) []retrieval.Citation {
	idx := CitedIndices(answer, len(citations))
	if len(idx) == 0 {
		return citations
	}
	out := make([]retrieval.Citation, len(idx))
	for i, j := range idx {
		out[i] = citations[j]
	}
	return out
}

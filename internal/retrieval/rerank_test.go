package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podcastqa/apps/backend/internal/llm"
)

type stubChat struct {
	reply string
	err   error
	last  llm.ChatRequest
}

func (s *stubChat) Complete(_ context.Context, req llm.ChatRequest) (string, error) {
	s.last = req
	return s.reply, s.err
}

func TestParseRankedIndices(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want []int
	}{
		{"Comma Separated", "3, 1, 2", 3, []int{2, 0, 1}},
		{"Discards Invalid", "3, x, 0, 9, 3, 1", 3, []int{2, 0}},
		{"Brackets And Newlines", "[2]\n[1].", 2, []int{1, 0}},
		{"Nothing Valid", "none of these", 4, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRankedIndices(tt.text, tt.n))
		})
	}
}

func TestLLMReranker(t *testing.T) {
	docs := []string{"alpha (Speaker: Ann, Time: 0-1)", "beta (Speaker: Bob, Time: 1-2)"}

	t.Run("Success", func(t *testing.T) {
		chat := &stubChat{reply: "2, 1"}
		got, err := NewLLMReranker(chat).Rerank(context.Background(), "q", docs, 0)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 0}, got)
		require.Len(t, chat.last.Messages, 1)
		assert.Contains(t, chat.last.Messages[0].Content, "[1] alpha (Speaker: Ann, Time: 0-1)")
		assert.Contains(t, chat.last.Messages[0].Content, "[2] beta")
		assert.Contains(t, chat.last.Messages[0].Content, "User Query: q")
	})

	t.Run("Asks For Top N", func(t *testing.T) {
		chat := &stubChat{reply: "2"}
		got, err := NewLLMReranker(chat).Rerank(context.Background(), "q", docs, 1)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, got)
		assert.Contains(t, chat.last.Messages[0].Content, "top 1 most relevant")
	})

	t.Run("Zero Top N Asks For All", func(t *testing.T) {
		chat := &stubChat{reply: "1, 2"}
		_, err := NewLLMReranker(chat).Rerank(context.Background(), "q", docs, 0)
		require.NoError(t, err)
		assert.Contains(t, chat.last.Messages[0].Content, "top 2 most relevant")
	})

	t.Run("No Valid Index", func(t *testing.T) {
		_, err := NewLLMReranker(&stubChat{reply: "7, 8"}).Rerank(context.Background(), "q", docs, 0)
		assert.ErrorIs(t, err, ErrNoValidIndex)
	})

	t.Run("Completion Error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := NewLLMReranker(&stubChat{err: boom}).Rerank(context.Background(), "q", docs, 0)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("No Docs", func(t *testing.T) {
		got, err := NewLLMReranker(&stubChat{}).Rerank(context.Background(), "q", nil, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestRewriteQuery(t *testing.T) {
	t.Run("Expanded", func(t *testing.T) {
		got := RewriteQuery(context.Background(), &stubChat{reply: "  venture capital returns  "}, "vc")
		assert.False(t, got.Degraded)
		assert.Equal(t, "venture capital returns", got.Value)
	})

	t.Run("Error Falls Back", func(t *testing.T) {
		got := RewriteQuery(context.Background(), &stubChat{err: context.DeadlineExceeded}, "vc")
		assert.True(t, got.Degraded)
		assert.Equal(t, "vc", got.Value)
		assert.Equal(t, "timeout", string(got.Reason))
	})

	t.Run("Empty Falls Back", func(t *testing.T) {
		got := RewriteQuery(context.Background(), &stubChat{reply: " "}, "vc")
		assert.True(t, got.Degraded)
		assert.Equal(t, "vc", got.Value)
	})

	t.Run("No Rewriter", func(t *testing.T) {
		got := RewriteQuery(context.Background(), nil, "vc")
		assert.False(t, got.Degraded)
		assert.Equal(t, "vc", got.Value)
	})
}

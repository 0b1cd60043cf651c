// Package embedding turns chunk text into fixed-length vectors. Batch calls
// never fail as a whole: a failed item becomes a zero vector at its own
// position.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"podcastqa/apps/backend/internal/degrade"
)

var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Options struct {
	// BatchSize bounds concurrent upstream calls.
	BatchSize  int
	Dimensions int
	// Timeout applies to each upstream call. Zero disables it.
	Timeout time.Duration
}

type Gateway struct {
	embedder Embedder
	opts     Options
}

func NewGateway(e Embedder, opts Options) *Gateway {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	return &Gateway{embedder: e, opts: opts}
}

func (g *Gateway) Dimensions() int {
	return g.opts.Dimensions
}

func (g *Gateway) ZeroVector() []float32 {
	return make([]float32, g.opts.Dimensions)
}

// EmbedBatch returns one result per input, index-aligned with texts.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) []degrade.Result[[]float32] {
	results := make([]degrade.Result[[]float32], len(texts))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.BatchSize)
	for i, text := range texts {
		eg.Go(func() error {
			results[i] = g.embedOne(egCtx, text)
			return nil
		})
	}
	_ = eg.Wait()

	if n := degrade.Count(results); n > 0 {
		slog.WarnContext(ctx, "embedding batch degraded", "failed", n, "total", len(texts))
	}
	return results
}

// EmbedQuery embeds a search query. Unlike EmbedBatch a failure is returned.
func (g *Gateway) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	r := g.embedOne(ctx, text)
	if r.Degraded {
		if r.Err != nil {
			return nil, fmt.Errorf("embed query: %w", r.Err)
		}
		return nil, fmt.Errorf("embed query: %s", r.Reason)
	}
	return r.Value, nil
}

func (g *Gateway) embedOne(ctx context.Context, text string) degrade.Result[[]float32] {
	if strings.TrimSpace(text) == "" {
		return degrade.Fallback(g.ZeroVector(), degrade.ReasonEmpty, nil)
	}

	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	vec, err := g.embedder.Embed(ctx, text)
	if err != nil {
		slog.DebugContext(ctx, "embedding failed", "error", err, "length", len(text))
		return degrade.FromError(g.ZeroVector(), err)
	}
	if g.opts.Dimensions > 0 && len(vec) != g.opts.Dimensions {
		err := fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), g.opts.Dimensions)
		return degrade.Fallback(g.ZeroVector(), degrade.ReasonMalformed, err)
	}
	return degrade.OK(vec)
}

package retrieval

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"podcastqa/apps/backend/internal/adapter/reranker"
	"podcastqa/apps/backend/internal/catalog"
	"podcastqa/apps/backend/internal/degrade"
	"podcastqa/apps/backend/internal/llm"
	"podcastqa/apps/backend/internal/middleware"
	"podcastqa/apps/backend/internal/settings"
	"podcastqa/apps/backend/internal/vector"
)

var ErrEmptyQuery = errors.New("query is empty")

type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type VectorSearcher interface {
	Query(ctx context.Context, vec []float32, topK int, podcastIDs []int64) ([]vector.Match, error)
}

type SettingsProvider interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

type Options struct {
	Fusion            FusionOptions
	SemanticTopK      int
	KeywordRowLimit   int
	DefaultLimit      int
	RerankCandidates  int
	SearchTimeout     time.Duration
	CompletionTimeout time.Duration
}

func (o Options) withDefaults() Options {
	o.Fusion = o.Fusion.withDefaults()
	if o.SemanticTopK <= 0 {
		o.SemanticTopK = 30
	}
	if o.KeywordRowLimit <= 0 {
		o.KeywordRowLimit = 50
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = 30
	}
	if o.RerankCandidates <= 0 {
		o.RerankCandidates = 30
	}
	if o.SearchTimeout <= 0 {
		o.SearchTimeout = 10 * time.Second
	}
	if o.CompletionTimeout <= 0 {
		o.CompletionTimeout = 30 * time.Second
	}
	return o
}

type Service struct {
	embedder QueryEmbedder
	vectors  VectorSearcher
	catalog  Catalog
	reranker reranker.Reranker
	rewriter llm.ChatCompleter
	settings SettingsProvider
	logger   *QueryLogger
	opts     Options
}

func NewService(e QueryEmbedder, v VectorSearcher, c Catalog, opts Options) *Service {
	return &Service{embedder: e, vectors: v, catalog: c, opts: opts.withDefaults()}
}

// WithReranker sets the relevance stage. Without one, fused order is kept.
func (s *Service) WithReranker(r reranker.Reranker) *Service {
	s.reranker = r
	return s
}

// WithRewriter enables LLM query expansion.
func (s *Service) WithRewriter(c llm.ChatCompleter) *Service {
	s.rewriter = c
	return s
}

// WithSettings lets the runtime search_limit override the configured default.
func (s *Service) WithSettings(p SettingsProvider) *Service {
	s.settings = p
	return s
}

func (s *Service) WithQueryLogger(l *QueryLogger) *Service {
	s.logger = l
	return s
}

// Search runs the hybrid pipeline: rewrite, embed, semantic and keyword
// search in parallel, fuse, rerank, enrich, truncate. Collaborator failures
// degrade the affected stage; a failed query embedding yields no results.
func (s *Service) Search(ctx context.Context, query string, podcastIDs []int64, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	start := time.Now()
	entry := QueryLogEntry{Query: query, PodcastIDs: podcastIDs}
	var results []SearchResult
	defer func() {
		if s.logger == nil {
			return
		}
		entry.NumResults = len(results)
		entry.Duration = time.Since(start)
		if id, ok := ctx.Value(middleware.CorrelationKey).(string); ok {
			entry.CorrelationID = id
		}
		s.logger.Log(entry)
	}()

	limit = s.resolveLimit(ctx, limit)
	entry.Limit = limit

	// 1. Rewrite
	rctx, cancel := context.WithTimeout(ctx, s.opts.CompletionTimeout)
	rewritten := RewriteQuery(rctx, s.rewriter, query)
	cancel()
	if rewritten.Degraded {
		entry.degrade("rewrite", rewritten.Reason)
		slog.WarnContext(ctx, "query rewrite failed, using original query", "reason", rewritten.Reason, "error", rewritten.Err)
	}
	searchText := rewritten.Value
	entry.RewrittenQuery = searchText

	// 2. Embed
	vec, err := s.embedder.EmbedQuery(ctx, searchText)
	if err != nil {
		entry.degrade("embed", degrade.Classify(err))
		slog.ErrorContext(ctx, "query embedding failed", "error", err)
		return nil, nil
	}

	// 3. Semantic and keyword search
	var (
		semantic []vector.Match
		keyword  []catalog.KeywordHit
	)
	keywords := ExtractKeywords(searchText)
	entry.Keywords = keywords

	var g errgroup.Group
	g.Go(func() error {
		res := s.semanticSearch(ctx, vec, podcastIDs)
		if res.Degraded {
			slog.WarnContext(ctx, "semantic search failed", "reason", res.Reason, "error", res.Err)
		}
		semantic = res.Value
		return nil
	})
	g.Go(func() error {
		keyword = s.keywordSearch(ctx, keywords, podcastIDs)
		return nil
	})
	_ = g.Wait()

	if semantic == nil {
		entry.degrade("semantic", degrade.ReasonUpstream)
	}

	// 4-5. Fuse and sort
	candidates := Fuse(semantic, keyword, s.opts.Fusion)
	entry.Candidates = len(candidates)
	if len(candidates) == 0 {
		return nil, nil
	}

	res := newResolver(s.catalog)

	// 6. Rerank
	ranked := s.rerank(ctx, res, query, candidates, limit)
	if ranked.Degraded {
		entry.degrade("rerank", ranked.Reason)
		slog.WarnContext(ctx, "rerank failed, keeping fused order", "reason", ranked.Reason, "error", ranked.Err)
	}

	// 7-8. Enrich and truncate
	results = res.enrich(ctx, ranked.Value, limit)
	return results, nil
}

func (s *Service) resolveLimit(ctx context.Context, limit int) int {
	if limit > 0 {
		return min(limit, settings.MaxSearchLimit)
	}
	if s.settings != nil {
		set, err := s.settings.Get(ctx)
		if err != nil {
			slog.WarnContext(ctx, "failed to load settings, using default search limit", "error", err)
		} else if set.SearchLimit > 0 {
			return set.SearchLimit
		}
	}
	return s.opts.DefaultLimit
}

// semanticSearch reports a failed query as degraded with a nil value so the
// caller can tell it apart from an empty hit list.
func (s *Service) semanticSearch(ctx context.Context, vec []float32, podcastIDs []int64) degrade.Result[[]vector.Match] {
	ctx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
	defer cancel()

	matches, err := s.vectors.Query(ctx, vec, s.opts.SemanticTopK, podcastIDs)
	if err != nil {
		return degrade.FromError[[]vector.Match](nil, err)
	}
	if matches == nil {
		matches = []vector.Match{}
	}
	return degrade.OK(matches)
}

// keywordSearch runs one substring query per keyword and flattens the rows
// in keyword order. A failed keyword contributes nothing.
func (s *Service) keywordSearch(ctx context.Context, keywords []string, podcastIDs []int64) []catalog.KeywordHit {
	if len(keywords) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
	defer cancel()

	perKeyword := make([][]catalog.KeywordHit, len(keywords))
	var g errgroup.Group
	g.SetLimit(4)
	for i, kw := range keywords {
		g.Go(func() error {
			hits, err := s.catalog.KeywordSearch(ctx, kw, podcastIDs, s.opts.KeywordRowLimit)
			if err != nil {
				slog.WarnContext(ctx, "keyword search failed", "keyword", kw, "reason", degrade.Classify(err), "error", err)
				return nil
			}
			perKeyword[i] = hits
			return nil
		})
	}
	_ = g.Wait()

	var flat []catalog.KeywordHit
	for _, hits := range perKeyword {
		flat = append(flat, hits...)
	}
	return flat
}

// rerank orders the top candidates by relevance, asking for limit of them.
// The pool is never smaller than limit. On failure the fused order is
// returned unchanged as a fallback.
func (s *Service) rerank(ctx context.Context, res *resolver, query string, candidates []Candidate, limit int) degrade.Result[[]Candidate] {
	if s.reranker == nil {
		return degrade.OK(candidates)
	}

	pool := candidates[:min(len(candidates), max(s.opts.RerankCandidates, limit))]
	docs := make([]string, len(pool))
	for i, c := range pool {
		docs[i] = describe(c, res.speakerName(ctx, c.Metadata.SpeakerID))
	}

	rctx, cancel := context.WithTimeout(ctx, s.opts.CompletionTimeout)
	defer cancel()
	indices, err := s.reranker.Rerank(rctx, query, docs, limit)
	if err != nil {
		return degrade.FromError(candidates, err)
	}
	indices = reranker.Sanitize(indices, len(pool))
	if len(indices) == 0 {
		return degrade.Fallback(candidates, degrade.ReasonMalformed, ErrNoValidIndex)
	}

	ordered := make([]Candidate, len(indices))
	for i, idx := range indices {
		ordered[i] = pool[idx]
	}
	return degrade.OK(ordered)
}

package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/nsqio/go-nsq"

	"podcastqa/apps/backend/features/audio"
	"podcastqa/apps/backend/features/job"
	"podcastqa/apps/backend/features/mcp"
	"podcastqa/apps/backend/features/podcast"
	"podcastqa/apps/backend/features/query"
	"podcastqa/apps/backend/features/stats"
	"podcastqa/apps/backend/features/transcript"
	"podcastqa/apps/backend/internal/adapter/gemini"
	"podcastqa/apps/backend/internal/adapter/openai"
	"podcastqa/apps/backend/internal/adapter/reranker"
	"podcastqa/apps/backend/internal/catalog"
	"podcastqa/apps/backend/internal/config"
	"podcastqa/apps/backend/internal/embedding"
	"podcastqa/apps/backend/internal/llm"
	"podcastqa/apps/backend/internal/middleware"
	"podcastqa/apps/backend/internal/retrieval"
	"podcastqa/apps/backend/internal/settings"
	"podcastqa/apps/backend/internal/vector"
	"podcastqa/apps/backend/internal/worker"
)

// Version is reported by the MCP endpoints.
const Version = "1.0.0"

type Pinger interface {
	PingContext(ctx context.Context) error
}

type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// VectorStore is everything the app needs from the vector database.
type VectorStore interface {
	SchemaEnsurer
	Upsert(ctx context.Context, namespace string, records []vector.Record) (int, error)
	Query(ctx context.Context, vec []float32, topK int, podcastIDs []int64) ([]vector.Match, error)
	DeleteByEpisode(ctx context.Context, namespace string, episodeID int64) error
	DeleteNamespace(ctx context.Context, namespace string) error
	CountChunks(ctx context.Context) (int, error)
}

type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler   http.Handler
	Retrieval *retrieval.Service
	Ingestor  *worker.Ingestor
	Consumer  *worker.TranscriptConsumer
	Tools     *mcp.Tools

	cfg     *config.Config
	closers []func() error
}

// New wires repositories, providers and handlers. cache may be nil, in which
// case query embeddings are not cached.
func New(
	cfg *config.Config,
	db *sql.DB,
	vecStore VectorStore,
	taskPub TaskPublisher,
	cache embedding.Cache,
) (*App, error) {
	a := &App{cfg: cfg}

	settingsService := settings.NewService(settings.NewPostgresRepo(db))
	settingsHandler := settings.NewHandler(settingsService)

	embedder, chat, err := a.newProviders(cfg, settingsService)
	if err != nil {
		return nil, err
	}

	embedOpts := embedding.Options{
		BatchSize:  cfg.EmbedBatchSize,
		Dimensions: cfg.EmbeddingDimensions,
		Timeout:    cfg.EmbedTimeout(),
	}
	ingestEmbeddings := embedding.NewGateway(embedder, embedOpts)
	queryEmbeddings := ingestEmbeddings
	if cache != nil {
		queryEmbeddings = embedding.NewGateway(embedding.NewCachedEmbedder(embedder, cache, cfg.EmbeddingModel()), embedOpts)
	}

	catalogRepo := catalog.NewPostgresRepo(db)

	// Feature: Job
	jobRepo := job.NewPostgresRepo(db)
	jobService := job.NewService(jobRepo, taskPub)
	jobHandler := job.NewHandler(jobService)

	// Feature: Stats
	statsHandler := stats.NewHandler(catalogRepo, jobRepo, vecStore)

	// Feature: Podcast catalog
	podcastHandler := podcast.NewHandler(podcast.NewService(catalogRepo, vecStore))

	// Ingestion
	a.Ingestor = worker.NewIngestor(catalogRepo, ingestEmbeddings, vecStore).
		WithFuzzyThreshold(cfg.FuzzyMatchThreshold)
	a.Consumer = worker.NewTranscriptConsumer(a.Ingestor, jobRepo)
	transcriptHandler := transcript.NewHandler(a.Ingestor, catalogRepo, taskPub)

	// Retrieval
	queryLogger := a.newQueryLogger(cfg.QueryLogPath)
	a.Retrieval = retrieval.NewService(queryEmbeddings, vecStore, catalogRepo, retrieval.Options{
		Fusion: retrieval.FusionOptions{
			Boost:       cfg.FusionBoost,
			KeywordBase: cfg.KeywordBaseScore,
		},
		SemanticTopK:      cfg.SemanticTopK,
		KeywordRowLimit:   cfg.KeywordRowLimit,
		DefaultLimit:      cfg.SearchLimit,
		RerankCandidates:  cfg.RerankCandidates,
		SearchTimeout:     cfg.SearchTimeout(),
		CompletionTimeout: cfg.CompletionTimeout(),
	}).
		WithReranker(reranker.NewDynamicClient(settingsService, retrieval.NewLLMReranker(chat))).
		WithRewriter(chat).
		WithSettings(settingsService).
		WithQueryLogger(queryLogger)

	queryHandler := query.NewHandler(a.Retrieval, query.NewSynthesizer(chat, cfg.CompletionTimeout()))
	audioHandler := audio.NewHandler(catalogRepo)

	a.Tools = mcp.NewTools(a.Retrieval, catalogRepo)
	mcpHandler := mcp.NewHandler(a.Tools, Version)

	// Routes
	mux := http.NewServeMux()
	route := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.CorrelationID(middleware.CORS(h)))
	}

	route("POST /podcasts", podcastHandler.CreatePodcast)
	route("GET /podcasts", podcastHandler.ListPodcasts)
	route("GET /podcasts/{id}", podcastHandler.GetPodcast)
	route("DELETE /podcasts/{id}", podcastHandler.DeletePodcast)
	route("GET /podcasts/{id}/episodes", podcastHandler.ListEpisodes)
	route("POST /podcasts/{id}/episodes", podcastHandler.CreateEpisode)
	route("GET /episodes/{id}", podcastHandler.GetEpisode)
	route("DELETE /episodes/{id}", podcastHandler.DeleteEpisode)
	route("POST /episodes/{id}/speakers", podcastHandler.LinkSpeakers)
	route("GET /speakers", podcastHandler.ListSpeakers)
	route("POST /speakers", podcastHandler.CreateSpeaker)

	route("POST /transcripts", transcriptHandler.Upload)
	route("POST /transcripts/queue", transcriptHandler.Enqueue)
	route("POST /query", queryHandler.Handle)
	route("GET /api/audio/{id}", audioHandler.Seek)

	route("GET /settings", settingsHandler.GetSettings)
	route("PUT /settings", settingsHandler.UpdateSettings)

	route("GET /jobs/failed", jobHandler.List)
	route("POST /jobs/{id}/retry", jobHandler.Retry)

	route("GET /stats", statsHandler.GetStats)

	mux.Handle("/mcp", middleware.CorrelationID(mcpHandler)) // Legacy POST endpoint
	route("GET /mcp/sse", mcpHandler.HandleSSE)
	route("POST /mcp/messages", mcpHandler.HandleMessage)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	a.Handler = mux
	return a, nil
}

// newProviders builds the embedder and chat model for the configured provider.
func (a *App) newProviders(cfg *config.Config, settingsService *settings.Service) (embedding.Embedder, llm.ChatCompleter, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		client, err := openai.NewClient(openai.Config{
			APIKey:          cfg.OpenAIAPIKey,
			BaseURL:         cfg.OpenAIBaseURL,
			EmbeddingModel:  cfg.OpenAIEmbeddingModel,
			CompletionModel: cfg.OpenAICompletionModel,
			Dimensions:      cfg.EmbeddingDimensions,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("openai client: %w", err)
		}
		return client, client, nil
	default:
		client := gemini.NewDynamicClient(settingsService, gemini.Config{
			APIKey:         cfg.GeminiAPIKey,
			EmbeddingModel: cfg.GeminiEmbeddingModel,
			ChatModel:      cfg.GeminiChatModel,
		})
		a.closers = append(a.closers, client.Close)
		return client, client, nil
	}
}

func (a *App) newQueryLogger(path string) *retrieval.QueryLogger {
	if path == "" {
		return retrieval.NewQueryLogger(os.Stdout)
	}
	queryLogger, err := retrieval.NewFileQueryLogger(path)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		return retrieval.NewQueryLogger(os.Stdout)
	}
	return queryLogger
}

// StartWorker subscribes the transcript consumer to the ingest topic. The
// returned consumer must be stopped by the caller.
func (a *App) StartWorker() (*nsq.Consumer, error) {
	concurrency := a.cfg.IngestConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	nsqCfg := nsq.NewConfig()
	nsqCfg.MaxInFlight = concurrency
	nsqCfg.MaxAttempts = worker.DefaultMaxAttempts
	consumer, err := nsq.NewConsumer(config.TopicTranscriptIngest, config.ChannelTranscriptWorker, nsqCfg)
	if err != nil {
		return nil, fmt.Errorf("nsq consumer: %w", err)
	}
	consumer.AddConcurrentHandlers(a.Consumer, concurrency)

	if err := consumer.ConnectToNSQLookupd(a.cfg.NSQLookupd); err != nil {
		consumer.Stop()
		return nil, fmt.Errorf("connect to nsqlookupd: %w", err)
	}
	slog.Info("transcript consumer connected", "topic", config.TopicTranscriptIngest, "concurrency", concurrency)
	return consumer, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.ServerPort),
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.cfg.ServerPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases provider clients.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			slog.Warn("failed to close client", "error", err)
		}
	}
}

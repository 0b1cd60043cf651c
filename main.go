package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"podcastqa/apps/backend/internal/adapter/redis"
	"podcastqa/apps/backend/internal/app"
	"podcastqa/apps/backend/internal/config"
	"podcastqa/apps/backend/internal/embedding"
	"podcastqa/apps/backend/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	slog.SetDefault(log)

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer deps.Close()
	slog.Info("dependencies ready", "weaviate", cfg.WeaviateHost, "nsqd", cfg.NSQDHost, "embedding_cache", deps.Redis != nil)

	var cache embedding.Cache
	if deps.Redis != nil {
		cache = redis.NewVectorCache(deps.Redis, cfg.EmbeddingCacheTTL())
	}

	application, err := app.New(cfg, deps.DB, deps.VectorStore, deps.NSQProducer, cache)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer application.Close()

	if cfg.EnableIngestWorker {
		consumer, err := application.StartWorker()
		if err != nil {
			return fmt.Errorf("start ingest worker: %w", err)
		}
		defer consumer.Stop()
	}

	if !cfg.EnableAPI {
		slog.Info("api disabled, running ingest worker only")
		<-ctx.Done()
		return nil
	}
	return application.Run(ctx)
}

// Package commands implements podcastctl, the operator CLI for ingesting
// transcripts, searching them and serving MCP over stdio.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"podcastqa/apps/backend/internal/adapter/redis"
	"podcastqa/apps/backend/internal/app"
	"podcastqa/apps/backend/internal/config"
	"podcastqa/apps/backend/internal/embedding"
	"podcastqa/apps/backend/internal/logger"
)

var logLevel string

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "podcastctl",
		Short: "Ingest and search podcast transcripts",
		Long: `podcastctl talks to the same Postgres, Weaviate and NSQ stack as the
backend server. Configuration comes from the environment and .env files.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// stdout belongs to command output and the MCP transport.
			slog.SetDefault(logger.New(os.Stderr, logLevel))
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(NewIngestCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

// runtime is a fully wired application plus the connections it owns.
type runtime struct {
	app  *app.App
	deps *app.Dependencies
}

func (r *runtime) Close() {
	r.app.Close()
	r.deps.Close()
}

func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to backing services: %w", err)
	}

	var cache embedding.Cache
	if deps.Redis != nil {
		cache = redis.NewVectorCache(deps.Redis, cfg.EmbeddingCacheTTL())
	}

	application, err := app.New(cfg, deps.DB, deps.VectorStore, deps.NSQProducer, cache)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return &runtime{app: application, deps: deps}, nil
}

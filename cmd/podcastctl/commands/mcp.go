package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"podcastqa/apps/backend/features/mcp"
	"podcastqa/apps/backend/internal/app"
)

func NewMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the transcript tools over MCP stdio",
		Long: `Run an MCP (Model Context Protocol) server on stdin/stdout exposing
podcast_search and podcast_list to LLM agents.`,
		Example: `  # claude_desktop_config.json
  # {
  #   "mcpServers": {
  #     "podcasts": {"command": "podcastctl", "args": ["mcp"]}
  #   }
  # }`,
		Args: cobra.NoArgs,
		RunE: runMCP,
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	server := mcp.NewServer(rt.app.Tools, app.Version)

	slog.Info("mcp server starting on stdio")
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}

package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"podcastqa/apps/backend/internal/worker"
)

type ingestFlags struct {
	episodeID    int64
	srtPath      string
	diarizedPath string
	segmentsPath string
}

func NewIngestCmd() *cobra.Command {
	var f ingestFlags

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a transcript for an episode",
		Long: `Parse, chunk, embed and index a transcript for an existing episode.

Provide either an SRT file together with its speaker-labelled text, or a
JSON file of pre-aligned segments.`,
		Example: `  podcastctl ingest --episode 12 --srt ep12.srt --diarized ep12.txt
  podcastctl ingest --episode 12 --segments ep12.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request()
			if err != nil {
				return err
			}

			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.app.Ingestor.Ingest(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("ingesting episode %d: %w", req.EpisodeID, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "episode %d: %d chunks, %d indexed\n", req.EpisodeID, res.ChunkCount, res.StoredCount)
			if !res.Success {
				return fmt.Errorf("no chunks were indexed for episode %d", req.EpisodeID)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&f.episodeID, "episode", 0, "Episode ID (required)")
	cmd.Flags().StringVar(&f.srtPath, "srt", "", "Path to an SRT subtitle file")
	cmd.Flags().StringVar(&f.diarizedPath, "diarized", "", "Path to a speaker-labelled transcript")
	cmd.Flags().StringVar(&f.segmentsPath, "segments", "", "Path to a JSON array of aligned segments")
	_ = cmd.MarkFlagRequired("episode")
	cmd.MarkFlagsRequiredTogether("srt", "diarized")
	cmd.MarkFlagsMutuallyExclusive("srt", "segments")
	cmd.MarkFlagsOneRequired("srt", "segments")

	return cmd
}

func (f ingestFlags) request() (worker.IngestRequest, error) {
	req := worker.IngestRequest{EpisodeID: f.episodeID}

	var err error
	if req.SRTContent, err = readOptional(f.srtPath); err != nil {
		return req, err
	}
	if req.DiarizedContent, err = readOptional(f.diarizedPath); err != nil {
		return req, err
	}
	if f.segmentsPath != "" {
		raw, err := os.ReadFile(f.segmentsPath)
		if err != nil {
			return req, fmt.Errorf("reading segments: %w", err)
		}
		if !json.Valid(raw) {
			return req, fmt.Errorf("segments file %s is not valid JSON", f.segmentsPath)
		}
		req.Segments = raw
	}

	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), nil
}

package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"podcastqa/apps/backend/features/mcp"
	"podcastqa/apps/backend/internal/retrieval"
	"podcastqa/apps/backend/internal/settings"
)

type searchFlags struct {
	podcastIDs []int64
	limit      int
	format     string
}

func NewSearchCmd() *cobra.Command {
	var f searchFlags

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search transcripts",
		Long: `Run a hybrid semantic and keyword search over indexed transcripts and
print the matching passages with their citations.`,
		Example: `  podcastctl search "how should founders price?"
  podcastctl search --podcast 1 --podcast 3 --limit 5 "hiring"
  podcastctl search --format json "burnout"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.validate(); err != nil {
				return err
			}

			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if f.format == "json" {
				results, err := rt.app.Retrieval.Search(cmd.Context(), args[0], f.podcastIDs, f.limit)
				if err != nil {
					return fmt.Errorf("searching: %w", err)
				}
				out, err := json.MarshalIndent(retrieval.FormatCitations(results), "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling JSON: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out)
				return nil
			}

			limit := f.limit
			text, err := rt.app.Tools.Search(cmd.Context(), mcp.SearchArgs{Query: args[0], PodcastIDs: f.podcastIDs, Limit: &limit})
			if err != nil {
				return fmt.Errorf("searching: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().Int64SliceVar(&f.podcastIDs, "podcast", nil, "Restrict to a podcast ID (repeatable)")
	cmd.Flags().IntVar(&f.limit, "limit", 10, "Maximum passages to return")
	cmd.Flags().StringVar(&f.format, "format", "text", "Output format (text, json)")

	return cmd
}

func (f searchFlags) validate() error {
	if f.limit < 1 || f.limit > settings.MaxSearchLimit {
		return fmt.Errorf("limit must be between 1 and %d, got %d", settings.MaxSearchLimit, f.limit)
	}
	if f.format != "text" && f.format != "json" {
		return fmt.Errorf("format must be text or json, got %q", f.format)
	}
	return nil
}

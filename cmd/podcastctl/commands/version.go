package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"podcastqa/apps/backend/internal/app"
)

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "podcastctl %s\n", app.Version)
		},
	}
}

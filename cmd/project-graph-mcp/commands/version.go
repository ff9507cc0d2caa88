package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lingy-Mg/project-graph/pkg/config"
)

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Short: "Show the version information",
		Use:   "version",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.Version, config.Commit())
		},
	}
}

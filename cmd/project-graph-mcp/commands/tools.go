package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/lingy-Mg/project-graph/cmd/project-graph-mcp/client"
	"github.com/lingy-Mg/project-graph/cmd/project-graph-mcp/tools"
)

func toolsCommand(newClient func() *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List/count/inspect/call tools of a running bridge",
	}

	var format string
	cmd.PersistentFlags().StringVar(&format, "format", "list", "Output format (json|list)")

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tools",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return tools.List(cmd.Context(), cmd.OutOrStdout(), newClient(), "list", "", format)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "Count tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return tools.List(cmd.Context(), cmd.OutOrStdout(), newClient(), "count", "", format)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "inspect",
		Short: "Inspect a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return tools.List(cmd.Context(), cmd.OutOrStdout(), newClient(), "inspect", args[0], format)
		},
	})

	var wait time.Duration
	callCmd := &cobra.Command{
		Use:   "call TOOL [KEY=VALUE...]",
		Short: "Call a tool",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return tools.Call(cmd.Context(), cmd.OutOrStdout(), newClient(), wait, args)
		},
	}
	callCmd.Flags().DurationVar(&wait, "wait", 0, "Wait up to this long for the application's result")
	cmd.AddCommand(callCmd)

	return cmd
}

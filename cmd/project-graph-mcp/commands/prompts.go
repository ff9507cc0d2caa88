package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lingy-Mg/project-graph/cmd/project-graph-mcp/client"
)

func promptsCommand(newClient func() *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "List/get prompts of a running bridge",
	}

	var format string
	cmd.PersistentFlags().StringVar(&format, "format", "list", "Output format (json|list)")

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List prompts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prompts, err := newClient().ListPrompts(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing prompts: %w", err)
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				return printJSON(out, prompts)
			}

			fmt.Fprintln(out, len(prompts), "prompts:")
			for _, prompt := range prompts {
				fmt.Fprintln(out, " -", prompt.Name, "-", prompt.Description)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get NAME",
		Short: "Ask the application for a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			response, err := newClient().GetPrompt(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("getting prompt %s: %w", args[0], err)
			}
			return printJSON(cmd.OutOrStdout(), response)
		},
	})

	return cmd
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lingy-Mg/project-graph/cmd/project-graph-mcp/client"
)

func resourcesCommand(newClient func() *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resources",
		Short: "List/read resources of a running bridge",
	}

	var format string
	cmd.PersistentFlags().StringVar(&format, "format", "list", "Output format (json|list)")

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List resources",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resources, err := newClient().ListResources(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing resources: %w", err)
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				return printJSON(out, resources)
			}

			fmt.Fprintln(out, len(resources), "resources:")
			for _, resource := range resources {
				fmt.Fprintln(out, " -", resource.URI, "-", resource.Description)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "read URI",
		Short: "Ask the application for a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			response, err := newClient().ReadResource(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("reading resource %s: %w", args[0], err)
			}
			return printJSON(cmd.OutOrStdout(), response)
		},
	})

	return cmd
}

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/lingy-Mg/project-graph/cmd/project-graph-mcp/client"
	"github.com/lingy-Mg/project-graph/cmd/project-graph-mcp/tools"
)

func resultsCommand(newClient func() *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect what the application answered",
	}

	var (
		path string
		wait time.Duration
	)
	getCmd := &cobra.Command{
		Use:   "get TICKET",
		Short: "Show the outcome of a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			ticket := args[0]

			if wait > 0 {
				if _, err := tools.Await(cmd.Context(), c, ticket, wait); err != nil {
					return err
				}
			}

			if path != "" {
				value, err := c.ResultPath(cmd.Context(), ticket, path)
				if err != nil {
					return fmt.Errorf("getting result %s: %w", ticket, err)
				}
				return printJSON(cmd.OutOrStdout(), value)
			}

			entry, _, err := c.Result(cmd.Context(), ticket)
			if err != nil {
				return fmt.Errorf("getting result %s: %w", ticket, err)
			}
			return printJSON(cmd.OutOrStdout(), entry)
		},
	}
	getCmd.Flags().StringVar(&path, "path", "", "JSONPath expression selecting part of the result (e.g. '$.nodes[0].id')")
	getCmd.Flags().DurationVar(&wait, "wait", 0, "Wait up to this long for the result")
	cmd.AddCommand(getCmd)

	return cmd
}

func printJSON(out io.Writer, v any) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling: %w", err)
	}

	fmt.Fprintln(out, string(buf))
	return nil
}

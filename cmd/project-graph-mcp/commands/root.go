package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/lingy-Mg/project-graph/cmd/project-graph-mcp/client"
	"github.com/lingy-Mg/project-graph/pkg/config"
)

// Note: We use a custom help template to make it more brief.
const helpTemplate = `Project Graph MCP bridge - Expose a Project Graph application to MCP clients.
{{if .UseLine}}
Usage: {{.UseLine}}
{{end}}{{if .HasAvailableLocalFlags}}
Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}
{{end}}{{if .HasAvailableSubCommands}}
Available Commands:
{{range .Commands}}{{if (or .IsAvailableCommand)}}  {{rpad .Name .NamePadding }} {{.Short}}
{{end}}{{end}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}
`

// Root returns the root command of project-graph-mcp.
func Root(ctx context.Context) *cobra.Command {
	var bridgeURL string

	cmd := &cobra.Command{
		Use:              "project-graph-mcp [OPTIONS]",
		Short:            "Bridge MCP clients to a running Project Graph application",
		TraverseChildren: true,
		SilenceUsage:     true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: false,
			HiddenDefaultCmd:  true,
		},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmd.SetContext(ctx)
		},
		Version: config.Version,
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.Flags().BoolP("version", "v", false, "Print version information and quit")
	cmd.PersistentFlags().StringVar(&bridgeURL, "url", client.DefaultURL, "URL of a running bridge")
	cmd.SetHelpTemplate(helpTemplate)

	newClient := func() *client.Client {
		return client.New(bridgeURL)
	}

	cmd.AddCommand(serveCommand())
	cmd.AddCommand(toolsCommand(newClient))
	cmd.AddCommand(resourcesCommand(newClient))
	cmd.AddCommand(promptsCommand(newClient))
	cmd.AddCommand(resultsCommand(newClient))
	cmd.AddCommand(versionCommand())

	return cmd
}

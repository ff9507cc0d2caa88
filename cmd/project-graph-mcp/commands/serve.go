package commands

import (
	"os"

	daemon "github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"

	"github.com/lingy-Mg/project-graph/pkg/config"
	"github.com/lingy-Mg/project-graph/pkg/gateway"
	"github.com/lingy-Mg/project-graph/pkg/logs"
)

func serveCommand() *cobra.Command {
	options := config.Defaults()
	var configPath string

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"run"},
		Short:   "Run the bridge",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath != "" {
				if err := config.ReadFileWithFlags(configPath, &options, cmd.Flags()); err != nil {
					return err
				}
			}

			if options.Daemon {
				cntxt := &daemon.Context{
					PidFileName: options.PidFile,
					PidFilePerm: 0o644,
					LogFileName: options.LogFile,
					LogFilePerm: 0o640,
					Umask:       0o027,
				}
				child, err := cntxt.Reborn()
				if err != nil {
					return err
				}
				if child != nil {
					cmd.Printf("Started in the background with pid %d\n", child.Pid)
					return nil
				}
				defer func() { _ = cntxt.Release() }()
			}

			logs.Setup(os.Stderr, options.Verbose)

			return gateway.New(options).Run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to a YAML file with the options below")
	flags.StringVar(&options.Host, "host", options.Host, "interface to listen on")
	flags.IntVar(&options.Port, "port", options.Port, "TCP port to listen on")
	flags.StringVar(&options.CatalogPath, "catalog", options.CatalogPath, "path or URL of a YAML or JSON catalog (default is the built-in catalog)")
	flags.BoolVar(&options.Watch, "watch", options.Watch, "Reload the catalog when the file changes")
	flags.DurationVar(&options.AckDelay, "ack-delay", options.AckDelay, "how long tool calls wait before being acknowledged")
	flags.DurationVar(&options.ResultTTL, "result-ttl", options.ResultTTL, "how long published results are kept")
	flags.DurationVar(&options.WriteTimeout, "write-timeout", options.WriteTimeout, "timeout when sending a command to the application")
	flags.StringVar(&options.Exec, "exec", options.Exec, "command line of the application to run and attach over stdio")
	flags.BoolVar(&options.MCP, "mcp", options.MCP, "Serve the MCP protocol on /mcp")
	flags.BoolVar(&options.LogCalls, "log-calls", options.LogCalls, "Log the commands sent to the application")
	flags.StringArrayVar(&options.Interceptors, "interceptor", options.Interceptors, "List of interceptors to use (format: when:type:argument, e.g. 'before:exec:/bin/path')")
	flags.BoolVar(&options.Verbose, "verbose", options.Verbose, "Verbose output")
	flags.BoolVar(&options.DryRun, "dry-run", options.DryRun, "Wire everything but do not listen for connections (useful for testing the configuration)")
	flags.BoolVar(&options.Daemon, "daemon", options.Daemon, "Run in the background")
	flags.StringVar(&options.PidFile, "pid-file", options.PidFile, "pid file used with --daemon")
	flags.StringVar(&options.LogFile, "log-file", options.LogFile, "log file used with --daemon")

	return cmd
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lingy-Mg/project-graph/cmd/project-graph-mcp/commands"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := commands.Root(ctx).Execute(); err != nil {
		cancel()
		os.Exit(1)
	}
}

package gateway

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/lingy-Mg/project-graph/pkg/bridge"
	"github.com/lingy-Mg/project-graph/pkg/catalog"
	"github.com/lingy-Mg/project-graph/pkg/config"
	"github.com/lingy-Mg/project-graph/pkg/instance"
	"github.com/lingy-Mg/project-graph/pkg/interceptors"
	"github.com/lingy-Mg/project-graph/pkg/mcpserver"
	"github.com/lingy-Mg/project-graph/pkg/results"
	"github.com/lingy-Mg/project-graph/pkg/server"
	"github.com/lingy-Mg/project-graph/pkg/telemetry"
)

// Gateway wires the catalog, the bridge and the HTTP server together and
// runs them until the context is cancelled.
type Gateway struct {
	config.Options
	server atomic.Pointer[server.Server]
}

func New(options config.Options) *Gateway {
	return &Gateway{
		Options: options,
	}
}

// Addr is the address the server is bound to, nil until it is listening.
func (g *Gateway) Addr() net.Addr {
	srv := g.server.Load()
	if srv == nil {
		return nil
	}
	return srv.Addr()
}

//nolint:gocyclo
func (g *Gateway) Run(ctx context.Context) error {
	start := time.Now()

	if err := g.Validate(); err != nil {
		return err
	}

	// Read the catalog.
	c, err := g.readCatalog(ctx)
	if err != nil {
		return err
	}
	logf("> %d resources, %d tools and %d prompts", len(c.Resources), len(c.Tools), len(c.Prompts))
	registry := catalog.NewRegistry(c)

	// Optionally watch for catalog updates.
	if g.Watch {
		log("- Watching for catalog updates...")
		stopWatcher, err := catalog.Watch(ctx, g.CatalogPath, registry)
		if err != nil {
			return fmt.Errorf("watching catalog: %w", err)
		}
		defer func() { _ = stopWatcher() }()
	}

	store, err := results.New(results.Config{TTL: g.ResultTTL})
	if err != nil {
		return fmt.Errorf("creating results store: %w", err)
	}
	defer store.Close()

	parsed, err := interceptors.Parse(g.Interceptors)
	if err != nil {
		return err
	}
	if len(parsed) > 0 {
		log("- Using", len(parsed), "interceptors")
	}

	holder := instance.NewHolder()
	target := interceptors.Chain(holder, interceptors.Callbacks(g.LogCalls, parsed))

	// Bridge metrics share the /metrics registry with the HTTP metrics.
	metrics := prometheus.NewRegistry()
	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Registerer: metrics,
		Version:    config.Version,
		OTLP:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "",
	})
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logf("! Flushing telemetry: %s", err)
		}
	}()

	b := bridge.New(registry, target, store, bridge.Options{
		AckDelay: g.AckDelay,
	})

	deps := server.Deps{
		Bridge:   b,
		Registry: registry,
		Holder:   holder,
		Results:  store,
	}
	if g.MCP {
		deps.MCP = mcpserver.NewFacade(registry, b, config.Version)
	}

	srv := server.New(deps, server.Options{
		Addr:         g.Address(),
		WriteTimeout: g.WriteTimeout,
		Registry:     metrics,
	})

	log("> Initialized in", time.Since(start))
	if g.DryRun {
		log("Dry run mode enabled, not starting the server.")
		return nil
	}

	errs, ctx := errgroup.WithContext(ctx)

	if err := srv.Start(ctx); err != nil {
		return err
	}
	g.server.Store(srv)
	errs.Go(srv.Wait)

	// Optionally run the application as a child process.
	if g.Exec != "" {
		log("- Starting application:", g.Exec)
		process, err := instance.StartProcess(ctx, g.Exec, holder, store)
		if err != nil {
			return fmt.Errorf("starting application: %w", err)
		}

		// The bridge keeps serving after the application exits.
		errs.Go(func() error {
			_ = process.Wait()
			return nil
		})
	}

	return errs.Wait()
}

func (g *Gateway) readCatalog(ctx context.Context) (catalog.Catalog, error) {
	if g.CatalogPath == "" {
		log("- Using the built-in catalog")
		return catalog.Default(), nil
	}

	log("- Reading catalog from", g.CatalogPath)
	c, err := catalog.Load(ctx, g.CatalogPath)
	if err != nil {
		return catalog.Catalog{}, fmt.Errorf("reading catalog %s: %w", g.CatalogPath, err)
	}
	return c, nil
}

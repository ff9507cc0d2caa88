package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lingy-Mg/project-graph/pkg/bridge"
	"github.com/lingy-Mg/project-graph/pkg/catalog"
	"github.com/lingy-Mg/project-graph/pkg/health"
	"github.com/lingy-Mg/project-graph/pkg/instance"
	"github.com/lingy-Mg/project-graph/pkg/results"
)

// StartupError is returned when the listening address cannot be bound.
type StartupError struct {
	Addr string
	Err  error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("binding %s: %s", e.Addr, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

type Options struct {
	Addr         string
	WriteTimeout time.Duration

	// Registry backs /metrics. Nil gives the server a registry of its own.
	Registry *prometheus.Registry
}

// Deps are the components the HTTP surface exposes. MCP is optional.
type Deps struct {
	Bridge   *bridge.Bridge
	Registry *catalog.Registry
	Holder   *instance.Holder
	Results  *results.Store
	MCP      http.Handler
}

type Server struct {
	options Options
	deps    Deps
	health  health.State
	metrics *httpMetrics
	handler http.Handler

	mu         sync.Mutex
	ln         net.Listener
	httpServer *http.Server
	done       chan error
}

func New(deps Deps, options Options) *Server {
	s := &Server{
		options: options,
		deps:    deps,
		metrics: newHTTPMetrics(options.Registry),
	}
	s.handler = s.routes()
	return s
}

// Handler is the full HTTP surface, usable without binding (tests, embedding).
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the address and serves in the background until ctx is done.
// It never retries: a busy address is a StartupError.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln != nil {
		return &StartupError{Addr: s.options.Addr, Err: errors.New("server already started")}
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.options.Addr)
	if err != nil {
		return &StartupError{Addr: s.options.Addr, Err: err}
	}

	s.ln = ln
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.done = make(chan error, 1)

	s.logBanner(ln.Addr())
	s.health.SetHealthy()

	go func() {
		<-ctx.Done()
		s.health.SetUnhealthy()
		ln.Close()
	}()
	go func() {
		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
			err = nil
		}
		s.done <- err
	}()

	return nil
}

// Addr is the bound address, nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Wait blocks until serving stops and returns why.
func (s *Server) Wait() error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return errors.New("server not started")
	}
	return <-done
}

func (s *Server) logBanner(addr net.Addr) {
	logf("> MCP bridge listening on http://%s", addr)
	log("> Endpoints:")
	for _, e := range s.endpoints() {
		logf("  - %-6s %-24s %s", e.method, e.pattern, e.summary)
	}
}

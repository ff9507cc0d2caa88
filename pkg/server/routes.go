package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/lingy-Mg/project-graph/pkg/instance"
)

type endpoint struct {
	method  string
	pattern string
	display string
	summary string
	handler http.Handler
}

func (s *Server) endpoints() []endpoint {
	endpoints := []endpoint{
		{http.MethodGet, "/mcp/resources", "", "list resources", http.HandlerFunc(s.handleListResources)},
		{http.MethodGet, "/mcp/resources/*", "/mcp/resources/{uri}", "read a resource", http.HandlerFunc(s.handleReadResource)},
		{http.MethodGet, "/mcp/tools", "", "list tools", http.HandlerFunc(s.handleListTools)},
		{http.MethodPost, "/mcp/tools/*", "/mcp/tools/{name}", "call a tool", http.HandlerFunc(s.handleCallTool)},
		{http.MethodGet, "/mcp/prompts", "", "list prompts", http.HandlerFunc(s.handleListPrompts)},
		{http.MethodGet, "/mcp/prompts/*", "/mcp/prompts/{name}", "get a prompt", http.HandlerFunc(s.handleGetPrompt)},
		{http.MethodGet, "/mcp/results/*", "/mcp/results/{ticket}", "poll an outcome", http.HandlerFunc(s.handleGetResult)},
		{http.MethodPost, "/mcp/results/*", "/mcp/results/{ticket}", "publish an outcome", http.HandlerFunc(s.handlePublishResult)},
		{http.MethodGet, "/mcp/instance", "", "attachment status", http.HandlerFunc(s.handleInstance)},
		{http.MethodGet, "/mcp/ws", "", "attach the application", instance.NewWebSocketHandler(s.deps.Holder, s.deps.Results, s.options.WriteTimeout)},
		{http.MethodGet, "/health", "", "health", http.HandlerFunc(s.handleHealth)},
		{http.MethodGet, "/metrics", "", "prometheus metrics", s.metrics.handler()},
	}

	if s.deps.MCP != nil {
		for _, method := range []string{http.MethodPost, http.MethodGet, http.MethodDelete} {
			endpoints = append(endpoints, endpoint{method, "/mcp", "", "MCP streamable HTTP", s.deps.MCP})
		}
	}

	return endpoints
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.metrics.middleware)
	r.Use(recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
	}).Handler)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	for _, e := range s.endpoints() {
		r.Method(e.method, e.pattern, e.handler)
	}

	return r
}

// recoverer turns handler panics into JSON 500s.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler { //nolint:errorlint
					panic(rvr)
				}

				logf("! Panic serving %s %s (request %s): %v", r.Method, r.URL.Path, middleware.GetReqID(r.Context()), rvr)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

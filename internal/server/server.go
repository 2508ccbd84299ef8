// Package server exposes the tool dispatcher over the Model Context Protocol,
// on stdio or on HTTP next to health and metrics endpoints.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/drewdunne/mrscope/internal/config"
	"github.com/drewdunne/mrscope/internal/dispatch"
	"github.com/drewdunne/mrscope/internal/event"
	"github.com/drewdunne/mrscope/internal/metrics"
	"github.com/drewdunne/mrscope/internal/webhook"
)

// Version is set via ldflags at build time.
var Version = "dev"

const instructions = `
mrscope inspects merge requests of a GitLab or GitHub project.

Tools
- fetch_mr_details: merge request metadata, one or all of a project
- analyze_code_changes: change statistics grouped by file type plus a Markdown report
- store_in_confluence: store an analysis (or a project summary) as a Confluence page

Pass the analysis returned by analyze_code_changes to store_in_confluence to avoid
fetching the merge request twice.
`

// HealthResponse represents the health check response structure.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

// Server serves the tools of a dispatcher.
type Server struct {
	cfg          *config.Config
	dispatcher   *dispatch.Dispatcher
	mcp          *mcp.Server
	mux          *http.ServeMux
	httpServer   *httpServer
	httpServerMu sync.RWMutex  // protects httpServer pointer
	ready        chan struct{} // closed when server is ready to accept connections
}

// New creates a new Server with the given config, registering one tool per
// dispatcher tool.
func New(cfg *config.Config, d *dispatch.Dispatcher) *Server {
	s := &Server{
		cfg:        cfg,
		dispatcher: d,
		mux:        http.NewServeMux(),
		ready:      make(chan struct{}),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "mrscope",
			Title:   "MR Scope",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: strings.TrimSpace(instructions),
		},
	)
	s.registerTools()
	s.routes()
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// Ready returns a channel that is closed when the server is ready to accept connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ServeStdio serves the tools on stdin/stdout until ctx is done or the client
// disconnects.
func (s *Server) ServeStdio(ctx context.Context) error {
	close(s.ready)
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// routes sets up the HTTP routes.
func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/metrics", s.handleMetrics)
	s.mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil))

	if s.cfg.Webhook.Enabled() {
		s.mux.Handle(WebhookPath(s.cfg.Source.Provider), s.webhookHandler())
	}
}

// WebhookPath returns the route merge request events of provider are
// delivered to.
func WebhookPath(provider string) string {
	return "/webhook/" + provider
}

func (s *Server) webhookHandler() http.Handler {
	router := event.NewRouter(s.cfg.Webhook, s.dispatcher, log.Logger)
	if s.cfg.Source.Provider == config.ProviderGitHub {
		return webhook.NewGitHubHandler(s.cfg.Webhook.Secret, router.HandleDelivery)
	}
	return webhook.NewGitLabHandler(s.cfg.Webhook.Secret, router.HandleDelivery)
}

// handleHealth responds with server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]interface{}{
		"source":     s.cfg.Source.Provider,
		"confluence": s.cfg.Confluence.Enabled(),
		"webhook":    s.cfg.Webhook.Enabled(),
		"dispatcher": s.dispatcher.State().String(),
	}

	health := HealthResponse{
		Status: "ok",
		Checks: checks,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleMetrics responds with current operational metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := metrics.Get()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m)
}

// Package apiserver exposes the REST API, health probes, metrics and the
// optional MCP endpoint as a single lifecycle-managed HTTP server.
package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moolen/cascade/internal/api/handlers"
	"github.com/moolen/cascade/internal/api/response"
	"github.com/moolen/cascade/internal/logging"
)

// ReadinessChecker reports whether the pipeline is ready to serve
type ReadinessChecker interface {
	IsReady() bool
}

// NoOpReadinessChecker always reports ready. Used when no component gates
// readiness.
type NoOpReadinessChecker struct{}

// IsReady always returns true for the no-op checker.
func (n *NoOpReadinessChecker) IsReady() bool {
	return true
}

// Server handles HTTP API requests
type Server struct {
	port             int
	server           *http.Server
	logger           *logging.Logger
	router           *http.ServeMux
	readinessChecker ReadinessChecker
	registry         prometheus.Gatherer
	mcpServer        *server.MCPServer
}

// New creates the API server. The mcpServer and registry are optional;
// their endpoints are registered only when present.
func New(
	port int,
	h *handlers.Handlers,
	readinessChecker ReadinessChecker,
	registry prometheus.Gatherer,
	mcpServer *server.MCPServer,
) *Server {
	s := &Server{
		port:             port,
		logger:           logging.GetLogger("apiserver"),
		router:           http.NewServeMux(),
		readinessChecker: readinessChecker,
		registry:         registry,
		mcpServer:        mcpServer,
	}

	s.registerHandlers(h)
	s.configureHTTPServer(port)

	return s
}

// registerHandlers attaches all routes to the router
func (s *Server) registerHandlers(h *handlers.Handlers) {
	h.Register(s.router)

	s.router.HandleFunc("/health", s.handleHealth)
	s.router.HandleFunc("/healthz", s.handleHealth)
	s.router.HandleFunc("/ready", s.handleReady)
	s.router.HandleFunc("/readyz", s.handleReady)

	if s.registry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	s.registerMCPHandler()
}

// configureHTTPServer creates the HTTP server with CORS middleware and timeouts
func (s *Server) configureHTTPServer(port int) {
	handler := s.corsMiddleware(s.router)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}

// registerMCPHandler adds the MCP endpoint to the router
func (s *Server) registerMCPHandler() {
	if s.mcpServer == nil {
		s.logger.Debug("MCP server not configured, skipping /v1/mcp endpoint")
		return
	}

	endpointPath := "/v1/mcp"
	streamableServer := server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithEndpointPath(endpointPath),
		server.WithStateLess(true),
	)
	s.router.Handle(endpointPath, streamableServer)
	s.logger.Info("MCP endpoint registered at %s", endpointPath)
}

// Start implements the lifecycle.Component interface and begins listening
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting API server on port %d", s.port)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error: %v", err)
		}
	}()

	s.logger.Info("API server started and listening on port %d", s.port)
	return nil
}

// Stop implements the lifecycle.Component interface and gracefully stops
// the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")

	done := make(chan error, 1)
	go func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- s.server.Shutdown(shutdownCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Error("HTTP server shutdown error: %v", err)
			return err
		}
		s.logger.Info("API server stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("API server shutdown timeout")
		return ctx.Err()
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = response.WriteSuccess(w, map[string]interface{}{
		"status": "healthy",
	})
}

// handleReady handles readiness check requests
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ready := s.readinessChecker != nil && s.readinessChecker.IsReady()

	w.Header().Set("Content-Type", "application/json")
	if ready {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = response.WriteJSON(w, map[string]interface{}{
		"ready": ready,
	})
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() int {
	return s.port
}

// Name implements the lifecycle.Component interface
func (s *Server) Name() string {
	return "API Server"
}

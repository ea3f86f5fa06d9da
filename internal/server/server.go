package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tripweaver/tripweaver/internal/engine"
	"github.com/tripweaver/tripweaver/internal/storage"
)

// Server is the TripWeaver HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServerConfig holds all dependencies and configuration for creating a Server.
type ServerConfig struct {
	// Required dependencies.
	Engine *engine.Engine
	Logger *slog.Logger

	// Optional dependencies (nil = disabled).
	DB *storage.DB

	// HTTP server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Version      string
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := NewHandlers(HandlersDeps{
		Engine:  cfg.Engine,
		DB:      cfg.DB,
		Logger:  cfg.Logger,
		Version: cfg.Version,
	})

	mux := http.NewServeMux()

	// Search endpoints.
	mux.HandleFunc("GET /v1/search/{capability}", h.HandleSearch)

	// Provider discovery.
	mux.HandleFunc("GET /v1/providers", h.HandleProviders)

	// Cache administration.
	mux.HandleFunc("DELETE /v1/cache/{capability}", h.HandleClearCache)

	// Event table inspection.
	mux.HandleFunc("GET /v1/events", h.HandleListEvents)

	// Health (no rate limit, pulled by load balancers).
	mux.HandleFunc("GET /health", h.HandleHealth)

	// Middleware chain (outermost executes first):
	// request ID → security headers → tracing → logging → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler: handler,
		logger:  cfg.Logger,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

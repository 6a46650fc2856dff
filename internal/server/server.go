// Package server provides the HTTP API for collectsearch sessions.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/weboliver/collectsearch/internal/config"
	"github.com/weboliver/collectsearch/internal/orchestrator"
)

// Server is the HTTP server for the collectsearch API.
type Server struct {
	orch   *orchestrator.Orchestrator
	config *config.ServerConfig
	search *config.SearchConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(orch *orchestrator.Orchestrator, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		orch:   orch,
		config: &cfg.Server,
		search: &cfg.Search,
		logger: logger,
	}
}

// Router builds the chi router. Exposed for handler tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/sessions", s.handleCreateSession)
	r.Delete("/api/v1/sessions/{id}", s.handleDeleteSession)
	r.Get("/api/v1/sessions/{id}/state", s.handleState)
	r.Post("/api/v1/sessions/{id}/fields/{field}", s.handleFieldUpdate)
	r.Post("/api/v1/sessions/{id}/select", s.handleSelect)
	r.Get("/api/v1/sessions/{id}/best-match", s.handleBestMatch)
	r.Post("/api/v1/sessions/{id}/clear", s.handleClear)
	r.Get("/api/v1/cache/stats", s.handleCacheStats)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

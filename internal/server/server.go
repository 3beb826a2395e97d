// Package server provides the HTTP API for ragserve.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ncarver/ragserve/internal/config"
	"github.com/ncarver/ragserve/internal/retrieval"
)

// Server is the HTTP server for the ragserve API.
type Server struct {
	orchestrator *retrieval.Orchestrator
	config       *config.ServerConfig
	server       *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(orchestrator *retrieval.Orchestrator, cfg *config.ServerConfig) *Server {
	return &Server{
		orchestrator: orchestrator,
		config:       cfg,
	}
}

// Router builds the API router. Exposed separately from Start so tests can
// exercise handlers without binding a port.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(requestLogger)

	r.Post("/api/ingest", s.handleIngest)
	r.Post("/api/batch-ingest", s.handleBatchIngest)
	r.Post("/api/query", s.handleQuery)
	r.Get("/api/documents/{id}", s.handleGetDocument)
	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleRoot)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	log.Info("Starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// requestLogger logs each request with its duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

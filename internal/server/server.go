// Package server provides the HTTP API for pulsefeed.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pulsefeed/pulsefeed/internal/config"
	"github.com/pulsefeed/pulsefeed/internal/fetch"
	"github.com/pulsefeed/pulsefeed/internal/pipeline"
	"github.com/pulsefeed/pulsefeed/internal/storage"
	"go.uber.org/zap"
)

// Server is the HTTP server for the pulsefeed API.
type Server struct {
	pipeline  *pipeline.Pipeline
	scheduler *pipeline.Scheduler
	store     storage.Store
	fetchers  []fetch.Fetcher
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies. scheduler may be
// nil when periodic runs are disabled.
func NewServer(
	p *pipeline.Pipeline,
	scheduler *pipeline.Scheduler,
	store storage.Store,
	fetchers []fetch.Fetcher,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline:  p,
		scheduler: scheduler,
		store:     store,
		fetchers:  fetchers,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/fetch", s.handleTriggerFetch)
	r.Get("/api/v1/fetch/{id}", s.handleFetchStatus)
	r.Get("/api/v1/hot", s.handleHotTopics)
	r.Get("/api/v1/trending-up", s.handleTrendingUp)
	r.Get("/api/v1/keywords/{keyword}/history", s.handleKeywordHistory)
	r.Get("/api/v1/feeds", s.handleFeeds)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
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

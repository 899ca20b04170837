// Package server exposes traversals, hierarchies and PI versions over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielolaszy/starburst/internal/cache"
	"github.com/danielolaszy/starburst/internal/logging"
	"github.com/danielolaszy/starburst/internal/versions"
	"github.com/danielolaszy/starburst/pkg/models"
)

// Traverser builds the traversal result of a PI.
type Traverser interface {
	Build(ctx context.Context, pi string) (*models.TraversalResult, error)
}

// VersionLister lists the PI versions of a project.
type VersionLister interface {
	List(ctx context.Context, project string) (*versions.Listing, error)
}

// Options configures the HTTP surface.
type Options struct {
	Origins   []string
	StaticDir string
	// CacheTTL keeps traversal results for repeated requests; zero disables it
	CacheTTL time.Duration
}

// Server wires handlers to their collaborators.
type Server struct {
	engine    *gin.Engine
	traverser Traverser
	versions  VersionLister
	cache     *cache.Store
	opts      Options
}

// New builds the router. c may be nil when caching is disabled.
func New(traverser Traverser, lister VersionLister, c *cache.Store, opts Options) *Server {
	s := &Server{
		engine:    gin.New(),
		traverser: traverser,
		versions:  lister,
		cache:     c,
		opts:      opts,
	}

	s.engine.Use(gin.Recovery(), requestID(), requestLogger(), metricsMiddleware(), cors(opts.Origins))
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.engine.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/versions", s.listVersions)
		api.GET("/sunburst", s.sunburst)
		api.GET("/hierarchy", s.hierarchyTree)
		api.GET("/relationships", s.relationships)
	}
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if s.opts.StaticDir != "" {
		serveStatic(s.engine, s.opts.StaticDir)
	}
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// Package ui serves the dashboard HTTP JSON API over the loaded dataset.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/rideboard/internal/catalog"
	"github.com/leapstack-labs/rideboard/internal/dataset"
	"github.com/leapstack-labs/rideboard/internal/executor"
	"github.com/leapstack-labs/rideboard/internal/history"
)

// Server is the dashboard API server. The dataset and the engine's table
// registration are shared read-only across all requests; only the parsed
// catalog is replaced when the catalog file changes on disk.
type Server struct {
	ds          *dataset.Dataset
	exec        *executor.Executor
	hist        *history.Store
	port        int
	watch       bool
	catalogPath string
	logger      *slog.Logger

	mu      sync.RWMutex
	queries []catalog.Query
}

// Config holds configuration for the API server.
type Config struct {
	Dataset     *dataset.Dataset
	Executor    *executor.Executor
	History     *history.Store // optional
	Queries     []catalog.Query
	CatalogPath string
	Port        int
	Watch       bool
	Logger      *slog.Logger
}

// NewServer creates a new API server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		ds:          cfg.Dataset,
		exec:        cfg.Executor,
		hist:        cfg.History,
		port:        cfg.Port,
		watch:       cfg.Watch,
		catalogPath: cfg.CatalogPath,
		logger:      logger,
		queries:     cfg.Queries,
	}
}

// Serve starts the API server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting API server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch && s.catalogPath != "" {
		eg.Go(func() error {
			return s.watchCatalog(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Routes builds the chi router for all API endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/filters", s.handleFilters)
		r.Get("/kpis", s.handleKPIs)
		r.Route("/charts", func(r chi.Router) {
			r.Get("/daily-volume", s.handleDailyVolume)
			r.Get("/revenue-by-payment", s.handleRevenueByPayment)
			r.Get("/top-vehicles", s.handleTopVehicles)
			r.Get("/ratings", s.handleRatings)
		})
		r.Get("/queries", s.handleListQueries)
		r.Post("/queries/{index}/run", s.handleRunQuery)
		r.Get("/queries/{index}/export", s.handleExportQuery)
		r.Get("/runs", s.handleRecentRuns)
	})

	return r
}

// Queries returns the current parsed catalog.
func (s *Server) Queries() []catalog.Query {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries
}

// queryAt returns the catalog entry at index, if any.
func (s *Server) queryAt(index int) (catalog.Query, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.queries) {
		return catalog.Query{}, false
	}
	return s.queries[index], true
}

// watchCatalog reloads the catalog when the file changes. A reload that
// fails to parse keeps the previous catalog; a corrupt catalog never
// partially replaces a good one.
func (s *Server) watchCatalog(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors replace files rather than write in place.
	if err := watcher.Add(filepath.Dir(s.catalogPath)); err != nil {
		return fmt.Errorf("failed to watch catalog directory: %w", err)
	}

	base := filepath.Base(s.catalogPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			queries, err := catalog.Load(s.catalogPath)
			if err != nil {
				s.logger.Warn("catalog reload failed, keeping previous catalog", "error", err)
				continue
			}
			s.mu.Lock()
			s.queries = queries
			s.mu.Unlock()
			s.logger.Info("catalog reloaded", "queries", len(queries))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("catalog watcher error", "error", err)
		}
	}
}

// Package server serves named search indexes over the query API the HTTP
// source speaks.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"docsearch/internal/domain"
	logpkg "docsearch/internal/logger"
	"docsearch/internal/metrics"
	"docsearch/internal/source"
	"docsearch/internal/source/httpsource"
)

const maxHitsPerPage = 100

// Searcher finds records in one index. *sqliteindex.Index implements it.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Record, error)
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request and lifecycle logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics instruments requests and serves gatherer at /metrics
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// Server answers queries against named indexes
type Server struct {
	indexes  map[string]Searcher
	logger   *zap.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

// New creates a server over indexes keyed by name
func New(indexes map[string]Searcher, opts ...Option) *Server {
	s := &Server{
		indexes: indexes,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Router builds the HTTP handler
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger(s.logger))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware())
	}

	r.Get("/healthz", s.health)
	r.Post("/1/indexes/{index}/query", s.query)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Run serves on addr until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", zap.String("addr", addr), zap.Int("indexes", len(s.indexes)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "index")
	idx, ok := s.indexes[name]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("index %q does not exist", name))
		return
	}

	var req httpsource.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	limit := req.HitsPerPage
	switch {
	case limit <= 0:
		limit = source.DefaultPageSize
	case limit > maxHitsPerPage:
		limit = maxHitsPerPage
	}

	records, err := idx.Search(r.Context(), req.Query, limit)
	if err != nil {
		logpkg.FromContext(r.Context()).Warn("search failed", zap.String("index", name), zap.Error(err))
		if errors.Is(err, domain.ErrInvalidQuery) {
			writeError(w, http.StatusBadRequest, "invalid query")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "index unavailable")
		return
	}

	resp := httpsource.QueryResponse{
		Hits:   make([]httpsource.Hit, 0, len(records)),
		NbHits: len(records),
		Query:  req.Query,
	}
	for _, rec := range records {
		hit := httpsource.Hit{Record: rec}
		if rec.Content != "" {
			hit.SnippetResult = map[string]httpsource.Snippet{"content": {Value: rec.Content}}
		}
		resp.Hits = append(resp.Hits, hit)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"status": status, "message": message})
}

// Package httpapi serves the operational endpoints: health, metrics and
// manual run triggering.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"NewsHarvester/internal/domain"
	"NewsHarvester/internal/ports"
)

// Runner starts a sweep unless one is already in progress.
type Runner interface {
	TryExecute(ctx context.Context) (domain.RunLog, bool)
}

// RunHistory keeps the most recent finished run in memory.
type RunHistory struct {
	mu   sync.RWMutex
	last *domain.RunLog
}

var _ ports.RunRecorder = (*RunHistory)(nil)

// RecordRun implements ports.RunRecorder.
func (h *RunHistory) RecordRun(run domain.RunLog) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &run
}

// Last returns the latest run, if any.
func (h *RunHistory) Last() (domain.RunLog, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return domain.RunLog{}, false
	}
	return *h.last, true
}

// Server exposes the ops router.
type Server struct {
	runner   Runner
	history  *RunHistory
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	router   chi.Router

	mu     sync.Mutex
	srv    *http.Server
	closed bool
}

// NewServer builds the router; gatherer defaults to the Prometheus default registry.
func NewServer(runner Runner, history *RunHistory, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if history == nil {
		history = &RunHistory{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		runner:   runner,
		history:  history,
		gatherer: gatherer,
		logger:   logger.With("component", "httpapi"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Post("/runs", s.handleTrigger)
	r.Get("/runs/last", s.handleLast)

	s.router = r
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.srv = srv
	s.mu.Unlock()

	s.logger.Info("http server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.srv
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		http.Error(w, "pipeline not configured", http.StatusServiceUnavailable)
		return
	}

	// A client hanging up must not abort a run that already marked titles.
	run, ok := s.runner.TryExecute(context.WithoutCancel(r.Context()))
	if !ok {
		http.Error(w, "a run is already in progress", http.StatusConflict)
		return
	}
	s.logger.Info("manual run finished", "run_id", run.RunID, "failed", run.Failed())
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleLast(w http.ResponseWriter, _ *http.Request) {
	run, ok := s.history.Last()
	if !ok {
		http.Error(w, "no run recorded yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

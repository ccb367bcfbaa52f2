// Package server exposes the solver over HTTP.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"IVSolver/internal/batch"
	"IVSolver/internal/model"
	"IVSolver/internal/recorder"
)

// BatchTrigger starts a configured batch run on demand.
type BatchTrigger interface {
	RunBatchNow() (*model.BatchSummary, error)
}

// Server routes the HTTP API.
type Server struct {
	runner   *batch.Runner
	recorder recorder.Recorder
	trigger  BatchTrigger
	metrics  *batch.Metrics
	router   *mux.Router
}

// New builds the router. trigger may be nil when no batch input is configured.
func New(runner *batch.Runner, rec recorder.Recorder, trigger BatchTrigger) *Server {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	s := &Server{
		runner:   runner,
		recorder: rec,
		trigger:  trigger,
		metrics:  runner.Metrics,
		router:   mux.NewRouter(),
	}

	// Routes live on the root router so a method mismatch yields 405, not 404.
	s.router.HandleFunc("/api/implied-volatility", s.handleSolve).Methods(http.MethodPost)
	s.router.HandleFunc("/api/implied-volatility/batch", s.handleSolveBatch).Methods(http.MethodPost)
	s.router.HandleFunc("/api/runs", s.handleTriggerRun).Methods(http.MethodPost)
	s.router.HandleFunc("/api/runs/last", s.handleLastRun).Methods(http.MethodGet)
	s.router.HandleFunc("/api/runs/{id:[0-9]+}/solutions", s.handleRunSolutions).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed")
	})
	s.router.Use(logRequests)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] http shutdown: %v", err)
		}
	}()

	log.Printf("[INFO] http server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[INFO] %s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Microsecond))
	})
}

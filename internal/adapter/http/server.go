// Package http serves the archive query API.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/storm-track-archive/internal/archive"
	"github.com/couchcryptid/storm-track-archive/internal/observability"
)

// CollectionProvider hands the server the snapshot to query. A nil
// collection means none is loaded yet and the server is not ready.
type CollectionProvider interface {
	Collection() *archive.Collection
}

// Server exposes the query API plus health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer     *http.Server
	provider       CollectionProvider
	subtropicalACE bool
	logger         *slog.Logger
	metrics        *observability.Metrics
}

// NewServer wires the route table. subtropicalACE sets the default for
// ACE endpoints when the request does not say.
func NewServer(addr string, provider CollectionProvider, subtropicalACE bool, logger *slog.Logger, metrics *observability.Metrics) *Server {
	router := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		provider:       provider,
		subtropicalACE: subtropicalACE,
		logger:         logger,
		metrics:        metrics,
	}

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.observe)
	api.HandleFunc("/storms", s.handleListStorms).Methods(http.MethodGet)
	api.HandleFunc("/storms/{sid}", s.handleGetStorm).Methods(http.MethodGet)
	api.HandleFunc("/storms/{sid}/ace", s.handleStormACE).Methods(http.MethodGet)
	api.HandleFunc("/seasons/{year}/ace", s.handleSeasonACE).Methods(http.MethodGet)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// observe records request duration per route template and status code.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		s.metrics.RequestDuration.WithLabelValues(route, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	c := s.provider.Collection()
	if c == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "no snapshot loaded",
		})
		return
	}
	writeJSON(w, http.StatusOK, readyResponse{
		Status:  "ready",
		Storms:  c.Len(),
		BuiltAt: c.BuiltAt().UTC().Format(time.RFC3339),
	})
}

type readyResponse struct {
	Status  string `json:"status"`
	Storms  int    `json:"storms"`
	BuiltAt string `json:"built_at"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

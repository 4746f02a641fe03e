// Package http serves the operational surface: Prometheus metrics, a
// health probe, and the latest status artifact.
package http

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/altpilot/altpilot/internal/metrics"
)

// Server wraps the mux router and artifact locations.
type Server struct {
	addr        string
	artifactDir string
	registry    *metrics.Registry
}

// NewServer builds the operational HTTP server.
func NewServer(addr, artifactDir string, registry *metrics.Registry) *Server {
	return &Server{addr: addr, artifactDir: artifactDir, registry: registry}
}

// Router assembles the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(s.registry.Gatherer(), promhttp.HandlerOpts{}))
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	return r
}

// ListenAndServe blocks serving the operational endpoints.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	log.Info().Str("addr", s.addr).Msg("serving metrics and status")
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleStatus replays the most recent status.json artifact.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	path := filepath.Join(s.artifactDir, "status.json")
	b, err := os.ReadFile(path)
	if err != nil {
		http.Error(w, "no status artifact yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

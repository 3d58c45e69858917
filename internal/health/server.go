// Package health exposes the liveness and metrics HTTP surface. It runs on
// its own goroutine so a stalled fetch never blocks liveness reporting.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmaia-dev/evradar/internal/logger"
)

// Status is the read-only snapshot served by /healthz. Values come from
// synchronized reads (ledger mutex, scheduler atomics); the health surface
// never touches pipeline state directly.
type Status struct {
	Status        string    `json:"status"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	Cycles        uint64    `json:"cycles"`
	CycleFailures uint64    `json:"cycle_failures"`
	LastCycleAt   time.Time `json:"last_cycle_at"`
	LedgerSize    int       `json:"ledger_size"`
}

// Server serves /healthz and /metrics.
type Server struct {
	srv      *http.Server
	statusFn func() Status
}

// NewServer creates the health server. statusFn must be safe to call from
// the serving goroutine at any time.
func NewServer(addr string, metrics *Metrics, statusFn func() Status) *Server {
	mux := http.NewServeMux()
	s := &Server{statusFn: statusFn}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.statusFn()); err != nil {
		logger.Warn("Failed to encode health status: %v", err)
	}
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		logger.Info("Health surface listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Health server failed: %v", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

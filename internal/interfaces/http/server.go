package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/coinpilot/coinpilot/internal/models"
	"github.com/coinpilot/coinpilot/internal/portfolio"
)

// LatestRun is the snapshot the server publishes. The pipeline replaces it
// wholesale after each run; handlers only ever read.
type LatestRun struct {
	RunID     string             `json:"run_id"`
	Scores    []models.CoinScore `json:"scores"`
	Plan      *portfolio.Plan    `json:"plan,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ServerConfig holds server configuration. Local-only by default: this is
// a monitoring surface, not a public API.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns the local-only defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "127.0.0.1",
		Port:         8080,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Server is the read-only monitoring HTTP server.
type Server struct {
	cfg    ServerConfig
	router *mux.Router
	server *http.Server

	mu     sync.RWMutex
	latest *LatestRun
}

// NewServer builds the router with /health, /metrics, /ranks, and
// /portfolio endpoints.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{cfg: cfg, router: mux.NewRouter()}

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/ranks", s.handleRanks).Methods(http.MethodGet)
	s.router.HandleFunc("/portfolio", s.handlePortfolio).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// Publish replaces the snapshot served by /ranks and /portfolio.
func (s *Server) Publish(run *LatestRun) {
	s.mu.Lock()
	s.latest = run
	s.mu.Unlock()
}

// Start serves until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.server.Addr).Msg("Monitoring server listening")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	hasRun := s.latest != nil
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"has_run": hasRun,
	})
}

func (s *Server) handleRanks(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	if latest == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no run available yet"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":     latest.RunID,
		"updated_at": latest.UpdatedAt,
		"scores":     latest.Scores,
	})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	if latest == nil || latest.Plan == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no portfolio available yet"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":     latest.RunID,
		"updated_at": latest.UpdatedAt,
		"policy":     latest.Plan.Policy,
		"allocation": latest.Plan.Allocation,
		"guardrails": latest.Plan.Guardrails,
		"checklist":  latest.Plan.Checklist,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

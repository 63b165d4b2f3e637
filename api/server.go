// Package api exposes the planning engine over HTTP/JSON for the depot
// supervisor UI and operational tooling.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kmrl/induction/core/engine"
	"github.com/kmrl/induction/infra/logger"
)

// Server wraps the engine with an HTTP surface.
type Server struct {
	engine *engine.Engine
	log    logger.Logger
	srv    *http.Server
}

// NewServer builds the API server on addr.
func NewServer(addr string, eng *engine.Engine, log logger.Logger) *Server {
	s := &Server{engine: eng, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/plans", s.handleGenerate)
	mux.HandleFunc("GET /api/v1/plans/latest", s.handleLatest)
	mux.HandleFunc("GET /api/v1/plans/history", s.handleHistory)
	mux.HandleFunc("GET /api/v1/plans/{id}", s.handleGet)
	mux.HandleFunc("POST /api/v1/plans/{id}/approve", s.handleApprove)
	mux.HandleFunc("POST /api/v1/plans/{id}/override", s.handleOverride)
	mux.HandleFunc("POST /api/v1/withdrawals", s.handleWithdrawal)
	mux.HandleFunc("POST /api/v1/crisis", s.handleCrisis)
	mux.HandleFunc("POST /api/v1/whatif", s.handleWhatIf)
	mux.HandleFunc("GET /api/v1/audit", s.handleAudit)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.srv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return s
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("api listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorf("api response encode: %v", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorBody{Error: err.Error()})
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes the daemon's operational surface: health and
// readiness probes, Prometheus metrics and a live session listing. The
// frame streams themselves never touch this server; they run on their own
// per-channel TCP ports.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sensegrid/framecast/internal/broadcast"
)

// SessionLister supplies the live session snapshot.
type SessionLister interface {
	Sessions() []broadcast.SessionInfo
}

// CaptureProbe reports capture liveness for the readiness check.
type CaptureProbe interface {
	LastFrame() time.Time
}

// Config holds the status server configuration.
type Config struct {
	Addr    string
	Version string

	// StaleAfter marks the capture source unready when no frame arrived
	// within it. Zero means 3 seconds.
	StaleAfter time.Duration

	Sessions SessionLister
	Capture  CaptureProbe
	Logger   zerolog.Logger
}

// Server is the HTTP status server.
type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
	version    string
	staleAfter time.Duration
	sessions   SessionLister
	capture    CaptureProbe
}

// New builds the status server. It does not bind until Start.
func New(cfg Config) *Server {
	s := &Server{
		logger:     cfg.Logger.With().Str("component", "api").Logger(),
		version:    cfg.Version,
		staleAfter: cfg.StaleAfter,
		sessions:   cfg.Sessions,
		capture:    cfg.Capture,
	}
	if s.staleAfter <= 0 {
		s.staleAfter = 3 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/v1/sessions", s.handleSessions)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start runs the HTTP server and blocks until Shutdown or failure.
func (s *Server) Start() error {
	s.logger.Info().
		Str("event", "api.started").
		Str("addr", s.httpServer.Addr).
		Msg("status server listening")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

type healthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type readyResponse struct {
	Ready     bool      `json:"ready"`
	Reason    string    `json:"reason,omitempty"`
	LastFrame time.Time `json:"last_frame,omitempty"`
}

type sessionsResponse struct {
	Count    int                     `json:"count"`
	Sessions []broadcast.SessionInfo `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Version:   s.version,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	resp := readyResponse{Ready: true}
	status := http.StatusOK

	if s.capture != nil {
		last := s.capture.LastFrame()
		resp.LastFrame = last
		switch {
		case last.IsZero():
			resp.Ready = false
			resp.Reason = "no frame captured yet"
		case time.Since(last) > s.staleAfter:
			resp.Ready = false
			resp.Reason = "capture source stale"
		}
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, resp)
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	var infos []broadcast.SessionInfo
	if s.sessions != nil {
		infos = s.sessions.Sessions()
	}
	if infos == nil {
		infos = []broadcast.SessionInfo{}
	}
	writeJSON(w, http.StatusOK, sessionsResponse{Count: len(infos), Sessions: infos})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

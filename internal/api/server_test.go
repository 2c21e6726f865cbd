// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensegrid/framecast/internal/broadcast"
)

type stubSessions struct {
	infos []broadcast.SessionInfo
}

func (s *stubSessions) Sessions() []broadcast.SessionInfo { return s.infos }

type stubCapture struct {
	last time.Time
}

func (s *stubCapture) LastFrame() time.Time { return s.last }

func newTestServer(sessions SessionLister, capture CaptureProbe) *Server {
	return New(Config{
		Addr:     ":0",
		Version:  "test",
		Sessions: sessions,
		Capture:  capture,
		Logger:   zerolog.New(io.Discard),
	})
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "test", resp.Version)
}

func TestReadyzStates(t *testing.T) {
	capture := &stubCapture{}
	srv := newTestServer(nil, capture)

	// No frame yet: not ready.
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// Fresh frame: ready.
	capture.last = time.Now()
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Stale frame: not ready again.
	capture.last = time.Now().Add(-time.Minute)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp readyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Ready)
	assert.Equal(t, "capture source stale", resp.Reason)
}

func TestReadyzWithoutCaptureProbe(t *testing.T) {
	srv := newTestServer(nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionsEndpoint(t *testing.T) {
	sessions := &stubSessions{infos: []broadcast.SessionInfo{
		{ID: "abc", Channel: "color", RemoteAddr: "127.0.0.1:55001", BytesSent: 1024},
	}}
	srv := newTestServer(sessions, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp sessionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "color", resp.Sessions[0].Channel)
	assert.Equal(t, int64(1024), resp.Sessions[0].BytesSent)
}

func TestSessionsEndpointEmpty(t *testing.T) {
	srv := newTestServer(&stubSessions{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0,"sessions":[]}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

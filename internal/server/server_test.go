package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/drewdunne/mrscope/internal/metrics"
)

func TestServer_HealthEndpoint(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want %d", rec.Code, http.StatusOK)
	}

	var health HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("Failed to parse health response: %v", err)
	}

	if health.Status != "ok" {
		t.Errorf("GET /health status = %q, want ok", health.Status)
	}
	if health.Checks["source"] != "gitlab" {
		t.Errorf("checks.source = %v, want gitlab", health.Checks["source"])
	}
	if health.Checks["confluence"] != false {
		t.Errorf("checks.confluence = %v, want false", health.Checks["confluence"])
	}
	if health.Checks["dispatcher"] != "idle" {
		t.Errorf("checks.dispatcher = %v, want idle", health.Checks["dispatcher"])
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	metrics.Reset()
	metrics.ToolCallReceived()
	metrics.DocumentStored(true)

	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var m metrics.Metrics
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("Failed to parse metrics response: %v", err)
	}
	if m.ToolCallsReceived != 1 || m.DocumentsCreated != 1 {
		t.Errorf("metrics = %+v", m)
	}
}

// Without a webhook secret no webhook route is mounted.
func TestServer_UnknownRoute(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/webhook/gitlab", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

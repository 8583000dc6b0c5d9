package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/miklosbodnar/eventdeck-backend/pkg/config"
	"github.com/miklosbodnar/eventdeck-backend/pkg/logger"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error { return f.err }

func testHandler(deps map[string]Pinger) http.Handler {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	logg := logger.New(logger.Options{ServiceName: "ops-test", Output: io.Discard})
	return NewOpsHandler(cfg, logg, deps)
}

func TestHealthzAlwaysOK(t *testing.T) {
	handler := testHandler(nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" || body["env"] != "test" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestReadyzReportsDependencyFailure(t *testing.T) {
	handler := testHandler(map[string]Pinger{
		"db":    fakePinger{},
		"redis": fakePinger{err: errors.New("connection refused")},
	})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "degraded" {
		t.Fatalf("expected degraded status, got %q", body.Status)
	}
	if body.Checks["db"] != "ok" || body.Checks["redis"] != "unavailable" {
		t.Fatalf("unexpected checks %v", body.Checks)
	}
}

func TestMetricsEndpointServes(t *testing.T) {
	handler := testHandler(nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

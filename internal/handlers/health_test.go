package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"sheetstand/internal/content"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth_Healthy(t *testing.T) {
	handler := NewHealthHandler(pingerFunc(func(context.Context) error { return nil }), content.NewMemory())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	resp := decodeBody[HealthResponse](t, w)
	if resp.Status != "healthy" {
		t.Errorf("Status = %s, want healthy", resp.Status)
	}
	if resp.Checks["database"] != "ok" {
		t.Errorf("database check = %s, want ok", resp.Checks["database"])
	}
	if resp.Checks["content_store"] != "memory" {
		t.Errorf("content_store check = %s, want memory", resp.Checks["content_store"])
	}
}

func TestHealth_DatabaseDown(t *testing.T) {
	handler := NewHealthHandler(pingerFunc(func(context.Context) error {
		return errors.New("connection refused")
	}), content.NewMemory())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	resp := decodeBody[HealthResponse](t, w)
	if resp.Status != "unhealthy" {
		t.Errorf("Status = %s, want unhealthy", resp.Status)
	}
	if len(resp.Issues) == 0 {
		t.Error("Issues is empty, want database_unavailable")
	}
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"sheetstand/internal/content"
	"sheetstand/internal/contextutil"
)

// Pinger is the slice of the record store the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the database and content store are usable.
type HealthHandler struct {
	store        Pinger
	contents     content.Store
	checkTimeout time.Duration
}

// NewHealthHandler creates a health check handler.
func NewHealthHandler(store Pinger, contents content.Store) *HealthHandler {
	return &HealthHandler{
		store:        store,
		contents:     contents,
		checkTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Issues    []string          `json:"issues,omitempty"`
}

// ServeHTTP runs the dependency checks and reports 200 or 503.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checkCtx, cancel := context.WithTimeout(ctx, h.checkTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	if err := h.store.Ping(checkCtx); err != nil {
		logger.WarnContext(ctx, "database health check failed", "error", err)
		checks["database"] = "error"
		issues = append(issues, "database_unavailable")
	} else {
		checks["database"] = "ok"
	}

	// The content store has no uniform liveness probe across drivers;
	// report which driver is wired so operators can see the configuration.
	checks["content_store"] = string(h.contents.Driver())

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(ctx, w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	})
}

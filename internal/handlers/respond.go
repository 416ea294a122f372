package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"sheetstand/internal/contextutil"
	"sheetstand/internal/service"
)

// errorResponse is the JSON body for all error replies.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError maps the service error taxonomy onto HTTP statuses:
// validation 400, not found 404, conflict 409, everything else 500.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: ve.Message})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(ctx, w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrConflict):
		writeJSON(ctx, w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		logger.ErrorContext(ctx, "request failed", "error", err)
		writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &service.ValidationError{Field: "body", Message: "invalid JSON body"}
	}
	return nil
}

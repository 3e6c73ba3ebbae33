package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/source"
)

// envelope is the uniform JSON response shape.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func sendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func sendJSONError(w http.ResponseWriter, code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(envelope{Success: false, Error: &apiError{Code: code, Message: message}}); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}

// sendDomainError maps domain sentinels onto HTTP statuses. Anything
// unrecognized is a 500 with a generic message so internals never leak.
func sendDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidPeriod), errors.Is(err, core.ErrEmptySubject):
		sendJSONError(w, "invalid_period", err.Error(), http.StatusBadRequest)
	case errors.Is(err, core.ErrNotFound):
		sendJSONError(w, "not_found", err.Error(), http.StatusNotFound)
	case errors.Is(err, source.ErrUnavailable):
		sendJSONError(w, "source_unavailable", "external source unavailable", http.StatusBadGateway)
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"path", r.URL.Path,
			"error", err)
		sendJSONError(w, "internal", "internal server error", http.StatusInternalServerError)
	}
}

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"costwatch/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps the error taxonomy onto HTTP statuses and reports the
// cause to the caller. Missing rates and staleness are never hidden behind
// silent zeros.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrUnknownCurrency):
		status = http.StatusConflict
	case errors.Is(err, core.ErrRateFetch):
		status = http.StatusBadGateway
	case errors.Is(err, core.ErrTimeout):
		status = http.StatusGatewayTimeout
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "method", r.Method, "url", r.URL.Path)
	} else {
		slog.WarnContext(r.Context(), "Request rejected", "error", err, "status", status, "method", r.Method, "url", r.URL.Path)
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	w.WriteHeader(http.StatusMethodNotAllowed)
}

// targetCurrency reads and validates the ?currency= parameter.
func targetCurrency(r *http.Request) (string, error) {
	code := r.URL.Query().Get("currency")
	if !core.ValidCurrencyCode(code) {
		return "", core.ErrInvalidCurrency
	}
	return code, nil
}

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
)

type errorBody struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// respondError maps the error taxonomy to HTTP status codes. Store failures
// are logged and surfaced as a generic 500 with no internal detail.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *core.ValidationError
		authErr    *core.AuthError
		conflict   *core.ConflictError
		notFound   *core.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		respondJSON(w, http.StatusBadRequest, errorBody{Message: validation.Error()})
	case errors.As(err, &authErr):
		respondJSON(w, http.StatusUnauthorized, errorBody{Message: authErr.Error()})
	case errors.As(err, &conflict):
		respondJSON(w, http.StatusConflict, errorBody{Message: conflict.Error()})
	case errors.As(err, &notFound):
		respondJSON(w, http.StatusNotFound, errorBody{Message: notFound.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
		respondJSON(w, http.StatusInternalServerError, errorBody{Message: "Internal server error"})
	}
}

// decodeJSON reads the request body into dst. A malformed body is a
// ValidationError so it maps to 400 at the boundary.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return &core.ValidationError{Msg: "Invalid request body"}
	}
	return nil
}

package handler

// RESPONSE HELPERS:
// These standardise how handlers send JSON and map domain errors to HTTP.
//
// CONSISTENT ERROR FORMAT:
// Every error response has the same shape:
//
//	{"error": "not_found", "message": "..."}
//
// Policy rejections additionally carry a structured detail payload merged
// into the object, e.g.:
//
//	{"error": "locked", "message": "...", "recordingsNeeded": 1}
//	{"error": "starter_pending", "message": "...", "starterTask": {...}}
//
// The frontend switches on the "error" field; the rest tells it what to
// render.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/amara/mothertongue/internal/apperror"
	"github.com/amara/mothertongue/internal/service"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable type, e.g. "not_found"
	Message string `json:"message"` // human-readable description
}

// lockedResponse and starterPendingResponse flatten the policy rejection
// details into the standard error shape.
type lockedResponse struct {
	ErrorResponse
	RecordingsNeeded int `json:"recordingsNeeded"`
}

type starterPendingResponse struct {
	ErrorResponse
	StarterTask any `json:"starterTask"`
}

// writeJSON sends a JSON response with the given status code.
// Headers must be set before WriteHeader, and WriteHeader before the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers already sent — nothing to do but log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code.
//
// The service layer returns apperror sentinels; this is the single place
// they become status codes. errors.Is walks the wrap chain, so services
// are free to annotate with fmt.Errorf("...: %w", err).
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// Unknown error — generic 500, never leak internals to the client.
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	// Policy rejections get their detail payloads flattened in.
	if errors.Is(err, apperror.ErrLocked) {
		switch detail := appErr.Detail.(type) {
		case service.LockedDetail:
			writeJSON(w, http.StatusConflict, lockedResponse{
				ErrorResponse:    ErrorResponse{Error: "locked", Message: appErr.Message},
				RecordingsNeeded: detail.RecordingsNeeded,
			})
		case service.StarterPendingDetail:
			writeJSON(w, http.StatusConflict, starterPendingResponse{
				ErrorResponse: ErrorResponse{Error: "starter_pending", Message: appErr.Message},
				StarterTask:   detail.StarterTask,
			})
		default:
			writeJSON(w, http.StatusConflict, ErrorResponse{Error: "locked", Message: appErr.Message})
		}
		return
	}

	status := http.StatusInternalServerError
	errorType := "internal_error"
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, errorType = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrNotFound):
		status, errorType = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrForbidden):
		status, errorType = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrConflict):
		status, errorType = http.StatusConflict, "conflict"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: appErr.Message,
	})
}

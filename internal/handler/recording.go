package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/amara/mothertongue/internal/apperror"
	"github.com/amara/mothertongue/internal/auth"
	"github.com/amara/mothertongue/internal/model"
	"github.com/amara/mothertongue/internal/service"
)

// maxUploadBytes bounds the multipart form. 32 MiB fits several minutes
// of webm/opus audio with room to spare.
const maxUploadBytes = 32 << 20

// RecordingHandler serves recording submission and listing.
type RecordingHandler struct {
	recordings *service.RecordingService
}

// NewRecordingHandler creates a RecordingHandler.
func NewRecordingHandler(recordings *service.RecordingService) *RecordingHandler {
	return &RecordingHandler{recordings: recordings}
}

// HandleSubmit accepts one recording as a multipart form.
//
// HTTP: POST /api/recordings (behind RequireAuth)
//
// Form fields:
//
//	taskId          (required)
//	audio           (required, file part)
//	notes           (optional)
//	durationSeconds (optional, integer)
//
// MULTIPART OVER BASE64-IN-JSON:
// Audio is binary; multipart streams it without the 33% base64 overhead
// and without buffering the whole payload as a JSON string.
func (h *RecordingHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid or oversize multipart form"))
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, apperror.ValidationFailed("audio", "audio file is required"))
		return
	}
	defer file.Close()

	duration := 0
	if raw := strings.TrimSpace(r.FormValue("durationSeconds")); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, apperror.ValidationFailed("durationSeconds", "durationSeconds must be an integer"))
			return
		}
	}

	rec, err := h.recordings.Submit(r.Context(), userID, service.Submission{
		TaskID:          r.FormValue("taskId"),
		Audio:           file,
		ContentType:     header.Header.Get("Content-Type"),
		Filename:        header.Filename,
		Notes:           r.FormValue("notes"),
		DurationSeconds: duration,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"recording": rec})
}

// HandleList returns the signed-in user's recordings, newest first.
//
// HTTP: GET /api/recordings?limit=N (behind RequireAuth)
// HandleGet returns one of the caller's recordings.
//
// HTTP: GET /api/recordings/{id} (behind RequireAuth)
func (h *RecordingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	rec, err := h.recordings.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recording": rec})
}

func (h *RecordingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw) // bad values fall back to the default
	}

	recs, err := h.recordings.ListByUser(r.Context(), userID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if recs == nil {
		recs = []model.Recording{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"recordings": recs})
}

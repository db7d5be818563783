package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/amara/mothertongue/internal/apperror"
	"github.com/amara/mothertongue/internal/auth"
	"github.com/amara/mothertongue/internal/service"
)

// TaskHandler serves task generation and lookup.
type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type generateRequest struct {
	LanguageID string `json:"languageId"`
	Force      bool   `json:"force"`
}

// HandleGenerate runs the generation policy for the signed-in user.
//
// HTTP: POST /api/tasks/generate (behind RequireAuth)
//
// Policy rejections come back as 409 with a "locked" or "starter_pending"
// error body — see response.go. Those are expected outcomes the UI acts
// on, not failures.
func (h *TaskHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if req.LanguageID == "" {
		writeError(w, apperror.ValidationFailed("languageId", "languageId is required"))
		return
	}

	task, err := h.tasks.GenerateNext(r.Context(), userID, req.LanguageID, req.Force)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"task": task})
}

// HandleGet returns a single task.
//
// HTTP: GET /api/tasks/{id}
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"task": task})
}

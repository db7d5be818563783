package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/amara/mothertongue/internal/auth"
	"github.com/amara/mothertongue/internal/model"
	"github.com/amara/mothertongue/internal/service"
)

// LanguageHandler serves the language catalog and per-language views.
type LanguageHandler struct {
	languages *service.LanguageService
	tasks     *service.TaskService
}

// NewLanguageHandler creates a LanguageHandler.
func NewLanguageHandler(languages *service.LanguageService, tasks *service.TaskService) *LanguageHandler {
	return &LanguageHandler{languages: languages, tasks: tasks}
}

// HandleList returns the full catalog.
//
// HTTP: GET /api/languages
func (h *LanguageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	langs, err := h.languages.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if langs == nil {
		langs = []model.Language{} // [] over null in JSON
	}
	writeJSON(w, http.StatusOK, map[string]any{"languages": langs})
}

// HandleTasks returns a language's starter sequence and recent tasks.
//
// HTTP: GET /api/languages/{id}/tasks
func (h *LanguageHandler) HandleTasks(w http.ResponseWriter, r *http.Request) {
	languageID := chi.URLParam(r, "id")

	starters, recent, err := h.tasks.ListForLanguage(r.Context(), languageID, 20)
	if err != nil {
		writeError(w, err)
		return
	}
	if starters == nil {
		starters = []model.Task{}
	}
	if recent == nil {
		recent = []model.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"starterTasks": starters,
		"recentTasks":  recent,
	})
}

// HandleProgress returns the signed-in user's progress in a language,
// with the policy state spelled out by name.
//
// HTTP: GET /api/languages/{id}/progress (behind RequireAuth)
func (h *LanguageHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	languageID := chi.URLParam(r, "id")

	progress, state, err := h.tasks.Progress(r.Context(), userID, languageID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"progress": progress,
		"state":    state.String(),
	})
}

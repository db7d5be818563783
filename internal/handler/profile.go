package handler

import (
	"net/http"
	"strconv"

	"github.com/amara/mothertongue/internal/model"
	"github.com/amara/mothertongue/internal/service"
)

// ProfileHandler serves the leaderboard.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// HandleLeaderboard returns the top profiles by points.
//
// HTTP: GET /api/leaderboard?limit=N
func (h *ProfileHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	board, err := h.profiles.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if board == nil {
		board = []model.Profile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": board})
}

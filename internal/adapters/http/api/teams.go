package api

import (
	"context"
	"net/http"

	model "github.com/okian/matchup/internal/domain/model"
)

// TeamsDependencies defines the roster passthrough.
type TeamsDependencies interface {
	Teams(ctx context.Context) ([]model.Team, error)
}

// TeamsHandler handles GET /api/teams.
type TeamsHandler struct {
	deps TeamsDependencies
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps TeamsDependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps}
}

// HandleGetTeams returns the backend roster in the backend's own shape.
func (h *TeamsHandler) HandleGetTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.deps.Teams(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	if teams == nil {
		teams = []model.Team{}
	}
	writeJSON(w, http.StatusOK, teamsResponse{Teams: teams})
}

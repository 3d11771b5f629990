// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/matchup/internal/domain/matchup"
	model "github.com/okian/matchup/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SessionDependencies
	TeamsDependencies
}

// View mirrors the session shape returned by the API.
type View = matchup.View

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
	teamsHandler    *TeamsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		sessionsHandler: NewSessionsHandler(deps),
		teamsHandler:    NewTeamsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /api/teams", MetricsMiddleware(s.teamsHandler.HandleGetTeams, "teams"))

	sh := s.sessionsHandler
	mux.HandleFunc("POST /api/sessions", MetricsMiddleware(sh.HandleOpen, "sessions"))
	mux.HandleFunc("GET /api/sessions/{id}", MetricsMiddleware(sh.HandleGet, "session"))
	mux.HandleFunc("DELETE /api/sessions/{id}", MetricsMiddleware(sh.HandleDelete, "session"))
	mux.HandleFunc("POST /api/sessions/{id}/roster", MetricsMiddleware(sh.HandleRoster, "roster"))
	mux.HandleFunc("PUT /api/sessions/{id}/home", MetricsMiddleware(sh.HandleSelectHome, "home"))
	mux.HandleFunc("PUT /api/sessions/{id}/away", MetricsMiddleware(sh.HandleSelectAway, "away"))
	mux.HandleFunc("POST /api/sessions/{id}/predict", MetricsMiddleware(sh.HandlePredict, "predict"))
}

type selectRequest struct {
	Name string `json:"name"`
}

type teamsResponse struct {
	Teams []model.Team `json:"teams"`
}

type predictResponse struct {
	Seq        uint64           `json:"seq"`
	Prediction model.Prediction `json:"prediction"`
	Session    *View            `json:"session,omitempty"`
}

type errorResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Seq     *uint64 `json:"seq,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure classifies err and writes it.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

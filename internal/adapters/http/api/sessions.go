package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/matchup/internal/domain/matchup"
)

const (
	// IdempotencyHeader carries the client's key for a predict submission.
	IdempotencyHeader = "Idempotency-Key"

	maxRequestBody = 64 << 10
)

// SessionDependencies defines the form controller operations the API drives.
type SessionDependencies interface {
	Open(ctx context.Context) (matchup.View, error)
	LoadRoster(ctx context.Context, id string) (matchup.View, error)
	SelectHome(ctx context.Context, id, name string) (matchup.View, error)
	SelectAway(ctx context.Context, id, name string) (matchup.View, error)
	Predict(ctx context.Context, id, key string) matchup.PredictResult
	View(ctx context.Context, id string) (matchup.View, error)
	Close(ctx context.Context, id string) error
}

// SessionsHandler handles /api/sessions requests.
type SessionsHandler struct {
	deps SessionDependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionDependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleOpen handles POST /api/sessions. The roster is loaded before the
// response is written; a roster failure shows in the view's error field.
func (h *SessionsHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Open(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+view.ID)
	writeJSON(w, http.StatusCreated, view)
}

// HandleGet handles GET /api/sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.View(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleDelete handles DELETE /api/sessions/{id}.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Close(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRoster handles POST /api/sessions/{id}/roster.
func (h *SessionsHandler) HandleRoster(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.LoadRoster(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleSelectHome handles PUT /api/sessions/{id}/home.
func (h *SessionsHandler) HandleSelectHome(w http.ResponseWriter, r *http.Request) {
	h.handleSelect(w, r, "api.select_home", h.deps.SelectHome)
}

// HandleSelectAway handles PUT /api/sessions/{id}/away.
func (h *SessionsHandler) HandleSelectAway(w http.ResponseWriter, r *http.Request) {
	h.handleSelect(w, r, "api.select_away", h.deps.SelectAway)
}

type selectFunc func(ctx context.Context, id, name string) (matchup.View, error)

func (h *SessionsHandler) handleSelect(w http.ResponseWriter, r *http.Request, op string, sel selectFunc) {
	var req selectRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := sel(r.Context(), r.PathValue("id"), strings.TrimSpace(req.Name))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandlePredict handles POST /api/sessions/{id}/predict.
func (h *SessionsHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))

	res := h.deps.Predict(r.Context(), id, key)
	if !res.OK() {
		status, code := classify(res.Err)
		body := errorResponse{Code: code, Message: res.Err.Error()}
		// only failures of an issued request carry its seq
		if res.Seq > 0 && !matchup.IsValidation(res.Err) {
			seq := res.Seq
			body.Seq = &seq
		}
		writeJSON(w, status, body)
		return
	}

	out := predictResponse{Seq: res.Seq, Prediction: res.Prediction}
	if view, err := h.deps.View(r.Context(), id); err == nil {
		out.Session = &view
	}
	writeJSON(w, http.StatusOK, out)
}

// decodeBody reads a single JSON object from the request body.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

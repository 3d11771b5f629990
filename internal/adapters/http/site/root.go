// Package site serves the server-rendered matchup form.
package site

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"

	"github.com/okian/matchup/internal/adapters/repository"
	"github.com/okian/matchup/internal/domain/matchup"
	"github.com/okian/matchup/pkg/logger"
)

// Error constants
var (
	ErrRender = errors.New("form render failed")
	ErrServe  = errors.New("form serve failed")
)

const (
	// CookieName holds the browser's session id.
	CookieName = "matchup_session"
	flashName  = "matchup_flash"

	cookieMaxAge = 24 * time.Hour
)

// Dependencies are the controller operations the form drives.
type Dependencies interface {
	Open(ctx context.Context) (matchup.View, error)
	LoadRoster(ctx context.Context, id string) (matchup.View, error)
	SelectHome(ctx context.Context, id, name string) (matchup.View, error)
	SelectAway(ctx context.Context, id, name string) (matchup.View, error)
	Predict(ctx context.Context, id, key string) matchup.PredictResult
	View(ctx context.Context, id string) (matchup.View, error)
}

// Register attaches the form routes and the stylesheet to mux.
func Register(_ context.Context, mux *http.ServeMux, deps Dependencies) {
	if mux == nil {
		panic("mux is nil")
	}
	h := NewRootHandler(deps)

	mux.HandleFunc("GET /{$}", h.HandleRoot)
	mux.HandleFunc("POST /form/home", h.HandleHome)
	mux.HandleFunc("POST /form/away", h.HandleAway)
	mux.HandleFunc("POST /form/predict", h.HandlePredict)
	mux.HandleFunc("POST /form/reload", h.HandleReload)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(FS())))
}

// RootHandler renders the form and applies its posts.
type RootHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewRootHandler creates a new root handler.
func NewRootHandler(deps Dependencies) *RootHandler {
	return &RootHandler{deps: deps, log: logger.Get().Named("site")}
}

// HandleRoot handles GET / requests. A browser without a live session gets
// a new one with its roster loaded.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		view matchup.View
		err  error
	)
	if id := sessionID(r); id != "" {
		view, err = h.deps.View(ctx, id)
	}
	if view.ID == "" && (err == nil || errors.Is(err, repository.ErrNotFound)) {
		view, err = h.deps.Open(ctx)
		if err == nil {
			setSession(w, view.ID)
		}
	}
	if err != nil {
		h.log.Error(ctx, "form session unavailable", logger.Error(err))
		http.Error(w, "form is unavailable, try again shortly", http.StatusServiceUnavailable)
		return
	}

	flash := takeFlash(w, r)
	w.Header().Set("Cache-Control", "no-store")
	templ.Handler(Page(page{View: view, Flash: flash, Key: uuid.NewString()}),
		templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
			h.log.Error(r.Context(), "form render", logger.Error(errors.Join(ErrRender, err)))
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, ErrRender.Error(), http.StatusInternalServerError)
			})
		}),
	).ServeHTTP(w, r)
}

// HandleHome handles POST /form/home.
func (h *RootHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.handleSelect(w, r, h.deps.SelectHome)
}

// HandleAway handles POST /form/away.
func (h *RootHandler) HandleAway(w http.ResponseWriter, r *http.Request) {
	h.handleSelect(w, r, h.deps.SelectAway)
}

func (h *RootHandler) handleSelect(w http.ResponseWriter, r *http.Request, sel func(context.Context, string, string) (matchup.View, error)) {
	id := sessionID(r)
	if id == "" {
		redirectHome(w, r)
		return
	}
	if _, err := sel(r.Context(), id, r.PostFormValue("name")); err != nil {
		h.fail(w, r, err)
		return
	}
	redirectHome(w, r)
}

// HandlePredict handles POST /form/predict. The form's hidden key makes a
// double submit of one rendered page a single backend request.
func (h *RootHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := sessionID(r)
	if id == "" {
		redirectHome(w, r)
		return
	}

	res := h.deps.Predict(ctx, id, r.PostFormValue("key"))
	switch {
	case res.OK(), errors.Is(res.Err, matchup.ErrDuplicateRequest):
	case errors.Is(res.Err, matchup.ErrStaleResponse):
		setFlash(w, "Prediction "+seqLabel(res.Seq)+" was superseded by a newer request.")
	case matchup.IsValidation(res.Err), res.Seq == 0:
		h.fail(w, r, res.Err)
		return
	default:
		// failures after the request was issued are shown from the session state
		h.log.Warn(ctx, "form predict failed", logger.String("session", id), logger.Error(res.Err))
	}
	redirectHome(w, r)
}

// HandleReload handles POST /form/reload, the retry after a roster failure.
func (h *RootHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if id == "" {
		redirectHome(w, r)
		return
	}
	if _, err := h.deps.LoadRoster(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	redirectHome(w, r)
}

// fail turns a rejected post into a flash, or drops an unknown session.
func (h *RootHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		clearCookie(w, CookieName)
	case matchup.IsValidation(err):
		setFlash(w, err.Error())
	default:
		h.log.Warn(r.Context(), "form post failed", logger.Error(err))
		setFlash(w, "Something went wrong, please try again.")
	}
	redirectHome(w, r)
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func sessionID(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func setSession(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashName,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash reads and clears the one-shot message set by the last post.
func takeFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashName)
	if err != nil {
		return ""
	}
	clearCookie(w, flashName)
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
}

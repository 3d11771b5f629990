// Package matchup holds the form view-model and the reducer that drives it.
package matchup

import (
	model "github.com/okian/matchup/internal/domain/model"
)

// RosterErrorMessage is shown when the team roster cannot be fetched.
const RosterErrorMessage = "Unable to load teams. Please make sure the prediction service is running."

// RosterStatus tracks the roster fetch.
type RosterStatus string

// Roster statuses.
const (
	RosterStatusIdle    RosterStatus = "idle"
	RosterStatusLoading RosterStatus = "loading"
	RosterStatusLoaded  RosterStatus = "loaded"
	RosterStatusError   RosterStatus = "error"
)

// PredictStatus tracks the latest predict request.
type PredictStatus string

// Predict statuses.
const (
	PredictStatusIdle       PredictStatus = "idle"
	PredictStatusInProgress PredictStatus = "predicting"
	PredictStatusDone       PredictStatus = "predicted"
	PredictStatusFailed     PredictStatus = "failed"
)

// State is the complete form view-model. It is a plain value and safe to
// serialize; the reducer never mutates the Teams slice it was given.
type State struct {
	Teams         []model.Team      `json:"teams"`
	HomeTeamName  string            `json:"homeTeamName"`
	AwayTeamName  string            `json:"awayTeamName"`
	Prediction    *model.Prediction `json:"prediction"`
	Error         string            `json:"error,omitempty"`
	RosterStatus  RosterStatus      `json:"rosterStatus"`
	PredictStatus PredictStatus     `json:"predictStatus"`
	PredictError  string            `json:"predictError,omitempty"`
	Seq           uint64            `json:"seq"`        // latest issued predict request
	AppliedSeq    uint64            `json:"appliedSeq"` // request whose response is displayed
}

// New returns the state of a freshly opened form.
func New() State {
	return State{
		Teams:         []model.Team{},
		RosterStatus:  RosterStatusIdle,
		PredictStatus: PredictStatusIdle,
	}
}

// Clone returns a copy that shares no slices or pointers with s.
func (s State) Clone() State {
	out := s
	out.Teams = append([]model.Team(nil), s.Teams...)
	if out.Teams == nil {
		out.Teams = []model.Team{}
	}
	if s.Prediction != nil {
		p := *s.Prediction
		out.Prediction = &p
	}
	return out
}

// HomeOptions lists the teams offered for the home slot.
func HomeOptions(s State) []model.Team {
	return append([]model.Team{}, s.Teams...)
}

// AwayOptions lists the teams offered for the away slot: the roster minus
// the current home selection.
func AwayOptions(s State) []model.Team {
	out := make([]model.Team, 0, len(s.Teams))
	for _, t := range s.Teams {
		if s.HomeTeamName != "" && t.Name == s.HomeTeamName {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Resolve validates the selections and returns the descriptors to send to
// the predictor.
func Resolve(s State) (home, away model.TeamRef, err error) {
	switch {
	case s.RosterStatus != RosterStatusLoaded:
		return home, away, ErrRosterNotLoaded
	case s.HomeTeamName == "":
		return home, away, ErrNoHomeTeam
	case s.AwayTeamName == "":
		return home, away, ErrNoAwayTeam
	case s.HomeTeamName == s.AwayTeamName:
		return home, away, ErrSameTeam
	}
	h, ok := model.FindTeam(s.Teams, s.HomeTeamName)
	if !ok {
		return home, away, ErrUnknownTeam
	}
	a, ok := model.FindTeam(s.Teams, s.AwayTeamName)
	if !ok {
		return home, away, ErrUnknownTeam
	}
	return h.Ref(), a.Ref(), nil
}

// CanPredict reports whether a predict request would pass validation.
func CanPredict(s State) bool {
	_, _, err := Resolve(s)
	return err == nil
}

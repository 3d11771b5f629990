package matchup

import (
	"fmt"

	model "github.com/okian/matchup/internal/domain/model"
)

// Action is an input to Reduce.
type Action interface {
	action()
}

// RosterRequested marks the start of a roster fetch.
type RosterRequested struct{}

// RosterLoaded carries the fetched roster.
type RosterLoaded struct {
	Teams []model.Team
}

// RosterFailed records a failed roster fetch.
type RosterFailed struct {
	Err error
}

// HomeSelected sets the home slot. An empty name clears it.
type HomeSelected struct {
	Name string
}

// AwaySelected sets the away slot. An empty name clears it.
type AwaySelected struct {
	Name string
}

// PredictRequested issues a new predict request.
type PredictRequested struct{}

// PredictSucceeded carries the response to request Seq.
type PredictSucceeded struct {
	Seq        uint64
	Prediction model.Prediction
}

// PredictFailed records the failure of request Seq.
type PredictFailed struct {
	Seq uint64
	Err error
}

func (RosterRequested) action()  {}
func (RosterLoaded) action()     {}
func (RosterFailed) action()     {}
func (HomeSelected) action()     {}
func (AwaySelected) action()     {}
func (PredictRequested) action() {}
func (PredictSucceeded) action() {}
func (PredictFailed) action()    {}

// Reduce applies a to s. On error the returned state equals s.
func Reduce(s State, a Action) (State, error) {
	next := s.Clone()
	switch a := a.(type) {
	case RosterRequested:
		next.RosterStatus = RosterStatusLoading
		next.Error = ""

	case RosterLoaded:
		next.Teams = append([]model.Team{}, a.Teams...)
		next.RosterStatus = RosterStatusLoaded
		next.Error = ""
		if _, ok := model.FindTeam(next.Teams, next.HomeTeamName); !ok {
			next.HomeTeamName = ""
		}
		if _, ok := model.FindTeam(next.Teams, next.AwayTeamName); !ok {
			next.AwayTeamName = ""
		}

	case RosterFailed:
		next.Teams = []model.Team{}
		next.HomeTeamName = ""
		next.AwayTeamName = ""
		next.RosterStatus = RosterStatusError
		next.Error = RosterErrorMessage

	case HomeSelected:
		if a.Name == "" {
			next.HomeTeamName = ""
			break
		}
		if _, ok := model.FindTeam(next.Teams, a.Name); !ok {
			return s, fmt.Errorf("home %q: %w", a.Name, ErrUnknownTeam)
		}
		next.HomeTeamName = a.Name
		if next.AwayTeamName == a.Name {
			next.AwayTeamName = ""
		}

	case AwaySelected:
		if a.Name == "" {
			next.AwayTeamName = ""
			break
		}
		if _, ok := model.FindTeam(next.Teams, a.Name); !ok {
			return s, fmt.Errorf("away %q: %w", a.Name, ErrUnknownTeam)
		}
		if a.Name == next.HomeTeamName {
			return s, fmt.Errorf("away %q: %w", a.Name, ErrSameTeam)
		}
		next.AwayTeamName = a.Name

	case PredictRequested:
		if _, _, err := Resolve(next); err != nil {
			return s, err
		}
		next.Seq++
		next.PredictStatus = PredictStatusInProgress
		next.PredictError = ""

	case PredictSucceeded:
		if a.Seq != s.Seq {
			return s, fmt.Errorf("seq %d, latest %d: %w", a.Seq, s.Seq, ErrStaleResponse)
		}
		p := a.Prediction
		next.Prediction = &p
		next.AppliedSeq = a.Seq
		next.PredictStatus = PredictStatusDone
		next.PredictError = ""

	case PredictFailed:
		if a.Seq != s.Seq {
			return s, fmt.Errorf("seq %d, latest %d: %w", a.Seq, s.Seq, ErrStaleResponse)
		}
		next.PredictStatus = PredictStatusFailed
		next.PredictError = "prediction failed"
		if a.Err != nil {
			next.PredictError = a.Err.Error()
		}

	default:
		return s, fmt.Errorf("%T: %w", a, ErrUnknownAction)
	}
	return next, nil
}

// Apply folds actions over s, stopping at the first error.
func Apply(s State, actions ...Action) (State, error) {
	var err error
	for _, a := range actions {
		if s, err = Reduce(s, a); err != nil {
			return s, err
		}
	}
	return s, nil
}

package matchup

import "errors"

// Validation errors. The state is left unchanged when an action fails with one of these.
var (
	ErrRosterNotLoaded = errors.New("team roster is not loaded")
	ErrNoHomeTeam      = errors.New("home team is not selected")
	ErrNoAwayTeam      = errors.New("away team is not selected")
	ErrSameTeam        = errors.New("home and away teams must differ")
	ErrUnknownTeam     = errors.New("team is not in the roster")
)

// Ordering errors.
var (
	ErrStaleResponse    = errors.New("response belongs to an older predict request")
	ErrDuplicateRequest = errors.New("predict request already submitted")
	ErrUnknownAction    = errors.New("unknown action")
)

// IsValidation reports whether err is a selection or predict validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrRosterNotLoaded) ||
		errors.Is(err, ErrNoHomeTeam) ||
		errors.Is(err, ErrNoAwayTeam) ||
		errors.Is(err, ErrSameTeam) ||
		errors.Is(err, ErrUnknownTeam)
}

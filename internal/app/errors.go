package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrNoPredictor       = errors.New("no predictor configured")
	ErrRosterUnavailable = errors.New("team roster unavailable")
)

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/matchup/internal/adapters/mq/queue"
	"github.com/okian/matchup/internal/adapters/predictor"
	"github.com/okian/matchup/internal/adapters/repository"
	"github.com/okian/matchup/internal/domain/matchup"
)

// Sentinel kinds for API errors.
var (
	ErrServe      = errors.New("http serve failed")
	ErrBadRequest = errors.New("bad request")
)

// Error ties an operation name to an error kind and an optional cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Kind.Error()
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind returns err tagged with kind, raised by op.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// classify maps controller errors to an HTTP status and error code.
func classify(err error) (int, string) {
	var se *predictor.StatusError
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case matchup.IsValidation(err):
		return http.StatusUnprocessableEntity, "invalid_selection"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, matchup.ErrStaleResponse):
		return http.StatusConflict, "stale_response"
	case errors.Is(err, matchup.ErrDuplicateRequest):
		return http.StatusConflict, "duplicate_request"
	case errors.Is(err, queue.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, repository.ErrCapacity), errors.Is(err, queue.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, "timeout"
	case errors.As(err, &se), predictor.IsUpstream(err):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// StatusFor returns the HTTP status an error is reported with.
func StatusFor(err error) int {
	status, _ := classify(err)
	return status
}

package predictor

import (
	"errors"
	"fmt"
)

// Client errors. Use errors.Is for the sentinels and errors.As for StatusError.
var (
	ErrTransport = errors.New("predictor unreachable")
	ErrDecode    = errors.New("predictor response could not be decoded")
)

// StatusError reports a non-2xx answer from the backend.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string // first 512 bytes, trimmed
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("predictor %s: unexpected status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("predictor %s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// IsUpstream reports whether err came from talking to the backend.
func IsUpstream(err error) bool {
	var se *StatusError
	return errors.As(err, &se) || errors.Is(err, ErrTransport) || errors.Is(err, ErrDecode)
}

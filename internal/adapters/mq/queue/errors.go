package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrBackpressure = errors.New("prediction queue is full")
	ErrClosed       = errors.New("prediction queue is closed")
)

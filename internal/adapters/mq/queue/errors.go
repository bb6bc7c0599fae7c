package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrClosed = errors.New("snapshot queue closed")
)

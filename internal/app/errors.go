package service

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrNoStore indicates Start was called without a configured store.
	ErrNoStore = errors.New("no store configured")
)

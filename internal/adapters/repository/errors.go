package repository

import "errors"

// Sentinel kinds for store errors. These allow errors.Is/As from callers.
var (
	// ErrSiteNotFound means a referenced dive site id does not exist.
	ErrSiteNotFound = errors.New("dive site not found")

	// ErrDuplicateComparison means the actor has already voted on this
	// normalized pair. Reported before any write; safe to retry (the retry
	// fails the same way, never double-applies).
	ErrDuplicateComparison = errors.New("pair already compared by this actor")

	// ErrSameSite rejects a comparison of a site against itself.
	ErrSameSite = errors.New("winner and loser must be different sites")

	// ErrUnknownDriver rejects database drivers other than sqlite/postgres.
	ErrUnknownDriver = errors.New("unknown database driver")
)

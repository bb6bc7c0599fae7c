package matchup

import "errors"

// Sentinel kinds for matchmaking. Both are expected, recoverable signals
// surfaced to the end user, not server faults.
var (
	// ErrInsufficientCatalog means fewer than two sites exist, so no
	// comparison can be formed.
	ErrInsufficientCatalog = errors.New("catalog has fewer than two dive sites")

	// ErrAllMatchupsCompleted means the actor has voted on every distinct
	// pair in the catalog. Terminal for that actor until the catalog grows
	// or their history is reset.
	ErrAllMatchupsCompleted = errors.New("all matchups completed")
)

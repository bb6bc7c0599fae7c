package model

import "time"

// Comparison is one resolved vote: the winner gained PointsChanged rating
// points and the loser lost the same amount. Rows are append-only; the only
// deletion path is the per-actor history reset.
type Comparison struct {
	ID            int64     `json:"id"`
	WinnerID      int64     `json:"winner_id"`
	LoserID       int64     `json:"loser_id"`
	PointsChanged int       `json:"points_changed"`
	ActorID       *string   `json:"actor_id,omitempty"` // nil = anonymous
	CreatedAt     time.Time `json:"created_at"`
}

// RankSnapshot carries the ranks computed by one leaderboard
// materialization, to be persisted asynchronously as each site's
// previous rank.
type RankSnapshot struct {
	Ranks      map[int64]int
	ComputedAt time.Time
}

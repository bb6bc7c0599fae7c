// Package model contains domain models passed between layers.
package model

// DefaultRating is the rating assigned to a freshly seeded dive site.
const DefaultRating = 1500

// DiveSite is a ratable catalog entry. Rows are seeded once and mutated
// only by the comparison recorder (rating, wins, losses) and the rank
// snapshot writer (previous_rank, current_rank).
type DiveSite struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Region       string  `json:"region"`
	Rating       float64 `json:"rating"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	PreviousRank int     `json:"previous_rank"` // 0 = never ranked
	CurrentRank  int     `json:"current_rank"`  // 0 = never ranked
}

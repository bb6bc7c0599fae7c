// Package ranking derives the ordered leaderboard and per-site rank deltas
// from the catalog. Pure computation; persistence of the snapshot is the
// caller's concern.
package ranking

import (
	"sort"

	"github.com/marcreid1/diverank/internal/domain/model"
)

// Standing is one leaderboard row. RankChange is signed relative to the
// last materialized snapshot: positive means the site moved up.
type Standing struct {
	Site       model.DiveSite `json:"site"`
	Rank       int            `json:"rank"`
	RankChange int            `json:"rank_change"`
}

// Standings orders sites by rating descending (ties broken by id ascending
// for determinism) and computes each site's rank change against its stored
// previous rank. Sites with no prior rank report a change of zero.
func Standings(sites []model.DiveSite) []Standing {
	ordered := make([]model.DiveSite, len(sites))
	copy(ordered, sites)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Rating != ordered[j].Rating {
			return ordered[i].Rating > ordered[j].Rating
		}
		return ordered[i].ID < ordered[j].ID
	})

	standings := make([]Standing, len(ordered))
	for i, site := range ordered {
		rank := i + 1
		change := 0
		if site.PreviousRank != 0 {
			change = site.PreviousRank - rank
		}
		site.CurrentRank = rank
		standings[i] = Standing{Site: site, Rank: rank, RankChange: change}
	}
	return standings
}

// Snapshot extracts the site-id to rank mapping from standings, the payload
// persisted (best effort) as each site's previous rank for the next
// materialization.
func Snapshot(standings []Standing) map[int64]int {
	ranks := make(map[int64]int, len(standings))
	for _, st := range standings {
		ranks[st.Site.ID] = st.Rank
	}
	return ranks
}

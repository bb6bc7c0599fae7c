// Package repository defines the catalog/history store interface and its
// database/sql implementation.
package repository

import (
	"context"

	"github.com/marcreid1/diverank/internal/domain/model"
	"github.com/marcreid1/diverank/internal/domain/pair"
)

// Store provides read/write access to the dive-site catalog and the
// append-only comparison history. Methods taking a *string actor id treat
// nil as global scope (anonymous traffic).
type Store interface {
	// ListSites returns the full catalog ordered by id.
	ListSites(ctx context.Context) ([]model.DiveSite, error)

	// GetSite returns one site. Returns ErrSiteNotFound for unknown ids.
	GetSite(ctx context.Context, id int64) (model.DiveSite, error)

	// SeedSites inserts sites that do not exist yet. Existing rows are left
	// untouched, so seeding is idempotent across restarts.
	SeedSites(ctx context.Context, sites []model.DiveSite) error

	// RecordComparison resolves one vote atomically: duplicate check,
	// rating reads, history insert and both site updates commit together
	// or not at all. Returns ErrSameSite, ErrSiteNotFound or
	// ErrDuplicateComparison without writing anything.
	RecordComparison(ctx context.Context, winnerID, loserID int64, actorID *string) (model.Comparison, error)

	// CountVotedPairs returns the number of distinct normalized pairs with
	// recorded comparisons in the given scope.
	CountVotedPairs(ctx context.Context, actorID *string) (int, error)

	// ListVotedPairs returns the set of normalized pair keys with recorded
	// comparisons in the given scope.
	ListVotedPairs(ctx context.Context, actorID *string) (map[pair.Key]struct{}, error)

	// ListOpponents returns the ids of every site the given site has faced,
	// as winner or loser, in the given scope.
	ListOpponents(ctx context.Context, siteID int64, actorID *string) (map[int64]struct{}, error)

	// DeleteActorComparisons removes all of one actor's comparisons and
	// returns how many were deleted. Site ratings are not touched.
	DeleteActorComparisons(ctx context.Context, actorID string) (int64, error)

	// SaveRankSnapshot persists freshly computed ranks as each site's
	// previous (and current) rank for the next leaderboard materialization.
	SaveRankSnapshot(ctx context.Context, ranks map[int64]int) error

	// RebuildRatings resets every site to the initial rating and replays
	// the full comparison history in timestamp order, recomputing ratings
	// and win/loss counters in one exclusive transaction. Administrative;
	// returns the number of sites recomputed.
	RebuildRatings(ctx context.Context) (int, error)

	// CountComparisons returns the total number of recorded comparisons.
	CountComparisons(ctx context.Context) (int64, error)

	// Close releases the underlying database handle.
	Close() error
}

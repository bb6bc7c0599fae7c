// Package matchup selects the next pair of dive sites to present to a
// voter. It guarantees an identified actor is never shown the same
// unordered pair twice and detects when an actor has exhausted the catalog.
package matchup

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/marcreid1/diverank/internal/domain/model"
	"github.com/marcreid1/diverank/internal/domain/pair"
)

// Side identifies which slot of the presented matchup a site occupies.
type Side string

// Matchup slots.
const (
	SideA Side = "A"
	SideB Side = "B"
)

// Valid reports whether s is a recognized slot name.
func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

// Champion is the client-supplied "winner stays on" hint: the site that won
// the previous round and the slot it occupied. It is untrusted; eligibility
// is always recomputed from the authoritative history.
type Champion struct {
	SiteID int64
	Side   Side
}

// Matchup is the next pair to present. SiteA and SiteB are always distinct.
type Matchup struct {
	SiteA model.DiveSite `json:"site_a"`
	SiteB model.DiveSite `json:"site_b"`
}

// History is the read surface the selector needs from the comparison
// store. A nil actorID scopes queries globally (anonymous traffic);
// otherwise they are scoped to that actor's votes.
type History interface {
	// CountVotedPairs returns the number of distinct normalized pairs with
	// at least one recorded comparison in the given scope.
	CountVotedPairs(ctx context.Context, actorID *string) (int, error)

	// ListVotedPairs returns the set of normalized pair keys with at least
	// one recorded comparison in the given scope.
	ListVotedPairs(ctx context.Context, actorID *string) (map[pair.Key]struct{}, error)

	// ListOpponents returns the ids of every site the given site has faced
	// (as winner or loser) in the given scope.
	ListOpponents(ctx context.Context, siteID int64, actorID *string) (map[int64]struct{}, error)
}

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithRand sets the random source. Tests use a seeded source; production
// keeps the time-seeded default.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// Selector produces the next matchup for a caller. Safe for concurrent use.
type Selector struct {
	history History

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewSelector creates a Selector reading from history.
func NewSelector(history History, opts ...Option) *Selector {
	s := &Selector{
		history: history,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // matchup shuffling, not cryptography
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next returns the next pair to present.
//
// Identified actors (actorID != nil) get the strong guarantee: no pair is
// ever repeated, and once every pair has been voted the call fails with
// ErrAllMatchupsCompleted. Anonymous callers get the weaker global variant:
// pairs with zero global history are preferred, and when none remain the
// selector falls back to a uniformly random distinct pair rather than
// terminating.
//
// A champion hint keeps the previous winner on screen against a fresh
// challenger, preserving its recorded side. The hint is re-validated: an
// unknown site id is ignored, and a champion that has already faced every
// eligible opponent falls through to full enumeration.
func (s *Selector) Next(ctx context.Context, sites []model.DiveSite, actorID *string, champ *Champion) (Matchup, error) {
	if len(sites) < 2 {
		return Matchup{}, ErrInsufficientCatalog
	}

	if actorID != nil {
		voted, err := s.history.CountVotedPairs(ctx, actorID)
		if err != nil {
			return Matchup{}, fmt.Errorf("counting voted pairs: %w", err)
		}
		if voted >= pair.Total(len(sites)) {
			return Matchup{}, ErrAllMatchupsCompleted
		}
	}

	if champ != nil {
		if m, ok, err := s.nextForChampion(ctx, sites, actorID, *champ); err != nil {
			return Matchup{}, err
		} else if ok {
			return m, nil
		}
		// Champion has faced everyone (or the hint was bogus); fall through.
	}

	return s.nextFresh(ctx, sites, actorID)
}

// nextForChampion tries to pit the champion against an opponent it has not
// faced in the relevant scope. Returns ok=false when no such opponent
// exists or the hint does not match the catalog.
func (s *Selector) nextForChampion(ctx context.Context, sites []model.DiveSite, actorID *string, champ Champion) (Matchup, bool, error) {
	var champion *model.DiveSite
	for i := range sites {
		if sites[i].ID == champ.SiteID {
			champion = &sites[i]
			break
		}
	}
	if champion == nil || !champ.Side.Valid() {
		return Matchup{}, false, nil
	}

	faced, err := s.history.ListOpponents(ctx, champ.SiteID, actorID)
	if err != nil {
		return Matchup{}, false, fmt.Errorf("listing opponents of site %d: %w", champ.SiteID, err)
	}

	var candidates []model.DiveSite
	for _, site := range sites {
		if site.ID == champ.SiteID {
			continue
		}
		if _, seen := faced[site.ID]; seen {
			continue
		}
		candidates = append(candidates, site)
	}
	if len(candidates) == 0 {
		return Matchup{}, false, nil
	}

	challenger := candidates[s.intn(len(candidates))]
	if champ.Side == SideA {
		return Matchup{SiteA: *champion, SiteB: challenger}, true, nil
	}
	return Matchup{SiteA: challenger, SiteB: *champion}, true, nil
}

// nextFresh enumerates every unordered pair without a vote in the relevant
// scope and picks one uniformly. Identified actors hitting an empty
// enumeration get ErrAllMatchupsCompleted; anonymous callers fall back to a
// random distinct pair, since global history is unbounded and there is no
// identity to track completion against.
func (s *Selector) nextFresh(ctx context.Context, sites []model.DiveSite, actorID *string) (Matchup, error) {
	voted, err := s.history.ListVotedPairs(ctx, actorID)
	if err != nil {
		return Matchup{}, fmt.Errorf("listing voted pairs: %w", err)
	}

	var fresh []Matchup
	for i := 0; i < len(sites); i++ {
		for j := i + 1; j < len(sites); j++ {
			if _, seen := voted[pair.NewKey(sites[i].ID, sites[j].ID)]; seen {
				continue
			}
			fresh = append(fresh, Matchup{SiteA: sites[i], SiteB: sites[j]})
		}
	}

	if len(fresh) == 0 {
		if actorID != nil {
			return Matchup{}, ErrAllMatchupsCompleted
		}
		return s.randomPair(sites), nil
	}

	m := fresh[s.intn(len(fresh))]
	if s.intn(2) == 1 {
		m.SiteA, m.SiteB = m.SiteB, m.SiteA
	}
	return m, nil
}

// randomPair returns two distinct sites chosen uniformly at random.
func (s *Selector) randomPair(sites []model.DiveSite) Matchup {
	i := s.intn(len(sites))
	j := s.intn(len(sites) - 1)
	if j >= i {
		j++
	}
	return Matchup{SiteA: sites[i], SiteB: sites[j]}
}

func (s *Selector) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

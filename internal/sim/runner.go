// Package sim drives a running service with concurrent simulated voters
// and verifies the resulting leaderboard. Each actor votes with the
// "winner stays on" flow the UI uses: the previous winner is carried as a
// champion hint into the next matchup request.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/marcreid1/diverank/pkg/logger"
)

// Run executes the simulation and verifies the final rankings.
func Run(ctx context.Context, cfg *Config) error {
	log := logger.Get().Named("sim")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting simulation",
		logger.Int("actors", cfg.Actors),
		logger.Int("votesPerActor", cfg.VotesPerActor),
		logger.Int("workers", cfg.Workers),
		logger.String("baseURL", cfg.BaseURL),
	)

	c := newClient(cfg.BaseURL, cfg.Timeout)

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > cfg.Actors {
		workers = cfg.Actors
	}

	actorCh := make(chan string, cfg.Actors)
	for i := 0; i < cfg.Actors; i++ {
		actorCh <- uuid.New().String()
	}
	close(actorCh)

	var wg sync.WaitGroup
	var firstErr atomic.Value
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // simulated voter choice, not cryptography
			for actor := range actorCh {
				if ctx.Err() != nil {
					return
				}
				if err := runActor(ctx, cfg, c, rng, actor, stats); err != nil {
					firstErr.CompareAndSwap(nil, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if err, ok := firstErr.Load().(error); ok && err != nil {
		return err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	log.Info(ctx, "simulation finished",
		logger.Int64("attempted", stats.VotesAttempted),
		logger.Int64("recorded", stats.VotesRecorded),
		logger.Int64("duplicate", stats.VotesDuplicate),
		logger.Int64("failed", stats.VotesFailed),
		logger.Int64("exhausted", stats.ActorsExhausted),
		logger.Int64("tookMs", stats.Duration.Milliseconds()),
	)

	return verifyRankings(ctx, c, stats)
}

// runActor votes until the budget is spent or the catalog is exhausted.
// The winner of each round is carried forward as the champion hint.
func runActor(ctx context.Context, cfg *Config, c *client, rng *rand.Rand, actor string, stats *Stats) error {
	var champ *champion

	for round := 0; cfg.VotesPerActor == 0 || round < cfg.VotesPerActor; round++ {
		if ctx.Err() != nil {
			return nil
		}

		mp, exhausted, err := c.getMatchup(ctx, actor, champ)
		if err != nil {
			atomic.AddInt64(&stats.VotesFailed, 1)
			return fmt.Errorf("actor %s round %d: %w", actor, round, err)
		}
		if exhausted {
			atomic.AddInt64(&stats.ActorsExhausted, 1)
			return nil
		}

		a, b := mp.Matchup.SiteA, mp.Matchup.SiteB
		winner, loser := a, b
		side := "A"
		// Favor the higher-rated site so the simulation converges instead
		// of producing noise, with enough upsets to move ratings around.
		higherWins := rng.Float64() < 0.75
		if (b.Rating > a.Rating) == higherWins {
			winner, loser = b, a
			side = "B"
		}

		atomic.AddInt64(&stats.VotesAttempted, 1)
		duplicate, err := c.postComparison(ctx, winner.ID, loser.ID, actor)
		if err != nil {
			atomic.AddInt64(&stats.VotesFailed, 1)
			return fmt.Errorf("actor %s round %d: %w", actor, round, err)
		}
		if duplicate {
			// Lost a race against our own earlier request; move on without
			// a champion so the next matchup is fresh.
			atomic.AddInt64(&stats.VotesDuplicate, 1)
			champ = nil
			continue
		}

		atomic.AddInt64(&stats.VotesRecorded, 1)
		champ = &champion{siteID: winner.ID, side: side}
	}
	return nil
}

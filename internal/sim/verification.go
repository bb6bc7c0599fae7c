package sim

import (
	"context"
	"fmt"

	"github.com/marcreid1/diverank/pkg/logger"
)

// verifyRankings fetches the final leaderboard and checks its invariants:
// ranks are contiguous from 1 and ratings never increase down the list.
func verifyRankings(ctx context.Context, c *client, stats *Stats) error {
	log := logger.Get().Named("sim")

	standings, err := c.getRankings(ctx)
	if err != nil {
		return err
	}
	if len(standings) == 0 {
		return fmt.Errorf("rankings came back empty")
	}

	for i, s := range standings {
		if s.Rank != i+1 {
			return fmt.Errorf("rank gap at position %d: got rank %d", i, s.Rank)
		}
		if i > 0 && s.Site.Rating > standings[i-1].Site.Rating {
			return fmt.Errorf("rating order violated at rank %d: %.1f above %.1f",
				s.Rank, s.Site.Rating, standings[i-1].Site.Rating)
		}
	}

	top := standings[0]
	log.Info(ctx, "rankings verified",
		logger.Int("sites", len(standings)),
		logger.String("topSite", top.Site.Name),
		logger.Float64("topRating", top.Site.Rating),
		logger.Int64("votesRecorded", stats.VotesRecorded),
	)
	return nil
}

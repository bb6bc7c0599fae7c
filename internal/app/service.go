// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	snapshotqueue "github.com/marcreid1/diverank/internal/adapters/mq/queue"
	workerpool "github.com/marcreid1/diverank/internal/adapters/mq/worker"
	repository "github.com/marcreid1/diverank/internal/adapters/repository"
	"github.com/marcreid1/diverank/internal/domain/dedupe"
	"github.com/marcreid1/diverank/internal/domain/matchup"
	"github.com/marcreid1/diverank/internal/domain/model"
	"github.com/marcreid1/diverank/internal/domain/pair"
	"github.com/marcreid1/diverank/internal/domain/ranking"
	"github.com/marcreid1/diverank/pkg/logger"
	"github.com/marcreid1/diverank/pkg/metrics"
)

// Service implements the API dependencies for the dive-site ranking system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store         repository.Store
	selector      *matchup.Selector
	deduper       dedupe.Deduper
	snapshotQueue *snapshotqueue.InMemoryQueue
	workerPool    *workerpool.Pool

	// Configuration
	dedupeSize  int
	queueSize   int
	workerCount int

	// rebuildMu serializes administrative rating rebuilds.
	rebuildMu sync.Mutex

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the comparison store backing the service.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDedupeSize sets the size of the duplicate-vote cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithSnapshotQueueSize sets the capacity of the rank snapshot queue.
func WithSnapshotQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithSnapshotWorkers sets the number of snapshot persistence workers.
func WithSnapshotWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration. A store must be
// supplied via WithStore before Start is called.
func New(opts ...Option) *Service {
	s := &Service{
		dedupeSize:  50_000,
		queueSize:   256,
		workerCount: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.store == nil {
		return ErrNoStore
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting ranking service...")

	s.selector = matchup.NewSelector(s.store)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.snapshotQueue = snapshotqueue.NewInMemoryQueue(
		snapshotqueue.WithCapacity(s.queueSize),
	)

	s.workerPool = workerpool.NewPool(s.workerCount, s.snapshotQueue, s.store)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.Int("snapshotWorkers", s.workerCount),
		logger.Int("snapshotQueueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping ranking service...")

	// No further snapshots; workers drain what is already queued.
	if s.snapshotQueue != nil {
		_ = s.snapshotQueue.Close()
	}
	if s.workerPool != nil {
		s.workerPool.Stop(5 * time.Second)
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "ranking service stopped")
}

// SelectMatchup returns the next pair of sites for the given actor. A nil
// actorID selects from global history; champ optionally keeps the previous
// winner on screen.
func (s *Service) SelectMatchup(ctx context.Context, actorID *string, champ *matchup.Champion) (matchup.Matchup, error) {
	sites, err := s.store.ListSites(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("service", "list_sites")
		return matchup.Matchup{}, fmt.Errorf("loading catalog: %w", err)
	}
	metrics.UpdateCatalogSize(len(sites))

	m, err := s.selector.Next(ctx, sites, actorID, champ)
	if err != nil {
		if errors.Is(err, matchup.ErrAllMatchupsCompleted) {
			metrics.RecordMatchupExhausted()
		}
		return matchup.Matchup{}, err
	}

	mode := "fresh"
	if champ != nil {
		mode = "champion"
	}
	metrics.RecordMatchupServed(mode)
	return m, nil
}

// RecordComparison resolves one vote: winnerID beat loserID in the given
// actor scope. Identified actors hit the in-memory duplicate cache first;
// the store's transactional unique check remains the authority either way.
func (s *Service) RecordComparison(ctx context.Context, winnerID, loserID int64, actorID *string) (model.Comparison, error) {
	if winnerID == loserID {
		return model.Comparison{}, repository.ErrSameSite
	}

	var voteKey string
	if actorID != nil {
		voteKey = dedupe.VoteKey(*actorID, string(pair.NewKey(winnerID, loserID)))
		if s.deduper.SeenAndRecord(ctx, voteKey) {
			metrics.RecordComparisonDuplicate()
			return model.Comparison{}, repository.ErrDuplicateComparison
		}
	}

	comparison, err := s.store.RecordComparison(ctx, winnerID, loserID, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateComparison) {
			metrics.RecordComparisonDuplicate()
		} else if voteKey != "" {
			// The vote did not commit, so the pair stays votable.
			s.deduper.Unrecord(ctx, voteKey)
		}
		return model.Comparison{}, err
	}

	metrics.RecordComparisonRecorded()
	metrics.RecordRatingDelta(float64(comparison.PointsChanged))
	metrics.UpdateDedupeSize(s.deduper.Size())

	s.logger.Debug(ctx, "comparison recorded",
		logger.Int64("winnerID", winnerID),
		logger.Int64("loserID", loserID),
		logger.Int("pointsChanged", comparison.PointsChanged),
	)
	return comparison, nil
}

// Rankings returns the leaderboard ordered by rating, each entry carrying
// its movement since the previous materialization. The freshly computed
// ranks are queued for background persistence so the next call has a
// baseline to diff against; a full queue skips the snapshot rather than
// delaying the response.
func (s *Service) Rankings(ctx context.Context) ([]ranking.Standing, error) {
	sites, err := s.store.ListSites(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("service", "list_sites")
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	standings := ranking.Standings(sites)

	snap := snapshotqueue.Snapshot{
		Ranks:      ranking.Snapshot(standings),
		ComputedAt: time.Now().UTC(),
	}
	if !s.snapshotQueue.Enqueue(ctx, snap) {
		s.logger.Warn(ctx, "rank snapshot dropped, queue full or closed",
			logger.Int("queueLen", s.snapshotQueue.Len(ctx)),
		)
	}

	metrics.RecordRankingsServed()
	return standings, nil
}

// ResetHistory deletes all of one actor's comparisons and returns how many
// were removed. Ratings are not touched; RebuildRatings recomputes them
// from the surviving history when that is wanted.
func (s *Service) ResetHistory(ctx context.Context, actorID string) (int64, error) {
	deleted, err := s.store.DeleteActorComparisons(ctx, actorID)
	if err != nil {
		metrics.RecordErrorByComponent("service", "reset_history")
		return 0, fmt.Errorf("deleting comparisons of actor %q: %w", actorID, err)
	}

	// The actor's pairs are votable again.
	s.deduper.ForgetPrefix(ctx, dedupe.ActorPrefix(actorID))
	metrics.UpdateDedupeSize(s.deduper.Size())

	s.logger.Info(ctx, "actor history reset",
		logger.String("actorID", actorID),
		logger.Int64("deleted", deleted),
	)
	return deleted, nil
}

// RebuildRatings replays the full comparison history from scratch and
// returns the number of sites recomputed. Only one rebuild runs at a time.
func (s *Service) RebuildRatings(ctx context.Context) (int, error) {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	start := time.Now()
	n, err := s.store.RebuildRatings(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("service", "rebuild_ratings")
		return 0, fmt.Errorf("rebuilding ratings: %w", err)
	}

	s.logger.Info(ctx, "ratings rebuilt",
		logger.Int("sites", n),
		logger.Int64("tookMs", time.Since(start).Milliseconds()),
	)
	return n, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":           s.started,
		"snapshotWorkers":   s.workerCount,
		"snapshotQueueSize": s.queueSize,
		"dedupeSize":        s.dedupeSize,
	}

	if s.started {
		stats["snapshotQueueLen"] = s.snapshotQueue.Len(ctx)
		stats["dedupeEntries"] = s.deduper.Size()

		if sites, err := s.store.ListSites(ctx); err == nil {
			stats["catalogSize"] = len(sites)
			metrics.UpdateCatalogSize(len(sites))
		}
		if n, err := s.store.CountComparisons(ctx); err == nil {
			stats["comparisonsTotal"] = n
			metrics.UpdateComparisonsTotal(n)
		}
		metrics.UpdateSnapshotQueueSize(s.snapshotQueue.Len(ctx))
		metrics.UpdateDedupeSize(s.deduper.Size())
	}

	return stats
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marcreid1/diverank/internal/domain/model"
	"github.com/marcreid1/diverank/internal/domain/pair"
	"github.com/marcreid1/diverank/internal/domain/rating"
	"github.com/marcreid1/diverank/pkg/metrics"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver (cgo-free)
)

// Supported driver names for Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithKFactor sets the ELO K-factor used when recording comparisons.
func WithKFactor(k int) Option {
	return func(s *SQLStore) {
		if k > 0 {
			s.kFactor = k
		}
	}
}

// WithInitialRating sets the rating assigned to seeded sites and used as
// the reset baseline by RebuildRatings.
func WithInitialRating(r float64) Option {
	return func(s *SQLStore) {
		if r > 0 {
			s.initialRating = r
		}
	}
}

// SQLStore implements Store on database/sql, against sqlite (default,
// modernc.org/sqlite) or postgres (lib/pq). All multi-row mutations run
// inside transactions; the partial unique index on (actor_id, pair_key)
// arbitrates concurrent duplicate votes.
type SQLStore struct {
	db            *sql.DB
	driver        string
	kFactor       int
	initialRating float64
	// lockClause appends row locking on rating reads where the engine
	// supports it. SQLite serializes through a single connection instead.
	lockClause string
}

// Open connects to the database, applies the schema and returns the store.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	s := &SQLStore{
		driver:        driver,
		kFactor:       rating.DefaultKFactor,
		initialRating: model.DefaultRating,
	}
	for _, opt := range opts {
		opt(s)
	}

	var schema string
	switch driver {
	case DriverSQLite:
		schema = sqliteSchema
	case DriverPostgres:
		schema = postgresSchema
		s.lockClause = " FOR UPDATE"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One connection: serializes writers and keeps :memory: databases
		// coherent across the pool.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging %s database: %w", driver, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s.db = db
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

const siteColumns = "id, name, region, rating, wins, losses, previous_rank, current_rank"

func scanSite(row interface{ Scan(...any) error }) (model.DiveSite, error) {
	var site model.DiveSite
	err := row.Scan(&site.ID, &site.Name, &site.Region, &site.Rating,
		&site.Wins, &site.Losses, &site.PreviousRank, &site.CurrentRank)
	return site, err
}

// ListSites returns the full catalog ordered by id.
func (s *SQLStore) ListSites(ctx context.Context) ([]model.DiveSite, error) {
	defer s.observeQuery(time.Now())

	rows, err := s.db.QueryContext(ctx, "SELECT "+siteColumns+" FROM dive_site ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing sites: %w", err)
	}
	defer rows.Close()

	var sites []model.DiveSite
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning site: %w", err)
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing sites: %w", err)
	}
	return sites, nil
}

// GetSite returns one site by id.
func (s *SQLStore) GetSite(ctx context.Context, id int64) (model.DiveSite, error) {
	defer s.observeQuery(time.Now())

	site, err := scanSite(s.db.QueryRowContext(ctx,
		"SELECT "+siteColumns+" FROM dive_site WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.DiveSite{}, fmt.Errorf("site %d: %w", id, ErrSiteNotFound)
	}
	if err != nil {
		return model.DiveSite{}, fmt.Errorf("loading site %d: %w", id, err)
	}
	return site, nil
}

// SeedSites inserts missing catalog rows; existing ids are left untouched.
func (s *SQLStore) SeedSites(ctx context.Context, sites []model.DiveSite) error {
	defer s.observeUpdate(time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, site := range sites {
		r := site.Rating
		if r == 0 {
			r = s.initialRating
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO dive_site (id, name, region, rating, wins, losses, previous_rank, current_rank)
			VALUES ($1, $2, $3, $4, 0, 0, 0, 0)
			ON CONFLICT (id) DO NOTHING
		`, site.ID, site.Name, site.Region, r); err != nil {
			return fmt.Errorf("seeding site %d: %w", site.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed: %w", err)
	}
	return nil
}

// RecordComparison resolves one vote. The duplicate check, rating reads,
// history insert and both site updates are a single transaction, so
// concurrent submissions of the same pair by the same actor yield exactly
// one success; the unique index catches the race the pre-check cannot see.
func (s *SQLStore) RecordComparison(ctx context.Context, winnerID, loserID int64, actorID *string) (model.Comparison, error) {
	if winnerID == loserID {
		return model.Comparison{}, ErrSameSite
	}
	defer s.observeUpdate(time.Now())

	key := pair.NewKey(winnerID, loserID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Comparison{}, fmt.Errorf("beginning comparison transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if actorID != nil {
		var seen bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM comparison WHERE actor_id = $1 AND pair_key = $2)",
			*actorID, string(key)).Scan(&seen); err != nil {
			return model.Comparison{}, fmt.Errorf("checking for duplicate vote: %w", err)
		}
		if seen {
			return model.Comparison{}, ErrDuplicateComparison
		}
	}

	winnerRating, err := s.ratingInTx(ctx, tx, winnerID)
	if err != nil {
		return model.Comparison{}, err
	}
	loserRating, err := s.ratingInTx(ctx, tx, loserID)
	if err != nil {
		return model.Comparison{}, err
	}

	delta := rating.DeltaK(winnerRating, loserRating, s.kFactor)
	now := time.Now().UTC()

	cmp := model.Comparison{
		WinnerID:      winnerID,
		LoserID:       loserID,
		PointsChanged: delta,
		ActorID:       actorID,
		CreatedAt:     now,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO comparison (winner_id, loser_id, points_changed, actor_id, pair_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, winnerID, loserID, delta, actorID, string(key), now).Scan(&cmp.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Comparison{}, ErrDuplicateComparison
		}
		return model.Comparison{}, fmt.Errorf("inserting comparison: %w", err)
	}

	newWinner, newLoser := rating.Apply(winnerRating, loserRating, delta)
	if _, err := tx.ExecContext(ctx,
		"UPDATE dive_site SET rating = $1, wins = wins + 1 WHERE id = $2",
		newWinner, winnerID); err != nil {
		return model.Comparison{}, fmt.Errorf("updating winner %d: %w", winnerID, err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE dive_site SET rating = $1, losses = losses + 1 WHERE id = $2",
		newLoser, loserID); err != nil {
		return model.Comparison{}, fmt.Errorf("updating loser %d: %w", loserID, err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return model.Comparison{}, ErrDuplicateComparison
		}
		return model.Comparison{}, fmt.Errorf("committing comparison: %w", err)
	}
	return cmp, nil
}

// ratingInTx reads a site's current rating inside the recording
// transaction, locking the row where the engine supports it, so concurrent
// comparisons touching the same site never work from stale ratings.
func (s *SQLStore) ratingInTx(ctx context.Context, tx *sql.Tx, id int64) (float64, error) {
	var r float64
	err := tx.QueryRowContext(ctx,
		"SELECT rating FROM dive_site WHERE id = $1"+s.lockClause, id).Scan(&r)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("site %d: %w", id, ErrSiteNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("loading rating of site %d: %w", id, err)
	}
	return r, nil
}

// CountVotedPairs counts distinct normalized pairs in the given scope.
func (s *SQLStore) CountVotedPairs(ctx context.Context, actorID *string) (int, error) {
	defer s.observeQuery(time.Now())

	var (
		n   int
		err error
	)
	if actorID != nil {
		err = s.db.QueryRowContext(ctx,
			"SELECT COUNT(DISTINCT pair_key) FROM comparison WHERE actor_id = $1", *actorID).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx,
			"SELECT COUNT(DISTINCT pair_key) FROM comparison").Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("counting voted pairs: %w", err)
	}
	return n, nil
}

// ListVotedPairs returns the distinct normalized pair keys in the given scope.
func (s *SQLStore) ListVotedPairs(ctx context.Context, actorID *string) (map[pair.Key]struct{}, error) {
	defer s.observeQuery(time.Now())

	var (
		rows *sql.Rows
		err  error
	)
	if actorID != nil {
		rows, err = s.db.QueryContext(ctx,
			"SELECT DISTINCT pair_key FROM comparison WHERE actor_id = $1", *actorID)
	} else {
		rows, err = s.db.QueryContext(ctx, "SELECT DISTINCT pair_key FROM comparison")
	}
	if err != nil {
		return nil, fmt.Errorf("listing voted pairs: %w", err)
	}
	defer rows.Close()

	voted := make(map[pair.Key]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning pair key: %w", err)
		}
		voted[pair.Key(key)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing voted pairs: %w", err)
	}
	return voted, nil
}

// ListOpponents returns every site the given site has faced in the scope.
func (s *SQLStore) ListOpponents(ctx context.Context, siteID int64, actorID *string) (map[int64]struct{}, error) {
	defer s.observeQuery(time.Now())

	query := "SELECT winner_id, loser_id FROM comparison WHERE (winner_id = $1 OR loser_id = $1)"
	args := []any{siteID}
	if actorID != nil {
		query += " AND actor_id = $2"
		args = append(args, *actorID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing opponents of site %d: %w", siteID, err)
	}
	defer rows.Close()

	faced := make(map[int64]struct{})
	for rows.Next() {
		var winnerID, loserID int64
		if err := rows.Scan(&winnerID, &loserID); err != nil {
			return nil, fmt.Errorf("scanning comparison: %w", err)
		}
		if winnerID == siteID {
			faced[loserID] = struct{}{}
		} else {
			faced[winnerID] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing opponents of site %d: %w", siteID, err)
	}
	return faced, nil
}

// DeleteActorComparisons removes all of one actor's history rows.
func (s *SQLStore) DeleteActorComparisons(ctx context.Context, actorID string) (int64, error) {
	defer s.observeUpdate(time.Now())

	res, err := s.db.ExecContext(ctx, "DELETE FROM comparison WHERE actor_id = $1", actorID)
	if err != nil {
		return 0, fmt.Errorf("deleting comparisons of actor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted comparisons: %w", err)
	}
	return n, nil
}

// SaveRankSnapshot writes computed ranks into previous_rank/current_rank.
// Loses gracefully in races; the snapshot only feeds a cosmetic delta.
func (s *SQLStore) SaveRankSnapshot(ctx context.Context, ranks map[int64]int) error {
	defer s.observeUpdate(time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for id, rank := range ranks {
		if _, err := tx.ExecContext(ctx,
			"UPDATE dive_site SET previous_rank = $1, current_rank = $1 WHERE id = $2",
			rank, id); err != nil {
			return fmt.Errorf("saving rank of site %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// RebuildRatings resets every site and replays the whole history in
// timestamp order. One transaction, so live recorders either see the old
// state or the fully rebuilt one. Comparison rows themselves are
// immutable and keep their originally applied point values.
func (s *SQLStore) RebuildRatings(ctx context.Context) (int, error) {
	defer s.observeUpdate(time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning rebuild transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		"SELECT winner_id, loser_id FROM comparison ORDER BY created_at, id")
	if err != nil {
		return 0, fmt.Errorf("loading comparison history: %w", err)
	}
	type outcome struct{ winner, loser int64 }
	var history []outcome
	for rows.Next() {
		var o outcome
		if err := rows.Scan(&o.winner, &o.loser); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning comparison: %w", err)
		}
		history = append(history, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("loading comparison history: %w", err)
	}
	rows.Close()

	ids, err := tx.QueryContext(ctx, "SELECT id FROM dive_site")
	if err != nil {
		return 0, fmt.Errorf("loading site ids: %w", err)
	}
	ratings := make(map[int64]float64)
	wins := make(map[int64]int)
	losses := make(map[int64]int)
	for ids.Next() {
		var id int64
		if err := ids.Scan(&id); err != nil {
			ids.Close()
			return 0, fmt.Errorf("scanning site id: %w", err)
		}
		ratings[id] = s.initialRating
	}
	if err := ids.Err(); err != nil {
		ids.Close()
		return 0, fmt.Errorf("loading site ids: %w", err)
	}
	ids.Close()

	for _, o := range history {
		w, okW := ratings[o.winner]
		l, okL := ratings[o.loser]
		if !okW || !okL {
			// Orphaned row referencing a removed site; skip it.
			continue
		}
		delta := rating.DeltaK(w, l, s.kFactor)
		ratings[o.winner], ratings[o.loser] = rating.Apply(w, l, delta)
		wins[o.winner]++
		losses[o.loser]++
	}

	for id, r := range ratings {
		if _, err := tx.ExecContext(ctx,
			"UPDATE dive_site SET rating = $1, wins = $2, losses = $3 WHERE id = $4",
			r, wins[id], losses[id], id); err != nil {
			return 0, fmt.Errorf("rewriting site %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(ratings), nil
}

// CountComparisons returns the total number of recorded comparisons.
func (s *SQLStore) CountComparisons(ctx context.Context) (int64, error) {
	defer s.observeQuery(time.Now())

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comparison").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting comparisons: %w", err)
	}
	return n, nil
}

func (s *SQLStore) observeQuery(start time.Time) {
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
}

func (s *SQLStore) observeUpdate(start time.Time) {
	metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
}

// isUniqueViolation detects a duplicate-vote constraint failure in either
// engine's phrasing.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

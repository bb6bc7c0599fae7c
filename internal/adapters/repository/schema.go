package repository

// Per-driver schema DDL. Safe to run repeatedly (IF NOT EXISTS throughout).
// The partial unique index on (actor_id, pair_key) is the arbiter for
// duplicate votes by identified actors; NULL actor rows never collide, so
// anonymous traffic may repeat pairs.

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS dive_site (
    id            INTEGER PRIMARY KEY,
    name          TEXT NOT NULL,
    region        TEXT NOT NULL DEFAULT '',
    rating        REAL NOT NULL DEFAULT 1500,
    wins          INTEGER NOT NULL DEFAULT 0,
    losses        INTEGER NOT NULL DEFAULT 0,
    previous_rank INTEGER NOT NULL DEFAULT 0,
    current_rank  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS comparison (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    winner_id      INTEGER NOT NULL REFERENCES dive_site(id),
    loser_id       INTEGER NOT NULL REFERENCES dive_site(id),
    points_changed INTEGER NOT NULL,
    actor_id       TEXT,
    pair_key       TEXT NOT NULL,
    created_at     TIMESTAMP NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_comparison_actor_pair
    ON comparison(actor_id, pair_key) WHERE actor_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_comparison_pair ON comparison(pair_key);
CREATE INDEX IF NOT EXISTS idx_comparison_winner ON comparison(winner_id);
CREATE INDEX IF NOT EXISTS idx_comparison_loser ON comparison(loser_id);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS dive_site (
    id            BIGINT PRIMARY KEY,
    name          TEXT NOT NULL,
    region        TEXT NOT NULL DEFAULT '',
    rating        DOUBLE PRECISION NOT NULL DEFAULT 1500,
    wins          INTEGER NOT NULL DEFAULT 0,
    losses        INTEGER NOT NULL DEFAULT 0,
    previous_rank INTEGER NOT NULL DEFAULT 0,
    current_rank  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS comparison (
    id             BIGSERIAL PRIMARY KEY,
    winner_id      BIGINT NOT NULL REFERENCES dive_site(id),
    loser_id       BIGINT NOT NULL REFERENCES dive_site(id),
    points_changed INTEGER NOT NULL,
    actor_id       TEXT,
    pair_key       TEXT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_comparison_actor_pair
    ON comparison(actor_id, pair_key) WHERE actor_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_comparison_pair ON comparison(pair_key);
CREATE INDEX IF NOT EXISTS idx_comparison_winner ON comparison(winner_id);
CREATE INDEX IF NOT EXISTS idx_comparison_loser ON comparison(loser_id);
`

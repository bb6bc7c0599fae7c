// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file, and env vars on top.
// - External errors must be wrapped via this package's error helpers.
package config

// SiteSeed describes a dive site inserted into the catalog at startup when
// it does not already exist.
type SiteSeed struct {
	ID     int64  `koanf:"id"`
	Name   string `koanf:"name"`
	Region string `koanf:"region"`
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseDriver selects the storage backend: sqlite or postgres.
	DatabaseDriver string `koanf:"database_driver"`

	// DatabaseURL is the DSN passed to the selected driver.
	DatabaseURL string `koanf:"database_url"`

	// KFactor sets the Elo K-factor applied to every comparison.
	KFactor int `koanf:"k_factor"`

	// InitialRating is assigned to newly seeded dive sites.
	InitialRating float64 `koanf:"initial_rating"`

	// DedupeSize sets the size of the duplicate-vote cache.
	DedupeSize int `koanf:"dedupe_size"`

	// SnapshotQueueSize bounds the in-memory rank snapshot queue.
	SnapshotQueueSize int `koanf:"snapshot_queue_size"`

	// SnapshotWorkers sets the number of snapshot persistence workers.
	SnapshotWorkers int `koanf:"snapshot_workers"`

	// SeedSites are inserted into the catalog on startup if missing.
	SeedSites []SiteSeed `koanf:"seed_sites"`
}

// New creates a Config populated with defaults. The default catalog covers
// well-known Thai dive sites so a fresh instance is usable immediately.
func New() *Config {
	c := &Config{
		LogLevel:          "info",
		Addr:              ":8080",
		DatabaseDriver:    "sqlite",
		DatabaseURL:       "file:diverank.db",
		KFactor:           32,
		InitialRating:     1500,
		DedupeSize:        50_000,
		SnapshotQueueSize: 256,
		SnapshotWorkers:   1,
		SeedSites: []SiteSeed{
			{ID: 1, Name: "Richelieu Rock", Region: "Surin Islands"},
			{ID: 2, Name: "Chumphon Pinnacle", Region: "Koh Tao"},
			{ID: 3, Name: "Elephant Head Rock", Region: "Similan Islands"},
			{ID: 4, Name: "Hin Daeng", Region: "Koh Lanta"},
			{ID: 5, Name: "Bida Nok", Region: "Koh Phi Phi"},
			{ID: 6, Name: "Sail Rock", Region: "Koh Phangan"},
			{ID: 7, Name: "8 Mile Rock", Region: "Koh Lipe"},
			{ID: 8, Name: "Anemone Reef", Region: "Phuket"},
			{ID: 9, Name: "King Cruiser Wreck", Region: "Phuket"},
			{ID: 10, Name: "Stonehenge", Region: "Koh Lipe"},
		},
	}
	return c
}

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if DIVERANK_CONFIG is set
//  3. env (prefix DIVERANK_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("DIVERANK_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: DIVERANK_ADDR, DIVERANK_K_FACTOR, ...
	// Map env keys like DIVERANK_K_FACTOR -> k_factor (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("DIVERANK_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "diverank_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: database_url must not be empty", ErrInvalidConfig)
	}
	if c.KFactor <= 0 {
		return fmt.Errorf("%w: k_factor must be positive", ErrInvalidConfig)
	}
	if c.InitialRating <= 0 {
		return fmt.Errorf("%w: initial_rating must be positive", ErrInvalidConfig)
	}
	return nil
}

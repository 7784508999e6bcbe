package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "LINEUP_"
	envConfig  = "LINEUP_CONFIG"
	weightsKey = "skill_weights"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if LINEUP_CONFIG is set
//  3. env (prefix LINEUP_)
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// LINEUP_QUEUE_SIZE -> queue_size; keys are flat so underscores stay.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	// The config file path is not a config key.
	k.Delete("config")

	cfg := New()
	// A configured weight table replaces the default one instead of merging.
	if k.Exists(weightsKey) {
		cfg.SkillWeights = nil
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
	}
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case len(c.SkillWeights) == 0:
		return invalid("skill_weights must not be empty")
	case c.RatingMin > c.RatingMax:
		return invalid("rating_min %d above rating_max %d", c.RatingMin, c.RatingMax)
	case c.CacheSize < 0 || c.CacheTTLSeconds < 0:
		return invalid("cache_size and cache_ttl_seconds must not be negative")
	case c.CacheScope != "process" && c.CacheScope != "request":
		return invalid("cache_scope %q must be process or request", c.CacheScope)
	case c.Tolerance < 0 || math.IsNaN(c.Tolerance):
		return invalid("tolerance must not be negative")
	case c.MaxRelaxCycles < 0:
		return invalid("max_relax_cycles must not be negative")
	case c.RelaxStep <= 0:
		return invalid("relax_step must be positive")
	case c.OddPoolScale <= 0:
		return invalid("odd_pool_scale must be positive")
	case c.MaxCandidates <= 0:
		return invalid("max_candidates must be positive")
	case c.AnchorBudget < 0 || c.SearchTimeoutMS < 0:
		return invalid("anchor_budget and search_timeout_ms must not be negative")
	}
	for skill, w := range c.SkillWeights {
		if strings.TrimSpace(skill) == "" || w <= 0 {
			return invalid("skill weight %q=%d must be a named positive integer", skill, w)
		}
	}
	switch strings.ToLower(c.StoreDriver) {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return invalid("sqlite_path is required for the sqlite store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return invalid("database_url is required for the postgres store")
		}
	default:
		return invalid("unknown store_driver %q", c.StoreDriver)
	}
	return nil
}

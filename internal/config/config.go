// Package config defines service configuration and its loading.
//
// Conventions:
// - New() returns the defaults; Load layers file and env on top of them.
// - Every key is flat and snake_case so env vars map onto it directly.
// - Errors are wrapped with ErrInvalidConfig or ErrLoadConfig.
package config

import (
	"runtime"
	"time"
)

// Store drivers accepted by StoreDriver.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the vote store: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`
	SQLitePath  string `koanf:"sqlite_path"`
	DatabaseURL string `koanf:"database_url"`

	// NATSURL enables event publishing when set.
	NATSURL string `koanf:"nats_url"`
	// OTelEndpoint enables trace export when set.
	OTelEndpoint string `koanf:"otel_endpoint"`

	// SkillWeights maps each rated skill to its integer weight.
	SkillWeights map[string]int `koanf:"skill_weights"`
	// DefaultRating is the score of a skill without votes.
	DefaultRating float64 `koanf:"default_rating"`
	RatingMin     int     `koanf:"rating_min"`
	RatingMax     int     `koanf:"rating_max"`

	// CacheSize bounds the score cache; zero disables it.
	CacheSize       int    `koanf:"cache_size"`
	CacheTTLSeconds int    `koanf:"cache_ttl_seconds"`
	// CacheScope is "request" (fresh scores per run) or "process" (shared
	// until TTL or a locally ingested vote; faster, may lag other writers).
	CacheScope      string `koanf:"cache_scope"`

	Tolerance         float64 `koanf:"tolerance"`
	MaxRelaxCycles    int     `koanf:"max_relax_cycles"`
	RelaxStep         float64 `koanf:"relax_step"`
	OddPoolScale      float64 `koanf:"odd_pool_scale"`
	MaxCandidates     int     `koanf:"max_candidates"`
	AnchorBudget      int     `koanf:"anchor_budget"`
	SearchTimeoutMS   int     `koanf:"search_timeout_ms"`
	WarmupConcurrency int     `koanf:"warmup_concurrency"`

	// QueueSize bounds the in-memory vote queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of vote ingestion workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize sets how many vote ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Addr:        ":9080",
		StoreDriver: StoreMemory,
		SQLitePath:  "lineup.db",
		SkillWeights: map[string]int{
			"attack":     2,
			"defense":    2,
			"possession": 2,
			"stamina":    1,
			"mobility":   1,
		},
		DefaultRating:     5,
		RatingMin:         1,
		RatingMax:         10,
		CacheSize:         100,
		CacheTTLSeconds:   300,
		CacheScope:        "request",
		Tolerance:         0.5,
		MaxRelaxCycles:    20,
		RelaxStep:         1.5,
		OddPoolScale:      10,
		MaxCandidates:     200_000,
		SearchTimeoutMS:   5000,
		WarmupConcurrency: 8,
		QueueSize:         10_000,
		WorkerCount:       runtime.NumCPU() * 2,
		DedupeSize:        50_000,
	}
}

// CacheTTL returns the cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// SearchTimeout returns the per-search wall-clock budget.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutMS) * time.Millisecond
}

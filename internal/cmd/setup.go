package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/okian/lineup/internal/adapters/repository"
	service "github.com/okian/lineup/internal/app"
	"github.com/okian/lineup/internal/config"
	"github.com/okian/lineup/internal/domain/scoring"
	"github.com/okian/lineup/pkg/logger"
)

// loadConfig loads configuration and initializes the global logger from it.
func loadConfig(ctx context.Context, logOut io.Writer) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(logger.WithWriter(logOut), logger.WithFormat(cfg.LogFormat)); err != nil {
		return nil, nil, fmt.Errorf("init logging: %w", err)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, log, nil
}

// openStore opens the configured vote store.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	dsn := ""
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		dsn = cfg.SQLitePath
	case config.StorePostgres:
		dsn = cfg.DatabaseURL
	}
	return repository.Open(ctx, cfg.StoreDriver, dsn)
}

// serviceOptions maps configuration onto service options.
func serviceOptions(cfg *config.Config, log logger.Logger) []service.Option {
	return []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithSkillWeights(scoring.Weights(cfg.SkillWeights)),
		service.WithDefaultRating(cfg.DefaultRating),
		service.WithRatingRange(cfg.RatingMin, cfg.RatingMax),
		service.WithCache(cfg.CacheSize, cfg.CacheTTL()),
		service.WithCacheScope(cfg.CacheScope),
		service.WithTolerance(cfg.Tolerance),
		service.WithMaxRelaxCycles(cfg.MaxRelaxCycles),
		service.WithRelaxStep(cfg.RelaxStep),
		service.WithOddPoolScale(cfg.OddPoolScale),
		service.WithMaxCandidates(cfg.MaxCandidates),
		service.WithAnchorBudget(cfg.AnchorBudget),
		service.WithSearchTimeout(cfg.SearchTimeout()),
		service.WithWarmupConcurrency(cfg.WarmupConcurrency),
	}
}

package loadgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/lineup/internal/domain/types"
	"github.com/okian/lineup/pkg/logger"
)

const (
	settlePollInterval = 100 * time.Millisecond
	percent            = 100
)

// ErrNotSettled is returned when accepted votes do not show up in time.
var ErrNotSettled = errors.New("loadgen: votes did not settle")

// Run submits generated votes to the service, issues cfg.Runs balance
// requests and verifies every response. A violation fails the run.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stats := &Stats{StartTime: time.Now()}
	log.Info(ctx, "starting lineup load run",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("players", cfg.Players),
		logger.Int("voters", cfg.Voters),
		logger.Int("team_size", cfg.TeamSize),
		logger.Int("runs", cfg.Runs),
		logger.Int("workers", cfg.Workers),
		logger.Int64("seed", int64(cfg.Seed)))

	c := newClient(cfg.BaseURL, cfg.Timeout)
	if err := c.health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	gen := newGenerator(cfg)
	players := gen.players()
	votes := gen.votes(players)
	stats.VotesGenerated = len(votes)

	baseline, err := totalVotes(ctx, c)
	if err != nil {
		return stats, err
	}
	submitVotes(ctx, c, cfg, votes, stats, log)
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if err := waitForVotes(ctx, c, baseline+stats.VotesAccepted, cfg.Settle); err != nil {
		return stats, err
	}

	var violations []error
	for i := 0; i < cfg.Runs; i++ {
		seed := int64(cfg.Seed) + int64(i)
		req := types.BalanceRequest{
			Players:  gen.pick(players, 2*cfg.TeamSize),
			TeamSize: cfg.TeamSize,
			Seed:     &seed,
		}
		res, err := c.balance(ctx, req)
		if err != nil {
			return stats, fmt.Errorf("balance run %d: %w", i, err)
		}
		stats.BalanceRuns++
		if res.Found {
			stats.BalanceFound++
		} else {
			stats.BalanceNotFound++
		}
		overall, err := teamScores(ctx, c, res)
		if err != nil {
			return stats, fmt.Errorf("balance run %d: %w", i, err)
		}
		if err := verifyBalance(req, res, overall); err != nil {
			stats.Violations++
			violations = append(violations, err)
			log.Error(ctx, "balance violation", logger.Error(err))
			continue
		}
		log.Debug(ctx, "balance verified",
			logger.String("run_id", res.RunID),
			logger.Bool("found", res.Found),
			logger.Float64("gap", res.Gap),
			logger.Int("cycles", res.Cycles))
	}

	stats.Duration = time.Since(stats.StartTime)
	logFinalStats(ctx, stats, log)
	return stats, errors.Join(violations...)
}

// teamScores fetches the overall score of every player placed on a team.
func teamScores(ctx context.Context, c *client, res types.BalanceResponse) (map[string]float64, error) { //nolint:gocritic // hugeParam
	out := make(map[string]float64, len(res.TeamA)+len(res.TeamB))
	for _, side := range [][]string{res.TeamA, res.TeamB} {
		for _, p := range side {
			ps, err := c.scores(ctx, p)
			if err != nil {
				return nil, fmt.Errorf("scores of %s: %w", p, err)
			}
			out[p] = ps.Overall
		}
	}
	return out, nil
}

func totalVotes(ctx context.Context, c *client) (int, error) {
	st, err := c.stats(ctx)
	if err != nil {
		return 0, fmt.Errorf("read stats: %w", err)
	}
	// JSON numbers decode as float64.
	n, _ := st["totalVotes"].(float64)
	return int(n), nil
}

// waitForVotes polls /stats until the store holds want votes.
func waitForVotes(ctx context.Context, c *client, want int, within time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, within)
	defer cancel()
	ticker := time.NewTicker(settlePollInterval)
	defer ticker.Stop()

	got := 0
	for {
		n, err := totalVotes(ctx, c)
		if err == nil {
			got = n
			if got >= want {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %d of %d stored", ErrNotSettled, got, want)
		case <-ticker.C:
		}
	}
}

func logFinalStats(ctx context.Context, stats *Stats, log logger.Logger) {
	var acceptRate, votesPerSecond float64
	if stats.VotesGenerated > 0 {
		acceptRate = float64(stats.VotesAccepted) / float64(stats.VotesGenerated) * percent
	}
	if stats.Duration > 0 {
		votesPerSecond = float64(stats.VotesGenerated) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("votes_generated", stats.VotesGenerated),
		logger.Int("votes_accepted", stats.VotesAccepted),
		logger.Int("votes_duplicate", stats.VotesDuplicate),
		logger.Int("votes_failed", stats.VotesFailed),
		logger.Int("balance_runs", stats.BalanceRuns),
		logger.Int("balance_found", stats.BalanceFound),
		logger.Int("balance_not_found", stats.BalanceNotFound),
		logger.Int("violations", stats.Violations),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("accept_rate", acceptRate),
		logger.Float64("votes_per_second", votesPerSecond))
}

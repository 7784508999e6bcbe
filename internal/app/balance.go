package service

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/okian/lineup/internal/adapters/mq/events"
	"github.com/okian/lineup/internal/domain/matcher"
	"github.com/okian/lineup/internal/domain/team"
	"github.com/okian/lineup/pkg/logger"
	"github.com/okian/lineup/pkg/metrics"
)

// ReasonTimeout marks a search cut short by the search timeout.
const ReasonTimeout = "timeout"

// BalanceRequest asks for two balanced teams out of Players. Nil pointers
// fall back to the service defaults.
type BalanceRequest struct {
	Players        []string
	TeamSize       int
	Tolerance      *float64
	MaxRelaxCycles *int
	Seed           *int64
}

// BalanceResult is the outcome of a balance run. Found is false when no pair
// fit within the relaxation limit; that is not an error. ScoreA and ScoreB
// stay inside the service and are only logged.
type BalanceResult struct {
	RunID      string
	Found      bool
	TeamA      []string
	TeamB      []string
	ScoreA     float64
	ScoreB     float64
	Gap        float64
	Tolerance  float64
	Bound      float64
	Cycles     int
	Anchors    int
	Candidates int
	Reason     string
	Seed       int64
	Duration   time.Duration
}

// Balance splits the requested players into two teams of close aggregate
// skill.
func (s *Service) Balance(ctx context.Context, req BalanceRequest) (BalanceResult, error) {
	start := time.Now()
	res := BalanceResult{RunID: uuid.NewString()}

	ctx, span := s.tracer.Start(ctx, "service.Balance",
		trace.WithAttributes(
			attribute.String("lineup.run_id", res.RunID),
			attribute.Int("lineup.players", len(req.Players)),
			attribute.Int("lineup.team_size", req.TeamSize),
		))
	defer span.End()

	res, err := s.balance(ctx, req, res)
	res.Duration = time.Since(start)
	ms := float64(res.Duration.Microseconds()) / 1000.0
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordBalanceRun(metrics.OutcomeError, ms)
		s.logger.Warn(ctx, "balance failed",
			logger.String("run_id", res.RunID),
			logger.Strings("players", req.Players),
			logger.Error(err))
		return res, err
	}

	outcome := metrics.OutcomeNoMatch
	if res.Found {
		outcome = metrics.OutcomeMatched
	}
	metrics.RecordBalanceRun(outcome, ms)
	span.SetAttributes(
		attribute.Bool("lineup.found", res.Found),
		attribute.String("lineup.reason", res.Reason),
		attribute.Int("lineup.cycles", res.Cycles),
		attribute.Float64("lineup.gap", res.Gap),
	)
	s.logger.Info(ctx, "balance completed",
		logger.String("run_id", res.RunID),
		logger.Bool("found", res.Found),
		logger.String("reason", res.Reason),
		logger.Int("candidates", res.Candidates),
		logger.Int("cycles", res.Cycles),
		logger.Float64("gap", res.Gap),
		logger.Float64("score_a", res.ScoreA),
		logger.Float64("score_b", res.ScoreB),
		logger.Float64("duration_ms", ms))

	if err := s.publisher.PublishBalanceCompleted(ctx, events.BalanceCompleted{
		RunID:     res.RunID,
		Players:   len(req.Players),
		Found:     res.Found,
		TeamA:     res.TeamA,
		TeamB:     res.TeamB,
		Gap:       res.Gap,
		Tolerance: res.Tolerance,
		Cycles:    res.Cycles,
		Reason:    res.Reason,
	}); err != nil {
		s.logger.Warn(ctx, "publish balance outcome failed", logger.String("run_id", res.RunID), logger.Error(err))
	}
	return res, nil
}

func (s *Service) balance(ctx context.Context, req BalanceRequest, res BalanceResult) (BalanceResult, error) {
	params := matcher.Params{
		PoolSize:       len(req.Players),
		Tolerance:      s.tolerance,
		MaxRelaxCycles: s.maxRelaxCycles,
	}
	if req.Tolerance != nil {
		params.Tolerance = *req.Tolerance
	}
	if req.MaxRelaxCycles != nil {
		params.MaxRelaxCycles = *req.MaxRelaxCycles
	}

	seed, err := s.seed(req.Seed)
	if err != nil {
		return res, err
	}
	res.Seed = seed

	scope := ""
	if s.cacheScope == ScopeRequest {
		scope = res.RunID
	}
	pool, err := s.participants(req.Players, scope)
	if err != nil {
		return res, err
	}

	candidates, err := team.Enumerate(pool, req.TeamSize, team.WithMaxCandidates(s.maxCandidates))
	if err != nil {
		return res, err
	}
	res.Candidates = len(candidates)

	if err := s.warm(ctx, pool); err != nil {
		return res, err
	}

	searchCtx := ctx
	if s.searchTimeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, s.searchTimeout)
		defer cancel()
	}

	searcher := matcher.New(
		matcher.WithSeed(seed),
		matcher.WithRelaxStep(s.relaxStep),
		matcher.WithOddPoolScale(s.oddPoolScale),
		matcher.WithAnchorBudget(s.anchorBudget),
		matcher.WithLogger(s.logger.Named("matcher")),
	)
	found, err := searcher.Search(searchCtx, candidates, params)
	res.Tolerance = found.Tolerance
	res.Bound = found.Bound
	res.Cycles = found.Cycles
	res.Anchors = found.Anchors
	res.Reason = string(found.Reason)
	if err != nil {
		// Our own deadline is a negative outcome; the caller's is an error.
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			res.Reason = ReasonTimeout
			return res, nil
		}
		return res, err
	}
	if !found.Found {
		return res, nil
	}

	res.Found = true
	res.TeamA, res.TeamB = found.Names()
	res.Gap = found.Gap
	if res.ScoreA, err = found.TeamA.AggregateScore(ctx); err != nil {
		return res, err
	}
	if res.ScoreB, err = found.TeamB.AggregateScore(ctx); err != nil {
		return res, err
	}
	return res, nil
}

func (s *Service) participants(names []string, scope string) ([]*team.Participant, error) {
	pool := make([]*team.Participant, 0, len(names))
	for _, name := range names {
		p, err := s.participant(name, scope)
		if err != nil {
			return nil, err
		}
		pool = append(pool, p)
	}
	return pool, nil
}

func (s *Service) participant(name, scope string) (*team.Participant, error) {
	return team.NewParticipant(name, s.source, s.agg,
		team.WithCache(s.cache),
		team.WithScope(scope),
		team.WithLogger(s.logger.Named("participant")),
	)
}

// warm fetches every participant's overall score concurrently so the search
// itself only reads cached values.
func (s *Service) warm(ctx context.Context, pool []*team.Participant) error {
	ctx, span := s.tracer.Start(ctx, "service.warm", trace.WithAttributes(attribute.Int("lineup.players", len(pool))))
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.warmupConcurrency)
	for _, p := range pool {
		g.Go(func() error {
			if _, err := p.OverallScore(gctx, nil); err != nil {
				return fmt.Errorf("score %s: %w", p.Name(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *Service) seed(requested *int64) (int64, error) {
	if requested != nil {
		return *requested, nil
	}
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1), nil
}

// PlayerScores holds a player's per-skill means and overall score.
type PlayerScores struct {
	Player  string
	Skills  map[string]float64
	Overall float64
}

// SkillScores returns the scores the balancer would use for player.
func (s *Service) SkillScores(ctx context.Context, player string) (PlayerScores, error) {
	ctx, span := s.tracer.Start(ctx, "service.SkillScores", trace.WithAttributes(attribute.String("lineup.player", player)))
	defer span.End()

	scope := ""
	if s.cacheScope == ScopeRequest {
		scope = uuid.NewString()
	}
	p, err := s.participant(player, scope)
	if err != nil {
		return PlayerScores{}, err
	}
	skills, err := p.SkillScores(ctx, nil)
	if err != nil {
		span.RecordError(err)
		return PlayerScores{}, err
	}
	overall, err := p.OverallScore(ctx, nil)
	if err != nil {
		span.RecordError(err)
		return PlayerScores{}, err
	}
	return PlayerScores{Player: player, Skills: skills, Overall: overall}, nil
}

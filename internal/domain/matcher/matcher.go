// Package matcher finds two disjoint rosters whose aggregate scores are within
// a tolerance, relaxing the tolerance when a pass finds nothing.
package matcher

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/okian/lineup/internal/domain/team"
	"github.com/okian/lineup/pkg/logger"
	"github.com/okian/lineup/pkg/metrics"
)

// Reason explains how a search ended.
type Reason string

// Search outcomes.
const (
	ReasonMatched         Reason = "matched"
	ReasonCyclesExhausted Reason = "cycles_exhausted"
	ReasonBudgetExhausted Reason = "budget_exhausted"
	ReasonCanceled        Reason = "canceled"
)

// Params describes one search.
type Params struct {
	// PoolSize is the number of participants the candidates were built from.
	// Its parity decides the partner size and the tolerance scaling.
	PoolSize int
	// Tolerance is the starting maximum score gap.
	Tolerance float64
	// MaxRelaxCycles bounds how many times the tolerance is widened.
	MaxRelaxCycles int
}

// Result is the outcome of a search. A search that ends without a pair is not
// an error: Found is false and Reason says why.
type Result struct {
	Found bool
	TeamA *team.Roster
	TeamB *team.Roster
	// Tolerance is the unscaled tolerance of the final pass.
	Tolerance float64
	// Bound is the gap limit actually compared against in the final pass.
	Bound float64
	// Gap is |score(TeamA) - score(TeamB)| when Found.
	Gap     float64
	Cycles  int
	Anchors int
	Reason  Reason
}

// Names returns the member names of both teams, or nils when nothing was found.
func (r Result) Names() (a, b []string) {
	if !r.Found {
		return nil, nil
	}
	return r.TeamA.Names(), r.TeamB.Names()
}

// Searcher runs randomized matched-pair searches. It owns a random source
// and must not be shared between goroutines.
type Searcher struct {
	rng          *rand.Rand
	relaxStep    float64
	oddPoolScale float64
	anchorBudget int
	log          logger.Logger
}

// New creates a Searcher. Without WithRand or WithSeed it seeds from the clock.
func New(opts ...Option) *Searcher {
	s := &Searcher{
		relaxStep:    DefaultRelaxStep,
		oddPoolScale: DefaultOddPoolScale,
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // tie-breaking only
	}
	return s
}

func validate(candidates []*team.Roster, p Params) error {
	if len(candidates) == 0 {
		return ErrNoCandidates
	}
	if p.Tolerance < 0 || math.IsNaN(p.Tolerance) || math.IsInf(p.Tolerance, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTolerance, p.Tolerance)
	}
	if p.MaxRelaxCycles < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCycles, p.MaxRelaxCycles)
	}
	for _, c := range candidates {
		if c == nil {
			return fmt.Errorf("%w: nil roster", ErrNoCandidates)
		}
	}
	return nil
}

// scoreAll computes every roster aggregate once, reading each participant's
// score a single time.
func scoreAll(ctx context.Context, candidates []*team.Roster) ([]float64, error) {
	perMember := make(map[*team.Participant]float64)
	scores := make([]float64, len(candidates))
	for i, r := range candidates {
		var sum float64
		for _, m := range r.Members() {
			s, ok := perMember[m]
			if !ok {
				var err error
				if s, err = m.OverallScore(ctx, nil); err != nil {
					return nil, err
				}
				perMember[m] = s
			}
			sum += s
		}
		scores[i] = sum
	}
	return scores, nil
}

// Search looks for two disjoint rosters of complementary size whose score gap
// is within tolerance. Each pass samples anchors at random from the working
// list; an anchor without partners is dropped. When the list runs down to its
// last anchor with no partner, the tolerance grows by the relax step and the
// pass restarts from the full list, at most MaxRelaxCycles times.
func (s *Searcher) Search(ctx context.Context, candidates []*team.Roster, p Params) (Result, error) {
	if err := validate(candidates, p); err != nil {
		return Result{}, err
	}
	scores, err := scoreAll(ctx, candidates)
	if err != nil {
		return Result{}, err
	}

	odd := p.PoolSize%2 == 1
	full := make([]int, len(candidates))
	for i := range full {
		full[i] = i
	}

	var (
		working   = append([]int(nil), full...)
		tolerance = p.Tolerance
		attempt   = 0
		anchors   = 0
		matched   = make([]int, 0, len(candidates))
	)

	finish := func(res Result) Result {
		res.Tolerance = tolerance
		res.Bound = s.bound(tolerance, odd)
		res.Cycles = attempt
		res.Anchors = anchors
		metrics.RecordSearch(len(candidates), anchors, attempt)
		return res
	}

	for {
		if err := ctx.Err(); err != nil {
			return finish(Result{Reason: ReasonCanceled}), fmt.Errorf("match search: %w", err)
		}
		if s.anchorBudget > 0 && anchors >= s.anchorBudget {
			s.log.Warn(ctx, "anchor budget exhausted",
				logger.Int("budget", s.anchorBudget),
				logger.Float64("tolerance", tolerance))
			return finish(Result{Reason: ReasonBudgetExhausted}), nil
		}

		// SAMPLE
		pos := s.rng.Intn(len(working))
		a := working[pos]
		anchors++

		// FILTER
		bound := s.bound(tolerance, odd)
		want := candidates[a].Size()
		if odd {
			want = p.PoolSize - candidates[a].Size()
		}
		matched = matched[:0]
		for _, b := range working {
			if b == a || candidates[b].Size() != want {
				continue
			}
			if candidates[a].Intersects(candidates[b]) {
				continue
			}
			if math.Abs(scores[a]-scores[b]) <= bound {
				matched = append(matched, b)
			}
		}

		// MATCHED
		if len(matched) > 0 {
			b := matched[s.rng.Intn(len(matched))]
			gap := math.Abs(scores[a] - scores[b])
			metrics.RecordMatchGap(gap)
			s.log.Debug(ctx, "match found",
				logger.Strings("team_a", candidates[a].Names()),
				logger.Strings("team_b", candidates[b].Names()),
				logger.Float64("gap", gap),
				logger.Int("cycle", attempt))
			return finish(Result{
				Found:  true,
				TeamA:  candidates[a],
				TeamB:  candidates[b],
				Gap:    gap,
				Reason: ReasonMatched,
			}), nil
		}

		// EXHAUSTED_LOCAL
		if len(working) > 1 {
			last := len(working) - 1
			working[pos] = working[last]
			working = working[:last]
			continue
		}

		// EXHAUSTED_GLOBAL
		if attempt >= p.MaxRelaxCycles {
			s.log.Info(ctx, "no match within relaxation limit",
				logger.Int("cycles", attempt),
				logger.Float64("tolerance", tolerance))
			return finish(Result{Reason: ReasonCyclesExhausted}), nil
		}
		tolerance += s.relaxStep
		attempt++
		working = append(working[:0], full...)
		s.log.Debug(ctx, "no match at tolerance, relaxing",
			logger.Float64("tolerance", tolerance),
			logger.Int("cycle", attempt))
	}
}

func (s *Searcher) bound(tolerance float64, odd bool) float64 {
	if odd {
		return tolerance * s.oddPoolScale
	}
	return tolerance
}

// Package scoring turns raw rating samples into per-skill means and a
// weighted overall score.
package scoring

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/pkg/logger"
	"github.com/okian/lineup/pkg/metrics"
)

// DefaultRating is the neutral midpoint of the 1..10 scale.
const DefaultRating = 5.0

// Aggregator applies a fixed weight table to skill means. It is immutable
// after construction and safe for concurrent use.
type Aggregator struct {
	weights       Weights
	skills        []string
	defaultRating float64
	log           logger.Logger
}

// NewAggregator validates weights once and builds an Aggregator.
func NewAggregator(weights Weights, opts ...Option) (*Aggregator, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	a := &Aggregator{
		weights:       weights.Clone(),
		skills:        weights.Skills(),
		defaultRating: DefaultRating,
		log:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Skills returns every configured skill, sorted.
func (a *Aggregator) Skills() []string {
	out := make([]string, len(a.skills))
	copy(out, a.skills)
	return out
}

// Weights returns a copy of the weight table.
func (a *Aggregator) Weights() Weights { return a.weights.Clone() }

// DefaultRating returns the fallback score for participants without samples.
func (a *Aggregator) DefaultRating() float64 { return a.defaultRating }

// Selection normalizes a skill selection: empty means every configured skill.
// The result is sorted and free of duplicates so it can be used as a cache key.
func (a *Aggregator) Selection(skills []string) ([]string, error) {
	if len(skills) == 0 {
		return a.Skills(), nil
	}
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if _, ok := a.weights[s]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSkill, s)
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// SkillMeans reduces samples to the arithmetic mean per requested skill.
// Samples for skills outside the selection are ignored. A skill without
// samples gets the default rating; a participant without any samples is
// logged as a degraded-confidence result.
func (a *Aggregator) SkillMeans(ctx context.Context, participant string, samples []model.Sample, skills []string) (map[string]float64, error) {
	selection, err := a.Selection(skills)
	if err != nil {
		return nil, err
	}

	sums := make(map[string]float64, len(selection))
	counts := make(map[string]int, len(selection))
	for _, s := range selection {
		sums[s] = 0
	}
	for _, smp := range samples {
		if _, ok := sums[smp.Skill]; !ok {
			continue
		}
		sums[smp.Skill] += smp.Rating
		counts[smp.Skill]++
	}

	if len(counts) == 0 {
		a.log.Warn(ctx, "no rating samples, using default rating",
			logger.String("participant", participant),
			logger.Float64("default_rating", a.defaultRating))
		metrics.RecordParticipantWithoutVotes()
	}

	means := make(map[string]float64, len(selection))
	for _, s := range selection {
		if n := counts[s]; n > 0 {
			means[s] = sums[s] / float64(n)
			continue
		}
		means[s] = a.defaultRating
	}
	return means, nil
}

// Overall returns sum(mean_i * w_i) / sum(w_i) over the skills in means.
// A skill without a weight is a configuration error. Empty means yield the
// default rating.
func (a *Aggregator) Overall(ctx context.Context, participant string, means map[string]float64) (float64, error) {
	if len(means) == 0 {
		a.log.Warn(ctx, "no skill means, using default rating",
			logger.String("participant", participant))
		return a.defaultRating, nil
	}

	for skill := range means {
		if _, ok := a.weights[skill]; !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownSkill, skill)
		}
	}

	// Sum in skill order so equal inputs give bit-identical scores.
	var weighted float64
	var total int
	for _, skill := range a.skills {
		mean, ok := means[skill]
		if !ok {
			continue
		}
		w := a.weights[skill]
		weighted += mean * float64(w)
		total += w
	}
	return weighted / float64(total), nil
}

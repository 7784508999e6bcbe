// Package team models participants and candidate rosters and enumerates every
// roster a pool can form.
package team

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/lineup/internal/domain/cache"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/scoring"
	"github.com/okian/lineup/pkg/logger"
	"github.com/okian/lineup/pkg/metrics"
)

// VoteSource fetches the raw rating samples of a participant. An empty result
// is valid and means nobody has voted yet.
type VoteSource interface {
	RatingSamples(ctx context.Context, participant string, skills []string) ([]model.Sample, error)
}

// Participant is a named player whose scores are computed lazily from votes.
type Participant struct {
	name   string
	source VoteSource
	agg    *scoring.Aggregator
	cache  cache.Cache
	scope  string
	log    logger.Logger
}

// NewParticipant builds a participant. Scores are not fetched until asked for.
func NewParticipant(name string, source VoteSource, agg *scoring.Aggregator, opts ...ParticipantOption) (*Participant, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrBlankName
	}
	if source == nil || agg == nil {
		return nil, fmt.Errorf("%w: participant %q needs a vote source and an aggregator", model.ErrConfiguration, name)
	}
	p := &Participant{
		name:   name,
		source: source,
		agg:    agg,
		cache:  cache.Nop(),
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the participant identity.
func (p *Participant) Name() string { return p.name }

// String never includes scores.
func (p *Participant) String() string { return "Name: " + p.name }

func (p *Participant) key(op string, selection []string) cache.Key {
	return cache.Key{Scope: p.scope, Op: op, Participant: p.name, Args: strings.Join(selection, ",")}
}

func (p *Participant) samples(ctx context.Context, selection []string) ([]model.Sample, error) {
	return cache.Memo(ctx, p.cache, p.key(cache.OpRatingSamples, selection), func(ctx context.Context) ([]model.Sample, error) {
		start := time.Now()
		s, err := p.source.RatingSamples(ctx, p.name, selection)
		metrics.RecordVoteFetch(float64(time.Since(start).Microseconds())/1000.0, err)
		if err != nil {
			return nil, fmt.Errorf("fetch samples for %q: %w", p.name, err)
		}
		p.log.Debug(ctx, "rating samples fetched",
			logger.String("participant", p.name),
			logger.Int("samples", len(s)))
		return s, nil
	})
}

// SkillScores returns the mean rating per selected skill; an empty selection
// means every configured skill.
func (p *Participant) SkillScores(ctx context.Context, skills []string) (map[string]float64, error) {
	selection, err := p.agg.Selection(skills)
	if err != nil {
		return nil, err
	}
	means, err := cache.Memo(ctx, p.cache, p.key(cache.OpSkillScores, selection), func(ctx context.Context) (map[string]float64, error) {
		samples, err := p.samples(ctx, selection)
		if err != nil {
			return nil, err
		}
		return p.agg.SkillMeans(ctx, p.name, samples, selection)
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(means))
	for k, v := range means {
		out[k] = v
	}
	return out, nil
}

// OverallScore returns the weighted mean of SkillScores.
func (p *Participant) OverallScore(ctx context.Context, skills []string) (float64, error) {
	selection, err := p.agg.Selection(skills)
	if err != nil {
		return 0, err
	}
	return cache.Memo(ctx, p.cache, p.key(cache.OpOverallScore, selection), func(ctx context.Context) (float64, error) {
		means, err := p.SkillScores(ctx, selection)
		if err != nil {
			return 0, err
		}
		return p.agg.Overall(ctx, p.name, means)
	})
}

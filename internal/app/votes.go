package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/pkg/logger"
	"github.com/okian/lineup/pkg/metrics"
)

// Receipt acknowledges a submitted vote.
type Receipt struct {
	VoteID    string
	Duplicate bool
}

// RecordVote validates v and queues it for persistence. A vote id seen
// before is acknowledged as a duplicate and not queued again. Votes without
// an id get a fresh one.
func (s *Service) RecordVote(ctx context.Context, v model.Vote) (Receipt, error) { //nolint:gocritic // hugeParam: Vote is queued by value
	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started {
		return Receipt{}, ErrNotStarted
	}

	v.Voter = strings.TrimSpace(v.Voter)
	v.Player = strings.TrimSpace(v.Player)
	if err := v.Validate(s.agg.Skills(), s.ratingRange); err != nil {
		return Receipt{}, err
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	if s.deduper.SeenAndRecord(ctx, v.ID) {
		metrics.RecordVoteDuplicate()
		s.logger.Debug(ctx, "duplicate vote, skipping", logger.String("vote_id", v.ID))
		return Receipt{VoteID: v.ID, Duplicate: true}, nil
	}
	if !q.Enqueue(ctx, v) {
		// Let the client retry the same id later.
		s.deduper.Unrecord(ctx, v.ID)
		return Receipt{}, ErrQueueFull
	}
	s.logger.Debug(ctx, "vote queued",
		logger.String("vote_id", v.ID),
		logger.String("voter", v.Voter),
		logger.String("player", v.Player))
	return Receipt{VoteID: v.ID}, nil
}

// UpdateVote replaces the ratings of a stored vote. Only its voter may edit.
func (s *Service) UpdateVote(ctx context.Context, id, voter string, ratings map[string]int) (model.Vote, error) {
	if err := model.ValidateRatings(ratings, s.agg.Skills(), s.ratingRange); err != nil {
		return model.Vote{}, err
	}
	v, err := s.store.UpdateVote(ctx, id, strings.TrimSpace(voter), ratings)
	if err != nil {
		return model.Vote{}, err
	}
	dropped := s.cache.Invalidate(v.Player)
	if err := s.publisher.PublishVoteRecorded(ctx, v); err != nil {
		s.logger.Warn(ctx, "publish vote edit failed", logger.String("vote_id", v.ID), logger.Error(err))
	}
	s.logger.Debug(ctx, "vote edited",
		logger.String("vote_id", v.ID),
		logger.String("player", v.Player),
		logger.Int("cache_entries_dropped", dropped))
	return v, nil
}

// GetVote returns a stored vote.
func (s *Service) GetVote(ctx context.Context, id string) (model.Vote, error) {
	v, err := s.store.GetVote(ctx, id)
	if err != nil {
		return model.Vote{}, fmt.Errorf("get vote %s: %w", id, err)
	}
	return v, nil
}

// ListVotes returns a voter's votes in creation order; an empty voter lists
// every vote.
func (s *Service) ListVotes(ctx context.Context, voter string) ([]model.Vote, error) {
	return s.store.ListVotes(ctx, strings.TrimSpace(voter))
}

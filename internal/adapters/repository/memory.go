package repository

import (
	"context"
	"sync"

	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/pkg/metrics"
)

// MemoryStore keeps votes in process memory. It is the default store and the
// one the offline CLI seeds from a file.
type MemoryStore struct {
	cfg config

	mu       sync.RWMutex
	votes    map[string]model.Vote
	order    []string            // vote ids in creation order
	byPlayer map[string][]string // player -> vote ids in creation order
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryStore{
		cfg:      cfg,
		votes:    make(map[string]model.Vote),
		byPlayer: make(map[string][]string),
	}
}

func (s *MemoryStore) RecordVote(ctx context.Context, v model.Vote) (model.Vote, error) {
	if err := ctx.Err(); err != nil {
		return model.Vote{}, err
	}
	if err := checkVote(v); err != nil {
		return model.Vote{}, err
	}
	v = v.Clone()
	now := s.cfg.now()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = v.CreatedAt

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.votes[v.ID]; exists {
		metrics.RecordErrorByComponent("repository", "already_exists")
		return model.Vote{}, ErrAlreadyExists
	}
	s.votes[v.ID] = v
	s.order = append(s.order, v.ID)
	s.byPlayer[v.Player] = append(s.byPlayer[v.Player], v.ID)
	return v.Clone(), nil
}

func (s *MemoryStore) UpdateVote(ctx context.Context, id, voter string, ratings map[string]int) (model.Vote, error) {
	if err := ctx.Err(); err != nil {
		return model.Vote{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.votes[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Vote{}, ErrNotFound
	}
	if v.Voter != voter {
		metrics.RecordErrorByComponent("repository", "forbidden")
		return model.Vote{}, ErrForbidden
	}
	v.Ratings = model.Vote{Ratings: ratings}.Clone().Ratings
	v.UpdatedAt = s.cfg.now()
	s.votes[id] = v
	return v.Clone(), nil
}

func (s *MemoryStore) GetVote(ctx context.Context, id string) (model.Vote, error) {
	if err := ctx.Err(); err != nil {
		return model.Vote{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.votes[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Vote{}, ErrNotFound
	}
	return v.Clone(), nil
}

func (s *MemoryStore) ListVotes(ctx context.Context, voter string) ([]model.Vote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Vote, 0)
	for _, id := range s.order {
		v := s.votes[id]
		if voter == "" || v.Voter == voter {
			out = append(out, v.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) RatingSamples(ctx context.Context, player string, skills []string) ([]model.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Sample
	for _, id := range s.byPlayer[player] {
		out = append(out, s.votes[id].Samples()...)
	}
	return filterSamples(out, skills), nil
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.votes)
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

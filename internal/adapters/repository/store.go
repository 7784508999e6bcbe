// Package repository persists votes and serves the rating samples the
// balancer scores players from.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/lineup/internal/domain/model"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store provides read/write access to votes.
type Store interface {
	// RecordVote inserts a new vote, stamping its timestamps.
	// Returns ErrAlreadyExists if the id is taken.
	RecordVote(ctx context.Context, v model.Vote) (model.Vote, error)

	// UpdateVote replaces the ratings of a vote. Only the original voter may
	// edit: anyone else gets ErrForbidden.
	UpdateVote(ctx context.Context, id, voter string, ratings map[string]int) (model.Vote, error)

	// GetVote returns ErrNotFound for unknown ids.
	GetVote(ctx context.Context, id string) (model.Vote, error)

	// ListVotes returns votes in creation order; an empty voter lists all.
	ListVotes(ctx context.Context, voter string) ([]model.Vote, error)

	// RatingSamples flattens every vote for player into samples, oldest vote
	// first. An empty skills list keeps every skill.
	RatingSamples(ctx context.Context, player string, skills []string) ([]model.Sample, error)

	// Count returns the number of stored votes.
	Count(ctx context.Context) int

	Close() error
}

// Open builds the store for driver. dsn is a file path for sqlite and a
// connection URL for postgres; memory ignores it.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverMemory:
		return NewMemoryStore(opts...), nil
	case DriverSQLite:
		return OpenSQLite(ctx, dsn, opts...)
	case DriverPostgres:
		return NewPostgresStore(ctx, dsn, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// filterSamples keeps samples of the selected skills.
func filterSamples(samples []model.Sample, skills []string) []model.Sample {
	if len(skills) == 0 {
		return samples
	}
	want := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		want[s] = struct{}{}
	}
	out := samples[:0]
	for _, s := range samples {
		if _, ok := want[s.Skill]; ok {
			out = append(out, s)
		}
	}
	return out
}

func encodeRatings(r map[string]int) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode ratings: %w", err)
	}
	return b, nil
}

func decodeRatings(b []byte) (map[string]int, error) {
	r := map[string]int{}
	if len(b) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode ratings: %w", err)
	}
	return r, nil
}

func checkVote(v model.Vote) error {
	if strings.TrimSpace(v.ID) == "" {
		return ErrMissingVoteKey
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/pkg/metrics"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS lineup_votes (
	seq        BIGSERIAL,
	id         TEXT PRIMARY KEY,
	voter      TEXT NOT NULL,
	player     TEXT NOT NULL,
	ratings    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS lineup_votes_player_idx ON lineup_votes (player, seq);
CREATE INDEX IF NOT EXISTS lineup_votes_voter_idx ON lineup_votes (voter, seq);
`

const voteColumns = `id, voter, player, ratings, created_at, updated_at`

// PostgresStore persists votes in PostgreSQL.
type PostgresStore struct {
	cfg  config
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string, opts ...Option) (*PostgresStore, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("%w: database url is required", ErrNotConfigured)
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &PostgresStore{cfg: cfg, pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) RecordVote(ctx context.Context, v model.Vote) (model.Vote, error) {
	if err := checkVote(v); err != nil {
		return model.Vote{}, err
	}
	v = v.Clone()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.cfg.now()
	}
	v.CreatedAt = v.CreatedAt.UTC().Truncate(time.Microsecond)
	v.UpdatedAt = v.CreatedAt

	ratings, err := encodeRatings(v.Ratings)
	if err != nil {
		return model.Vote{}, err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO lineup_votes (id, voter, player, ratings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		v.ID, v.Voter, v.Player, ratings, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			metrics.RecordErrorByComponent("repository", "already_exists")
			return model.Vote{}, ErrAlreadyExists
		}
		return model.Vote{}, fmt.Errorf("insert vote: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) UpdateVote(ctx context.Context, id, voter string, ratings map[string]int) (model.Vote, error) {
	encoded, err := encodeRatings(ratings)
	if err != nil {
		return model.Vote{}, err
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE lineup_votes SET ratings = $1, updated_at = $2
		WHERE id = $3 AND voter = $4
		RETURNING `+voteColumns,
		encoded, s.cfg.now().UTC().Truncate(time.Microsecond), id, voter,
	)
	v, err := scanPgVote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Tell a missing vote apart from someone else's.
		if _, getErr := s.GetVote(ctx, id); getErr != nil {
			return model.Vote{}, getErr
		}
		metrics.RecordErrorByComponent("repository", "forbidden")
		return model.Vote{}, ErrForbidden
	}
	if err != nil {
		return model.Vote{}, fmt.Errorf("update vote: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) GetVote(ctx context.Context, id string) (model.Vote, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+voteColumns+` FROM lineup_votes WHERE id = $1`, id)
	v, err := scanPgVote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Vote{}, ErrNotFound
	}
	if err != nil {
		return model.Vote{}, fmt.Errorf("get vote: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) ListVotes(ctx context.Context, voter string) ([]model.Vote, error) {
	query := `SELECT ` + voteColumns + ` FROM lineup_votes`
	args := []interface{}{}
	if voter != "" {
		query += ` WHERE voter = $1`
		args = append(args, voter)
	}
	query += ` ORDER BY seq`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	out := make([]model.Vote, 0)
	for rows.Next() {
		v, err := scanPgVote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *PostgresStore) RatingSamples(ctx context.Context, player string, skills []string) ([]model.Sample, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ratings FROM lineup_votes WHERE player = $1 ORDER BY seq`, player)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	var out []model.Sample
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan ratings: %w", err)
		}
		ratings, err := decodeRatings(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Vote{Ratings: ratings}.Samples()...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return filterSamples(out, skills), nil
}

func (s *PostgresStore) Count(ctx context.Context) int {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lineup_votes`).Scan(&n); err != nil {
		return 0
	}
	return n
}

func scanPgVote(row pgx.Row) (model.Vote, error) {
	var (
		v   model.Vote
		raw []byte
	)
	if err := row.Scan(&v.ID, &v.Voter, &v.Player, &raw, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return model.Vote{}, err
	}
	ratings, err := decodeRatings(raw)
	if err != nil {
		return model.Vote{}, err
	}
	v.Ratings = ratings
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return v, nil
}

var _ Store = (*PostgresStore)(nil)

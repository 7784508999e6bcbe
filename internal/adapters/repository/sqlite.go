package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/pkg/metrics"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS votes (
	id         TEXT PRIMARY KEY,
	voter      TEXT NOT NULL,
	player     TEXT NOT NULL,
	ratings    TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS votes_player_idx ON votes (player, created_at);
CREATE INDEX IF NOT EXISTS votes_voter_idx ON votes (voter, created_at);
`

// SQLiteStore persists votes in a single SQLite file.
type SQLiteStore struct {
	cfg   config
	sqlDB *sql.DB
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// OpenSQLite opens (creating if needed) the vote database at path.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: sqlite path is required", ErrNotConfigured)
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer keeps SQLite from answering SQLITE_BUSY under load.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLiteStore{cfg: cfg, sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStore) RecordVote(ctx context.Context, v model.Vote) (model.Vote, error) {
	if err := checkVote(v); err != nil {
		return model.Vote{}, err
	}
	v = v.Clone()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.cfg.now()
	}
	// Millisecond precision is what survives a round trip.
	v.CreatedAt = fromMillis(toMillis(v.CreatedAt))
	v.UpdatedAt = v.CreatedAt

	ratings, err := encodeRatings(v.Ratings)
	if err != nil {
		return model.Vote{}, err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO votes (id, voter, player, ratings, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.Voter, v.Player, string(ratings), toMillis(v.CreatedAt), toMillis(v.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			metrics.RecordErrorByComponent("repository", "already_exists")
			return model.Vote{}, ErrAlreadyExists
		}
		return model.Vote{}, fmt.Errorf("insert vote: %w", err)
	}
	return v, nil
}

func (s *SQLiteStore) UpdateVote(ctx context.Context, id, voter string, ratings map[string]int) (model.Vote, error) {
	v, err := s.GetVote(ctx, id)
	if err != nil {
		return model.Vote{}, err
	}
	if v.Voter != voter {
		metrics.RecordErrorByComponent("repository", "forbidden")
		return model.Vote{}, ErrForbidden
	}
	encoded, err := encodeRatings(ratings)
	if err != nil {
		return model.Vote{}, err
	}
	updatedAt := fromMillis(toMillis(s.cfg.now()))
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE votes SET ratings = ?, updated_at = ? WHERE id = ? AND voter = ?`,
		string(encoded), toMillis(updatedAt), id, voter,
	)
	if err != nil {
		return model.Vote{}, fmt.Errorf("update vote: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Vote{}, ErrNotFound
	}
	v.Ratings = model.Vote{Ratings: ratings}.Clone().Ratings
	v.UpdatedAt = updatedAt
	return v, nil
}

func (s *SQLiteStore) GetVote(ctx context.Context, id string) (model.Vote, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, voter, player, ratings, created_at, updated_at FROM votes WHERE id = ?`, id)
	v, err := scanVote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			metrics.RecordErrorByComponent("repository", "not_found")
			return model.Vote{}, ErrNotFound
		}
		return model.Vote{}, fmt.Errorf("get vote: %w", err)
	}
	return v, nil
}

func (s *SQLiteStore) ListVotes(ctx context.Context, voter string) ([]model.Vote, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if voter == "" {
		rows, err = s.sqlDB.QueryContext(ctx,
			`SELECT id, voter, player, ratings, created_at, updated_at
			   FROM votes ORDER BY created_at, rowid`)
	} else {
		rows, err = s.sqlDB.QueryContext(ctx,
			`SELECT id, voter, player, ratings, created_at, updated_at
			   FROM votes WHERE voter = ? ORDER BY created_at, rowid`, voter)
	}
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	out := make([]model.Vote, 0)
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate votes: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) RatingSamples(ctx context.Context, player string, skills []string) ([]model.Sample, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT ratings FROM votes WHERE player = ? ORDER BY created_at, rowid`, player)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer rows.Close()

	var out []model.Sample
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan ratings: %w", err)
		}
		ratings, err := decodeRatings([]byte(raw))
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

func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes`).Scan(&n); err != nil {
		return 0
	}
	return n
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVote(row rowScanner) (model.Vote, error) {
	var (
		v                    model.Vote
		raw                  string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&v.ID, &v.Voter, &v.Player, &raw, &createdAt, &updatedAt); err != nil {
		return model.Vote{}, err
	}
	ratings, err := decodeRatings([]byte(raw))
	if err != nil {
		return model.Vote{}, err
	}
	v.Ratings = ratings
	v.CreatedAt = fromMillis(createdAt)
	v.UpdatedAt = fromMillis(updatedAt)
	return v, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ Store = (*SQLiteStore)(nil)

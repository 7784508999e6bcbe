// Package types contains the JSON shapes shared by the HTTP API and its
// clients.
package types

import "time"

// BalanceRequest is the body of POST /api/v1/balance.
type BalanceRequest struct {
	Players        []string `json:"players"`
	TeamSize       int      `json:"team_size,omitempty"`
	Tolerance      *float64 `json:"tolerance,omitempty"`
	MaxRelaxCycles *int     `json:"max_relax_cycles,omitempty"`
	Seed           *int64   `json:"seed,omitempty"`
}

// BalanceResponse reports a balance run. TeamA and TeamB are omitted when
// Found is false. Team scores are not part of the response.
type BalanceResponse struct {
	RunID      string   `json:"run_id"`
	Found      bool     `json:"found"`
	TeamA      []string `json:"team_a,omitempty"`
	TeamB      []string `json:"team_b,omitempty"`
	Gap        float64  `json:"gap"`
	Tolerance  float64  `json:"tolerance"`
	Bound      float64  `json:"bound"`
	Cycles     int      `json:"cycles"`
	Candidates int      `json:"candidates"`
	Reason     string   `json:"reason"`
	Seed       int64    `json:"seed"`
	DurationMs float64  `json:"duration_ms"`
}

// PlayerScores is the body of GET /api/v1/players/{name}/scores.
type PlayerScores struct {
	Player  string             `json:"player"`
	Skills  map[string]float64 `json:"skills"`
	Overall float64            `json:"overall"`
}

// VoteRequest is the body of POST /api/v1/votes.
type VoteRequest struct {
	VoteID  string         `json:"vote_id,omitempty"`
	Voter   string         `json:"voter"`
	Player  string         `json:"player"`
	Ratings map[string]int `json:"ratings"`
}

// VoteUpdate is the body of PUT /api/v1/votes/{id}.
type VoteUpdate struct {
	Ratings map[string]int `json:"ratings"`
}

// Vote is a stored vote.
type Vote struct {
	ID        string         `json:"id"`
	Voter     string         `json:"voter"`
	Player    string         `json:"player"`
	Ratings   map[string]int `json:"ratings"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Ack acknowledges a submitted vote.
type Ack struct {
	Status    string `json:"status"`
	VoteID    string `json:"vote_id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

// Ack statuses.
const (
	StatusAccepted  = "accepted"
	StatusDuplicate = "duplicate"
)

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

package events

import "time"

// VoteRecorded is emitted after a vote is persisted or edited.
type VoteRecorded struct {
	VoteID     string         `json:"vote_id"`
	Voter      string         `json:"voter"`
	Player     string         `json:"player"`
	Ratings    map[string]int `json:"ratings"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// BalanceCompleted is emitted after every balance run, matched or not.
type BalanceCompleted struct {
	RunID       string    `json:"run_id"`
	Players     int       `json:"players"`
	Found       bool      `json:"found"`
	TeamA       []string  `json:"team_a,omitempty"`
	TeamB       []string  `json:"team_b,omitempty"`
	Gap         float64   `json:"gap"`
	Tolerance   float64   `json:"tolerance"`
	Cycles      int       `json:"cycles"`
	Reason      string    `json:"reason"`
	CompletedAt time.Time `json:"completed_at"`
}

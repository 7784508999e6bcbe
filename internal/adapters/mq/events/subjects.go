package events

// Subjects published by the service.
const (
	SubjectVoteRecorded     = "lineup.vote.recorded"
	SubjectBalanceCompleted = "lineup.balance.completed"
)

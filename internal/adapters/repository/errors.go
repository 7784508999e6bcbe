package repository

import "errors"

// Sentinel kinds for vote store errors.
var (
	ErrNotFound       = errors.New("vote not found")
	ErrForbidden      = errors.New("vote belongs to another voter")
	ErrAlreadyExists  = errors.New("vote already exists")
	ErrNotConfigured  = errors.New("vote store is not configured")
	ErrUnknownDriver  = errors.New("unknown store driver")
	ErrMissingVoteKey = errors.New("vote id is required")
)

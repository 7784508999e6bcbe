package model

import "errors"

// Error kinds shared by every layer. Packages wrap these with context and
// callers classify with errors.Is.
var (
	// ErrConfiguration marks fatal setup mistakes: a bad weight table, an
	// impossible team size, an unknown skill.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidInput marks malformed caller input: blank or duplicate
	// identities, nil participants, out-of-range ratings.
	ErrInvalidInput = errors.New("invalid input")
)

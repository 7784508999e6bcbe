package service

import (
	"errors"
	"fmt"

	"github.com/okian/lineup/internal/domain/model"
)

var (
	// ErrNotStarted is returned by vote ingestion before Start.
	ErrNotStarted = errors.New("service: not started")

	// ErrQueueFull is returned when the ingestion queue rejects a vote.
	ErrQueueFull = errors.New("service: vote queue is full")

	// ErrInvalidCacheScope is returned for an unknown cache scope.
	ErrInvalidCacheScope = fmt.Errorf("%w: cache scope must be %q or %q", model.ErrConfiguration, ScopeProcess, ScopeRequest)

	// ErrInvalidRatingRange is returned when the rating bounds are inverted.
	ErrInvalidRatingRange = fmt.Errorf("%w: invalid rating range", model.ErrConfiguration)
)

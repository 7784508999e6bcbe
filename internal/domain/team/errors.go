package team

import (
	"fmt"

	"github.com/okian/lineup/internal/domain/model"
)

var (
	// ErrBlankName is returned for a participant without a name.
	ErrBlankName = fmt.Errorf("%w: blank participant name", model.ErrInvalidInput)

	// ErrNilParticipant is returned when a roster or pool holds a nil participant.
	ErrNilParticipant = fmt.Errorf("%w: nil participant", model.ErrInvalidInput)

	// ErrDuplicateParticipant is returned when a name appears twice in a roster or pool.
	ErrDuplicateParticipant = fmt.Errorf("%w: duplicate participant", model.ErrInvalidInput)

	// ErrEmptyRoster is returned for a roster without members.
	ErrEmptyRoster = fmt.Errorf("%w: empty roster", model.ErrInvalidInput)

	// ErrPoolTooSmall is returned for pools of fewer than two participants.
	ErrPoolTooSmall = fmt.Errorf("%w: pool needs at least two participants", model.ErrConfiguration)

	// ErrInvalidTeamSize is returned for a negative team size or one >= the pool.
	ErrInvalidTeamSize = fmt.Errorf("%w: invalid team size", model.ErrConfiguration)

	// ErrTooManyCandidates is returned when enumeration would exceed the configured limit.
	ErrTooManyCandidates = fmt.Errorf("%w: too many candidate rosters", model.ErrConfiguration)
)

func duplicateErr(name string) error {
	return fmt.Errorf("%w: %q", ErrDuplicateParticipant, name)
}

package matcher

import (
	"fmt"

	"github.com/okian/lineup/internal/domain/model"
)

var (
	// ErrNoCandidates is returned when Search is given nothing to pair.
	ErrNoCandidates = fmt.Errorf("%w: no candidate rosters", model.ErrConfiguration)

	// ErrInvalidTolerance is returned for a negative or non-finite tolerance.
	ErrInvalidTolerance = fmt.Errorf("%w: invalid tolerance", model.ErrConfiguration)

	// ErrInvalidCycles is returned for a negative relaxation cycle limit.
	ErrInvalidCycles = fmt.Errorf("%w: invalid relaxation cycle limit", model.ErrConfiguration)
)

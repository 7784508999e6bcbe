package scoring

import (
	"fmt"

	"github.com/okian/lineup/internal/domain/model"
)

var (
	// ErrEmptyWeights is returned when the weight table has no skills.
	ErrEmptyWeights = fmt.Errorf("%w: skill weight table is empty", model.ErrConfiguration)

	// ErrInvalidWeight is returned for a non-positive weight or a blank skill name.
	ErrInvalidWeight = fmt.Errorf("%w: invalid skill weight", model.ErrConfiguration)

	// ErrUnknownSkill is returned when a skill is not in the weight table.
	ErrUnknownSkill = fmt.Errorf("%w: unknown skill", model.ErrConfiguration)
)

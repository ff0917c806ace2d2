package transcribe

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrNoNotesDetected = errors.New("no notes detected")

// NoNotesError reports how much input was considered when nothing survived
// matching and duration filtering.
type NoNotesError struct {
	Onsets       int
	PitchSamples int
}

func (e *NoNotesError) Error() string {
	return fmt.Sprintf("%v (onsets: %d, pitch samples: %d)", ErrNoNotesDetected, e.Onsets, e.PitchSamples)
}

func (e *NoNotesError) Is(target error) bool {
	return target == ErrNoNotesDetected
}

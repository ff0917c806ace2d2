package transcribe

import "github.com/pkg/errors"

// Config holds the policy constants of the transcriber. LookAhead, Gap and
// TerminalDuration are tuning values, not derived from acoustics.
type Config struct {
	// notes shorter than this are dropped before quantization and stretched
	// to it after quantization
	MinNoteDuration float64

	// grid size in milliseconds, 0 disables quantization
	QuantizeMs int

	// an onset without a pitch sample this close produces no note
	OnsetPitchTolerance float64

	// the next onset ending a note must be at least this far after its start
	LookAhead float64

	// space left between a note and the onset that ends it
	Gap float64

	// length of a note with no later onset
	TerminalDuration float64

	TrackName string
}

func DefaultConfig() Config {
	return Config{
		MinNoteDuration:     0.1,
		QuantizeMs:          50,
		OnsetPitchTolerance: 0.2,
		LookAhead:           0.1,
		Gap:                 0.05,
		TerminalDuration:    1.0,
		TrackName:           "Track 1",
	}
}

func (c Config) Validate() error {
	switch {
	case c.MinNoteDuration <= 0:
		return errors.Errorf("min note duration must be positive, got %v", c.MinNoteDuration)
	case c.QuantizeMs < 0:
		return errors.Errorf("quantize ms must not be negative, got %v", c.QuantizeMs)
	case c.OnsetPitchTolerance <= 0:
		return errors.Errorf("onset pitch tolerance must be positive, got %v", c.OnsetPitchTolerance)
	case c.LookAhead < 0 || c.Gap < 0:
		return errors.New("look ahead and gap must not be negative")
	case c.TerminalDuration <= 0:
		return errors.Errorf("terminal duration must be positive, got %v", c.TerminalDuration)
	}
	return nil
}

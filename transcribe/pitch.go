package transcribe

import (
	"math"

	"github.com/jsphweid/midicom/util"
)

const (
	concertA     = 440.0
	concertAMidi = 69

	baseVelocity = 80
)

// FrequencyToMidi maps a frequency to the nearest equal tempered midi key.
// Callers must not pass frequencies <= 0.
func FrequencyToMidi(hz float64) uint8 {
	key := math.Round(12*math.Log2(hz/concertA) + concertAMidi)
	return uint8(util.Clamp(key, 0, 127))
}

// Velocity is a heuristic: higher pitches are played louder. It does not
// model perceived loudness.
func Velocity(hz float64) uint8 {
	factor := util.Clamp(hz/concertA, 0.5, 1.5)
	return uint8(util.Clamp(math.Round(baseVelocity*factor), 1, 127))
}

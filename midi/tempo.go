package midi

import "math"

const (
	// DefaultTempo is the tempo assumed when a file carries no tempo event.
	DefaultTempo uint32 = 500000

	microsecondsPerMinute = 60000000
)

// BPMFromTempo converts microseconds per beat into beats per minute rounded
// to two decimal places.
func BPMFromTempo(microseconds uint32) float64 {
	if microseconds == 0 {
		microseconds = DefaultTempo
	}
	return math.Round(microsecondsPerMinute/float64(microseconds)*100) / 100
}

func TempoFromBPM(bpm float64) uint32 {
	if bpm <= 0 {
		return DefaultTempo
	}
	return uint32(math.Round(microsecondsPerMinute / bpm))
}

func SecondsPerTick(bpm float64, ticksPerBeat uint16) float64 {
	return (60 / bpm) / float64(ticksPerBeat)
}

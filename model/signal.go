package model

// PitchSample is one point of an externally estimated pitch track.
// A Frequency <= 0 means no pitch was detected at Time.
type PitchSample struct {
	Time      float64 `json:"time"`
	Frequency float64 `json:"frequency"`
}

func (p PitchSample) Voiced() bool {
	return p.Frequency > 0
}

func VoicedSamples(samples []PitchSample) []PitchSample {
	res := make([]PitchSample, 0, len(samples))
	for _, s := range samples {
		if s.Voiced() {
			res = append(res, s)
		}
	}
	return res
}

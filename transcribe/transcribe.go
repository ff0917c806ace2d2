package transcribe

import (
	"sort"

	"github.com/jsphweid/midicom/midi"
	"github.com/jsphweid/midicom/model"
	"github.com/pkg/errors"
)

const (
	BPM          = 120
	TicksPerBeat = 480
)

// pitchIndex answers nearest-sample queries over a sorted pitch track.
type pitchIndex struct {
	samples []model.PitchSample
}

func newPitchIndex(samples []model.PitchSample) pitchIndex {
	voiced := model.VoicedSamples(samples)
	sort.SliceStable(voiced, func(i, j int) bool {
		return voiced[i].Time < voiced[j].Time
	})
	return pitchIndex{samples: voiced}
}

// nearest returns the sample closest in time to t. On a tie the earlier
// sample wins.
func (p pitchIndex) nearest(t float64) (model.PitchSample, float64, bool) {
	if len(p.samples) == 0 {
		return model.PitchSample{}, 0, false
	}
	i := sort.Search(len(p.samples), func(i int) bool {
		return p.samples[i].Time >= t
	})
	best := -1
	var bestDist float64
	for _, c := range []int{i - 1, i} {
		if c < 0 || c >= len(p.samples) {
			continue
		}
		d := p.samples[c].Time - t
		if d < 0 {
			d = -d
		}
		if best < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	return p.samples[best], bestDist, true
}

// noteEnd is the first onset at least LookAhead after the note start, less
// Gap, or start+TerminalDuration when there is none.
func noteEnd(sortedOnsets []float64, start float64, cfg Config) float64 {
	i := sort.SearchFloat64s(sortedOnsets, start+cfg.LookAhead)
	if i < len(sortedOnsets) {
		return sortedOnsets[i] - cfg.Gap
	}
	return start + cfg.TerminalDuration
}

// Notes matches every onset with its nearest pitch sample and estimates the
// note length from the following onsets. Notes shorter than MinNoteDuration
// are dropped here; Quantize stretches instead.
func Notes(onsets []float64, pitches []model.PitchSample, cfg Config) []model.Note {
	sorted := make([]float64, len(onsets))
	copy(sorted, onsets)
	sort.Float64s(sorted)

	index := newPitchIndex(pitches)
	var res []model.Note
	for _, onset := range sorted {
		sample, dist, ok := index.nearest(onset)
		if !ok || dist > cfg.OnsetPitchTolerance {
			continue
		}
		duration := noteEnd(sorted, onset, cfg) - onset
		if duration < cfg.MinNoteDuration-gridEpsilon {
			continue
		}
		res = append(res, model.Note{
			Pitch:    FrequencyToMidi(sample.Frequency),
			Start:    onset,
			Duration: duration,
			Velocity: Velocity(sample.Frequency),
		})
	}
	return res
}

// Transcribe turns externally detected onsets and pitch samples into a
// single track timeline at a nominal 120 bpm.
func Transcribe(onsets []float64, pitches []model.PitchSample, cfg Config) (model.Timeline, error) {
	if err := cfg.Validate(); err != nil {
		return model.Timeline{}, err
	}

	notes := Notes(onsets, pitches, cfg)
	if len(notes) == 0 {
		return model.Timeline{}, &NoNotesError{
			Onsets:       len(onsets),
			PitchSamples: len(model.VoicedSamples(pitches)),
		}
	}
	notes = Quantize(notes, cfg.QuantizeMs, cfg.MinNoteDuration)

	name := cfg.TrackName
	if name == "" {
		name = DefaultConfig().TrackName
	}
	tracks := []model.Track{{Name: name, Notes: notes}}
	return model.Timeline{
		Duration:     model.TotalDuration(tracks),
		Tracks:       tracks,
		BPM:          BPM,
		TicksPerBeat: TicksPerBeat,
	}, nil
}

// Result is a transcription together with its midi encoding.
type Result struct {
	Timeline       model.Timeline
	Midi           []byte
	OnsetsDetected int
	PitchDetected  int
}

func (r Result) NumNotes() int {
	return r.Timeline.NoteCount()
}

// NoteDensity is notes per second of transcribed material.
func (r Result) NoteDensity() float64 {
	if r.Timeline.Duration <= 0 {
		return 0
	}
	return float64(r.NumNotes()) / r.Timeline.Duration
}

func TranscribeToMidi(onsets []float64, pitches []model.PitchSample, cfg Config) (Result, error) {
	res := Result{
		OnsetsDetected: len(onsets),
		PitchDetected:  len(model.VoicedSamples(pitches)),
	}
	tl, err := Transcribe(onsets, pitches, cfg)
	if err != nil {
		return res, err
	}
	data, err := midi.WriteTimeline(tl)
	if err != nil {
		return res, errors.Wrap(err, "encoding transcription")
	}
	res.Timeline = tl
	res.Midi = data
	return res, nil
}

package midi

import (
	"bytes"
	"math"
	"sort"

	"github.com/jsphweid/midicom/model"
	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const channel = 0

type noteEvent struct {
	tick     int64
	isOff    bool
	key      uint8
	velocity uint8
}

func toTicks(seconds, secondsPerTick float64) int64 {
	return int64(math.Round(seconds / secondsPerTick))
}

// noteEvents lays out the notes of one track on the tick grid. Notes shorter
// than a tick are lengthened to one tick. Every note keeps its own on and off
// event, even when it overlaps another note of the same key, so reading the
// file back yields the same number of notes.
func noteEvents(notes []model.Note, secondsPerTick float64) []noteEvent {
	sorted := make([]model.Note, len(notes))
	copy(sorted, notes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	res := make([]noteEvent, 0, 2*len(sorted))
	for _, n := range sorted {
		start := toTicks(n.Start, secondsPerTick)
		if start < 0 {
			start = 0
		}
		end := toTicks(n.End(), secondsPerTick)
		if end <= start {
			end = start + 1
		}
		res = append(res,
			noteEvent{tick: start, key: n.Pitch, velocity: n.Velocity},
			noteEvent{tick: end, isOff: true, key: n.Pitch},
		)
	}

	// note offs go first so a key can be struck again on the same tick
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].tick != res[j].tick {
			return res[i].tick < res[j].tick
		}
		return res[i].isOff && !res[j].isOff
	})
	return res
}

func buildTrack(t model.Track, tempo float64, withTempo bool, secondsPerTick float64) smf.Track {
	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName(t.Name))
	if withTempo {
		tr.Add(0, smf.MetaTempo(tempo))
	}

	var last int64
	for _, e := range noteEvents(t.Notes, secondsPerTick) {
		delta := uint32(e.tick - last)
		last = e.tick
		if e.isOff {
			tr.Add(delta, gomidi.NoteOff(channel, e.key))
			continue
		}
		vel := e.velocity
		if vel == 0 {
			vel = 1
		}
		tr.Add(delta, gomidi.NoteOn(channel, e.key, vel))
	}
	tr.Close(0)
	return tr
}

// WriteTimeline serializes the timeline as a format 1 midi file with one
// track per timeline track. The tempo is written into the first track.
func WriteTimeline(tl model.Timeline) ([]byte, error) {
	ticksPerBeat := tl.TicksPerBeat
	if ticksPerBeat == 0 {
		return nil, errors.New("writing midi: ticks per beat must be positive")
	}
	bpm := tl.BPM
	if bpm <= 0 {
		bpm = BPMFromTempo(DefaultTempo)
	}
	secondsPerTick := SecondsPerTick(bpm, ticksPerBeat)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerBeat)
	for i, t := range tl.Tracks {
		if err := s.Add(buildTrack(t, bpm, i == 0, secondsPerTick)); err != nil {
			return nil, errors.Wrapf(err, "adding track %q", t.Name)
		}
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "writing midi")
	}
	return buf.Bytes(), nil
}

package midi

import (
	"fmt"

	"github.com/jsphweid/midicom/model"
	"gitlab.com/gomidi/midi/v2/smf"
)

type timedEvent struct {
	tick    int64
	message smf.Message
}

// absoluteEvents pairs every event of the track with its absolute tick.
func absoluteEvents(track smf.Track) []timedEvent {
	res := make([]timedEvent, 0, len(track))
	var absTicks int64
	for _, evt := range track {
		absTicks += int64(evt.Delta)
		res = append(res, timedEvent{tick: absTicks, message: evt.Message})
	}
	return res
}

func tempoOf(track smf.Track) (uint32, bool) {
	var bpm float64
	for _, evt := range track {
		if evt.Message.GetMetaTempo(&bpm) && bpm > 0 {
			return TempoFromBPM(bpm), true
		}
	}
	return 0, false
}

// fileTempo takes the first tempo event of each track in file order and stops
// at the first one that differs from the default. Tempo changes later in the
// file are ignored.
func fileTempo(s *smf.SMF) uint32 {
	tempo := DefaultTempo
	for _, track := range s.Tracks {
		if t, ok := tempoOf(track); ok {
			tempo = t
		}
		if tempo != DefaultTempo {
			break
		}
	}
	return tempo
}

type tickNote struct {
	key      uint8
	velocity uint8
	start    int64
	end      int64
}

// pairNotes matches each note start with the next note end of the same key
// later in the track. Starts without an end are dropped, as are notes with no
// length in ticks.
func pairNotes(events []timedEvent) []tickNote {
	closes := make([]int, len(events))
	nextClose := make(map[uint8]int)
	var ch, key, vel uint8
	for i := len(events) - 1; i >= 0; i-- {
		closes[i] = -1
		msg := events[i].message
		if msg.GetNoteStart(&ch, &key, &vel) {
			if j, ok := nextClose[key]; ok {
				closes[i] = j
			}
		} else if msg.GetNoteEnd(&ch, &key) {
			nextClose[key] = i
		}
	}

	var res []tickNote
	for i, evt := range events {
		if !evt.message.GetNoteStart(&ch, &key, &vel) || closes[i] < 0 {
			continue
		}
		end := events[closes[i]].tick
		if end-evt.tick <= 0 {
			continue
		}
		res = append(res, tickNote{key: key, velocity: vel, start: evt.tick, end: end})
	}
	return res
}

func trackName(track smf.Track, position int) string {
	var name string
	for _, evt := range track {
		if evt.Message.GetMetaTrackName(&name) {
			return name
		}
	}
	return fmt.Sprintf("Track %d", position+1)
}

// ToTimeline converts a parsed midi file into a Timeline. Only tracks with at
// least one complete note are included.
func ToTimeline(s *smf.SMF) (model.Timeline, error) {
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return model.Timeline{}, malformed("unsupported time format %v", s.TimeFormat)
	}
	ticksPerBeat := uint16(ticks)
	if ticksPerBeat == 0 {
		return model.Timeline{}, malformed("zero ticks per beat")
	}

	bpm := BPMFromTempo(fileTempo(s))
	secondsPerTick := SecondsPerTick(bpm, ticksPerBeat)

	tracks := make([]model.Track, 0)
	for i, track := range s.Tracks {
		paired := pairNotes(absoluteEvents(track))
		if len(paired) == 0 {
			continue
		}
		notes := make([]model.Note, len(paired))
		for n, p := range paired {
			notes[n] = model.Note{
				Pitch:    p.key,
				Start:    float64(p.start) * secondsPerTick,
				Duration: float64(p.end-p.start) * secondsPerTick,
				Velocity: p.velocity,
			}
		}
		tracks = append(tracks, model.Track{Name: trackName(track, i), Notes: notes})
	}

	return model.Timeline{
		Duration:     model.TotalDuration(tracks),
		Tracks:       tracks,
		BPM:          bpm,
		TicksPerBeat: ticksPerBeat,
	}, nil
}

// ReadTimeline parses a standard midi file byte stream. A file without notes
// yields an empty Timeline, not an error.
func ReadTimeline(data []byte) (model.Timeline, error) {
	s, err := parse(data)
	if err != nil {
		return model.Timeline{}, err
	}
	return ToTimeline(s)
}

func ReadTimelineFile(path string) (model.Timeline, error) {
	s, err := ReadFile(path)
	if err != nil {
		return model.Timeline{}, err
	}
	return ToTimeline(s)
}

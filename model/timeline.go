package model

import "sort"

type Note struct {
	Pitch    uint8   `json:"midi"`
	Start    float64 `json:"time"`
	Duration float64 `json:"duration"`
	Velocity uint8   `json:"velocity"`
}

func (n Note) End() float64 {
	return n.Start + n.Duration
}

type Track struct {
	Name string `json:"name"`

	// set only on tracks merged from a multi-stem transcription
	Stem  string `json:"stem,omitempty"`
	Notes []Note `json:"notes"`
}

// SortedNotes returns a copy of the notes ordered by start time. Notes are
// not guaranteed to be stored in that order.
func (t Track) SortedNotes() []Note {
	res := make([]Note, len(t.Notes))
	copy(res, t.Notes)
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Start < res[j].Start
	})
	return res
}

type Timeline struct {
	Duration     float64 `json:"duration"`
	Tracks       []Track `json:"tracks"`
	BPM          float64 `json:"bpm"`
	TicksPerBeat uint16  `json:"ticksPerBeat"`
}

func (tl Timeline) NoteCount() int {
	var n int
	for _, t := range tl.Tracks {
		n += len(t.Notes)
	}
	return n
}

func (tl Timeline) IsEmpty() bool {
	return tl.NoteCount() == 0
}

// TotalDuration is the latest note end across all tracks, 0 without notes.
func TotalDuration(tracks []Track) float64 {
	var res float64
	for _, t := range tracks {
		for _, n := range t.Notes {
			if end := n.End(); end > res {
				res = end
			}
		}
	}
	return res
}

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/midicom/midi"
	"github.com/jsphweid/midicom/model"
	"github.com/jsphweid/midicom/transcribe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSignals(t *testing.T, stems ...model.StemSignals) string {
	t.Helper()
	dat, err := json.Marshal(model.TranscribeRequestBody{Stems: stems})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "signals.json")
	require.NoError(t, os.WriteFile(path, dat, 0666))
	return path
}

func TestTranscribeFileWritesOneMidiPerStem(t *testing.T) {
	lead := model.StemSignals{
		Name:    "lead vocal",
		Onsets:  []float64{0.5, 1.0},
		Pitches: []model.PitchSample{{Time: 0.5, Frequency: 440}, {Time: 1.0, Frequency: 494}},
	}
	silent := model.StemSignals{Name: "drums", Onsets: []float64{0.5}}
	out := filepath.Join(t.TempDir(), "out")

	require.NoError(t, transcribeFile(context.Background(), writeSignals(t, lead, silent), out, transcribe.DefaultConfig()))

	tl, err := midi.ReadTimelineFile(filepath.Join(out, "lead_vocal.mid"))
	require.NoError(t, err)
	assert.Equal(t, 2, tl.NoteCount())
	assert.NoFileExists(t, filepath.Join(out, "drums.mid"))
}

func TestTranscribeFileWithoutNotesReportsCounts(t *testing.T) {
	drums := model.StemSignals{Name: "drums", Onsets: []float64{0.5, 1.5}}
	fx := model.StemSignals{Name: "fx", Onsets: []float64{2}, Pitches: []model.PitchSample{{Time: 9, Frequency: 220}}}
	out := filepath.Join(t.TempDir(), "out")

	err := transcribeFile(context.Background(), writeSignals(t, drums, fx), out, transcribe.DefaultConfig())
	require.ErrorIs(t, err, transcribe.ErrNoNotesDetected)

	var noNotes *transcribe.NoNotesError
	require.True(t, errors.As(err, &noNotes))
	assert.Equal(t, 3, noNotes.Onsets)
	assert.Equal(t, 1, noNotes.PitchSamples)
}

func TestTranscribeFileRejectsCollidingStems(t *testing.T) {
	a := model.StemSignals{Name: "lead vocal"}
	b := model.StemSignals{Name: "lead_vocal"}
	err := transcribeFile(context.Background(), writeSignals(t, a, b), t.TempDir(), transcribe.DefaultConfig())
	assert.ErrorContains(t, err, "lead_vocal.mid")
}

package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jsphweid/midicom/file"
	"github.com/jsphweid/midicom/midi"
	"github.com/jsphweid/midicom/model"
	"github.com/jsphweid/midicom/store"
	"github.com/jsphweid/midicom/transcribe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	library, err := file.NewLibrary(t.TempDir(), 10*time.Millisecond)
	require.NoError(t, err)
	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	return NewServer(library, s, ServerConfig{Transcribe: transcribe.DefaultConfig(), Workers: 2}).Router()
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func sampleMidi(t *testing.T) []byte {
	t.Helper()
	data, err := midi.WriteTimeline(model.Timeline{
		BPM:          120,
		TicksPerBeat: 480,
		Tracks: []model.Track{{
			Name:  "piano",
			Notes: []model.Note{{Pitch: 60, Start: 0.5, Duration: 0.5, Velocity: 100}},
		}},
	})
	require.NoError(t, err)
	return data
}

func decode[A any](t *testing.T, w *httptest.ResponseRecorder) A {
	t.Helper()
	var res A
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
	return res
}

func TestHealth(t *testing.T) {
	w := do(newTestServer(t), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[model.HealthResponse](t, w).Status)
}

func TestParseMidi(t *testing.T) {
	h := newTestServer(t)
	w := do(h, httptest.NewRequest(http.MethodPost, "/midi/parse", bytes.NewReader(sampleMidi(t))))
	require.Equal(t, http.StatusOK, w.Code)

	tl := decode[model.Timeline](t, w)
	assert.Equal(t, 120.0, tl.BPM)
	assert.Equal(t, uint16(480), tl.TicksPerBeat)
	require.Len(t, tl.Tracks, 1)
	assert.Equal(t, "piano", tl.Tracks[0].Name)
	assert.InDelta(t, 1.0, tl.Duration, 1e-9)

	// field names of the wire format
	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Contains(t, raw, "ticksPerBeat")
	note := raw["tracks"].([]any)[0].(map[string]any)["notes"].([]any)[0].(map[string]any)
	assert.Equal(t, 60.0, note["midi"])
	assert.InDelta(t, 0.5, note["time"], 1e-9)
}

func TestParseMalformedMidi(t *testing.T) {
	w := do(newTestServer(t), httptest.NewRequest(http.MethodPost, "/midi/parse", bytes.NewReader([]byte("nope"))))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[model.ErrorResponse](t, w).Error, "malformed midi")
}

func transcribeBody(t *testing.T, stems ...model.StemSignals) io.Reader {
	t.Helper()
	data, err := json.Marshal(model.TranscribeRequestBody{Stems: stems})
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func TestTranscribeStoresJob(t *testing.T) {
	h := newTestServer(t)
	bass := model.StemSignals{
		Name:    "bass",
		Onsets:  []float64{1.00, 2.00},
		Pitches: []model.PitchSample{{Time: 1.01, Frequency: 440}, {Time: 2.02, Frequency: 880}},
	}
	drums := model.StemSignals{Name: "drums", Onsets: []float64{0.5}}

	w := do(h, httptest.NewRequest(http.MethodPost, "/transcribe", transcribeBody(t, bass, drums)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[model.TranscribeResponse](t, w)
	assert.Equal(t, "success", res.Status)
	assert.True(t, store.ValidJobId(res.JobId))
	assert.Equal(t, map[string]string{"bass": "bass.mid"}, res.MidiFiles)
	require.Len(t, res.MidiData.Tracks, 1)
	assert.Equal(t, "bass", res.MidiData.Tracks[0].Stem)
	assert.Len(t, res.MidiData.Tracks[0].Notes, 2)
	assert.Equal(t, 2, res.Metadata.TotalNotes)
	assert.Equal(t, []string{"bass", "drums"}, res.Metadata.Stems)
	assert.False(t, res.Metadata.Details["drums"].Success)

	w = do(h, httptest.NewRequest(http.MethodGet, "/transcribe/status/"+res.JobId, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, res.JobId, decode[model.JobMetadata](t, w).JobId)

	w = do(h, httptest.NewRequest(http.MethodGet, "/transcribe/"+res.JobId+"/midi/bass", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/midi", w.Header().Get("Content-Type"))
	tl, err := midi.ReadTimeline(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, tl.NoteCount())

	w = do(h, httptest.NewRequest(http.MethodGet, "/transcribe/"+res.JobId+"/midi/drums", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTranscribeWithoutNotes(t *testing.T) {
	silent := model.StemSignals{Name: "drums", Onsets: []float64{0.5, 1.5}}
	w := do(newTestServer(t), httptest.NewRequest(http.MethodPost, "/transcribe", transcribeBody(t, silent)))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode[model.ErrorResponse](t, w).Error, "onsets: 2")
}

func TestTranscribeBadRequests(t *testing.T) {
	h := newTestServer(t)
	cases := map[string]string{
		"not json":      `{`,
		"no stems":      `{"stems": []}`,
		"unnamed":       `{"stems": [{"onsets": [1]}]}`,
		"duplicate":     `{"stems": [{"name": "a"}, {"name": "a"}]}`,
		"same file":     `{"stems": [{"name": "lead vocal"}, {"name": "lead_vocal"}]}`,
		"case only":     `{"stems": [{"name": "Bass"}, {"name": "bass"}]}`,
		"negative grid": `{"stems": [{"name": "a"}], "quantizeMs": -5}`,
		"zero minimum":  `{"stems": [{"name": "a"}], "minNoteDuration": 0}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(h, httptest.NewRequest(http.MethodPost, "/transcribe", bytes.NewReader([]byte(body))))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestUnknownJob(t *testing.T) {
	h := newTestServer(t)
	for _, path := range []string{"/transcribe/status/" + store.NewJobId(), "/transcribe/status/not-a-job"} {
		w := do(h, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func upload(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("midi_file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-midi", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadAndReadLibraryFile(t *testing.T) {
	h := newTestServer(t)

	w := do(h, upload(t, "song.mid", sampleMidi(t)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "song.mid", decode[model.UploadResponse](t, w).Filename)

	w = do(h, httptest.NewRequest(http.MethodGet, "/midi/song.mid", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[model.Timeline](t, w).NoteCount())

	assert.Eventually(t, func() bool {
		w := do(h, httptest.NewRequest(http.MethodGet, "/midi", nil))
		var entries []model.LibraryEntry
		return json.Unmarshal(w.Body.Bytes(), &entries) == nil && len(entries) == 1
	}, 2*time.Second, 20*time.Millisecond)

	w = do(h, httptest.NewRequest(http.MethodGet, "/midi/missing.mid", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadRejectsBadFiles(t *testing.T) {
	h := newTestServer(t)

	w := do(h, upload(t, "song.mid", []byte("not midi")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(h, upload(t, "song.wav", sampleMidi(t)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCorsHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := do(newTestServer(t), req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

package model

type StemSignals struct {
	Name    string        `json:"name"`
	Onsets  []float64     `json:"onsets"`
	Pitches []PitchSample `json:"pitches"`
}

type TranscribeRequestBody struct {
	Stems           []StemSignals `json:"stems"`
	MinNoteDuration *float64      `json:"minNoteDuration,omitempty"`
	QuantizeMs      *int          `json:"quantizeMs,omitempty"`
}

type TranscribeResponse struct {
	Status    string            `json:"status"`
	JobId     string            `json:"jobId"`
	Metadata  JobMetadata       `json:"metadata"`
	MidiData  Timeline          `json:"midi_data"`
	MidiFiles map[string]string `json:"midi_files"`
}

type LibraryEntry struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

type UploadResponse struct {
	Filename string `json:"filename"`
	Size     int    `json:"size"`
	Message  string `json:"message"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}

package model

import "time"

type StemSummary struct {
	Success        bool    `json:"success"`
	Error          string  `json:"error,omitempty"`
	NumNotes       int     `json:"num_notes"`
	Duration       float64 `json:"duration"`
	OnsetsDetected int     `json:"onsets_detected"`
	PitchDetected  int     `json:"pitch_detected"`
	NoteDensity    float64 `json:"note_density"`
}

type JobParameters struct {
	MinNoteDuration float64 `json:"min_note_duration"`
	QuantizeMs      int     `json:"quantize_ms"`
}

// JobMetadata describes one stored transcription request.
type JobMetadata struct {
	JobId      string                 `json:"job_id"`
	CreatedAt  time.Time              `json:"created_at"`
	Parameters JobParameters          `json:"parameters"`
	Stems      []string               `json:"stems"`
	TotalNotes int                    `json:"total_notes"`
	Complete   bool                   `json:"processing_complete"`
	Details    map[string]StemSummary `json:"transcription_details"`
}

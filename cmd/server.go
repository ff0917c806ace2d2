package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/jsphweid/midicom/constants"
	"github.com/jsphweid/midicom/file"
	"github.com/jsphweid/midicom/midi"
	"github.com/jsphweid/midicom/model"
	"github.com/jsphweid/midicom/stem"
	"github.com/jsphweid/midicom/store"
	"github.com/jsphweid/midicom/transcribe"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

type ServerConfig struct {
	Transcribe     transcribe.Config
	Workers        int
	AllowedOrigins []string
}

type Server struct {
	library *file.Library
	store   *store.Store
	cfg     ServerConfig
}

func NewServer(library *file.Library, s *store.Store, cfg ServerConfig) *Server {
	return &Server{library: library, store: s, cfg: cfg}
}

func (s *Server) Router() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(logRequests)
	router.HandleFunc("/", s.handleRoot).Methods("GET")
	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/transcribe", s.handleTranscribe).Methods("POST")
	router.HandleFunc("/transcribe/status/{jobId}", s.handleJobStatus).Methods("GET")
	router.HandleFunc("/transcribe/{jobId}/midi/{stem}", s.handleJobMidi).Methods("GET")
	router.HandleFunc("/midi", s.handleLibrary).Methods("GET")
	router.HandleFunc("/midi/parse", s.handleParse).Methods("POST")
	router.HandleFunc("/midi/{filename:.+}", s.handleLibraryFile).Methods("GET")
	router.HandleFunc("/upload-midi", s.handleUpload).Methods("POST")

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(router)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("encoding response")
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, midi.ErrMalformedMidi), errors.Is(err, file.ErrNotMidiFile):
		return http.StatusBadRequest
	case errors.Is(err, transcribe.ErrNoNotesDetected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrJobNotFound), errors.Is(err, file.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logrus.WithError(err).Error("request failed")
	}
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}

func badRequest(w http.ResponseWriter, format string, args ...any) {
	writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: fmt.Sprintf(format, args...)})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "midicom API server",
		"status":  "running",
		"endpoints": map[string]string{
			"transcribe": "POST /transcribe - onsets and pitch tracks per stem to midi",
			"status":     "GET /transcribe/status/{jobId} - metadata of a transcription",
			"download":   "GET /transcribe/{jobId}/midi/{stem} - midi file of one stem",
			"parse":      "POST /midi/parse - midi bytes to a note timeline",
			"library":    "GET /midi - sample midi files",
			"midi":       "GET /midi/{filename} - note timeline of a sample file",
			"upload":     "POST /upload-midi - add a sample midi file",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services: map[string]string{
			"api":             "ok",
			"midi_processing": "ok",
		},
	})
}

func (s *Server) transcribeConfig(body model.TranscribeRequestBody) transcribe.Config {
	cfg := s.cfg.Transcribe
	if body.MinNoteDuration != nil {
		cfg.MinNoteDuration = *body.MinNoteDuration
	}
	if body.QuantizeMs != nil {
		cfg.QuantizeMs = *body.QuantizeMs
	}
	return cfg
}

func validateStems(stems []model.StemSignals) error {
	if len(stems) == 0 {
		return errors.New("at least one stem is required")
	}
	// stems are stored by file name, which must not collide even on a
	// case-insensitive file system
	files := make(map[string]string)
	for _, st := range stems {
		if st.Name == "" {
			return errors.New("every stem needs a name")
		}
		key := strings.ToLower(store.MidiFilename(st.Name))
		if other, ok := files[key]; ok {
			if other == st.Name {
				return fmt.Errorf("duplicate stem %q", st.Name)
			}
			return fmt.Errorf("stems %q and %q would share the file %s", other, st.Name, store.MidiFilename(st.Name))
		}
		files[key] = st.Name
	}
	return nil
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	var body model.TranscribeRequestBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)).Decode(&body); err != nil {
		badRequest(w, "could not decode request body: %v", err)
		return
	}
	if err := validateStems(body.Stems); err != nil {
		badRequest(w, "%v", err)
		return
	}
	cfg := s.transcribeConfig(body)
	if err := cfg.Validate(); err != nil {
		badRequest(w, "%v", err)
		return
	}

	jobId := store.NewJobId()
	log := logrus.WithField("job", jobId)
	results, err := stem.TranscribeAll(r.Context(), body.Stems, cfg, s.cfg.Workers)
	if err != nil {
		writeError(w, err)
		return
	}

	merged := stem.Merge(results)
	if merged.IsEmpty() {
		writeError(w, stem.NoNotes(results))
		return
	}

	meta := model.JobMetadata{
		JobId:     jobId,
		CreatedAt: time.Now().UTC(),
		Parameters: model.JobParameters{
			MinNoteDuration: cfg.MinNoteDuration,
			QuantizeMs:      cfg.QuantizeMs,
		},
		TotalNotes: merged.NoteCount(),
		Complete:   true,
		Details:    make(map[string]model.StemSummary),
	}
	midiFiles := make(map[string]string)
	for _, res := range results {
		meta.Stems = append(meta.Stems, res.Name)
		meta.Details[res.Name] = res.Summary()
		if !res.Success() {
			log.WithField("stem", res.Name).WithError(res.Err).Warn("stem transcription failed")
			continue
		}
		filename, err := s.store.SaveMidi(jobId, res.Name, res.Midi)
		if err != nil {
			writeError(w, err)
			return
		}
		midiFiles[res.Name] = filename
		log.WithFields(logrus.Fields{
			"stem":    res.Name,
			"notes":   res.NumNotes(),
			"density": res.NoteDensity(),
		}).Info("stem transcribed")
	}
	if err := s.store.PutJob(meta); err != nil {
		writeError(w, err)
		return
	}
	log.WithField("notes", meta.TotalNotes).Info("transcription complete")

	writeJSON(w, http.StatusOK, model.TranscribeResponse{
		Status:    "success",
		JobId:     jobId,
		Metadata:  meta,
		MidiData:  merged,
		MidiFiles: midiFiles,
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	meta, err := s.store.GetJob(mux.Vars(r)["jobId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleJobMidi(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	data, err := s.store.ReadMidi(vars["jobId"], vars["stem"])
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", store.MidiFilename(vars["stem"])))
	w.Write(data)
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, constants.MaxUploadSize))
	if err != nil {
		badRequest(w, "could not read request body: %v", err)
		return
	}
	tl, err := midi.ReadTimeline(data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.library.Entries())
}

func (s *Server) handleLibraryFile(w http.ResponseWriter, r *http.Request) {
	path, err := s.library.Path(mux.Vars(r)["filename"])
	if err != nil {
		writeError(w, err)
		return
	}
	tl, err := midi.ReadTimelineFile(path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	f, header, err := r.FormFile("midi_file")
	if err != nil {
		badRequest(w, "expected a multipart midi_file field: %v", err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		badRequest(w, "could not read upload: %v", err)
		return
	}
	if _, err := midi.ReadTimeline(data); err != nil {
		writeError(w, err)
		return
	}
	size, err := s.library.Save(header.Filename, bytes.NewReader(data))
	if err != nil {
		writeError(w, err)
		return
	}
	logrus.WithFields(logrus.Fields{"file": header.Filename, "bytes": size}).Info("midi uploaded")
	writeJSON(w, http.StatusOK, model.UploadResponse{
		Filename: header.Filename,
		Size:     size,
		Message:  fmt.Sprintf("midi file %q uploaded", header.Filename),
	})
}

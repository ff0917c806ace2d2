package store

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/google/uuid"
	"github.com/jsphweid/midicom/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrJobNotFound = errors.New("job not found")

const metadataFilename = "metadata.dat"

// MetadataStore keeps the metadata of transcription jobs.
type MetadataStore interface {
	PutJob(meta model.JobMetadata) error
	GetJob(jobId string) (model.JobMetadata, error)
	ListJobs() ([]model.JobMetadata, error)
}

// Store writes job output under one directory per job.
type Store struct {
	dir  string
	meta MetadataStore
}

// New returns a Store rooted at dir. A nil meta keeps metadata next to the
// midi files.
func New(dir string, meta MetadataStore) (*Store, error) {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, errors.Wrapf(err, "creating output dir %s", dir)
	}
	s := &Store{dir: dir}
	if meta == nil {
		meta = &FileMetadataStore{dir: dir}
	}
	s.meta = meta
	return s, nil
}

func NewJobId() string {
	return uuid.New().String()
}

func ValidJobId(jobId string) bool {
	_, err := uuid.Parse(jobId)
	return err == nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// MidiFilename is the file name a stem's midi is stored under.
func MidiFilename(stemName string) string {
	name := unsafeChars.ReplaceAllString(stemName, "_")
	if name == "" || name == "." || name == ".." {
		name = "track"
	}
	return name + ".mid"
}

func (s *Store) jobDir(jobId string) (string, error) {
	if !ValidJobId(jobId) {
		return "", errors.Wrapf(ErrJobNotFound, "invalid job id %q", jobId)
	}
	return filepath.Join(s.dir, jobId), nil
}

func (s *Store) SaveMidi(jobId, stemName string, data []byte) (string, error) {
	dir, err := s.jobDir(jobId)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return "", errors.Wrapf(err, "creating job dir %s", dir)
	}
	filename := MidiFilename(stemName)
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0666); err != nil {
		return "", errors.Wrapf(err, "writing %s", path)
	}
	logrus.WithFields(logrus.Fields{"job": jobId, "stem": stemName, "bytes": len(data)}).Debug("saved midi")
	return filename, nil
}

func (s *Store) ReadMidi(jobId, stemName string) ([]byte, error) {
	dir, err := s.jobDir(jobId)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, MidiFilename(stemName)))
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrJobNotFound, "no midi for stem %q in job %s", stemName, jobId)
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading stored midi")
	}
	return data, nil
}

func (s *Store) PutJob(meta model.JobMetadata) error {
	return s.meta.PutJob(meta)
}

func (s *Store) GetJob(jobId string) (model.JobMetadata, error) {
	if !ValidJobId(jobId) {
		return model.JobMetadata{}, errors.Wrapf(ErrJobNotFound, "invalid job id %q", jobId)
	}
	return s.meta.GetJob(jobId)
}

func (s *Store) ListJobs() ([]model.JobMetadata, error) {
	return s.meta.ListJobs()
}

// FileMetadataStore gob-encodes each job's metadata into its job directory.
type FileMetadataStore struct {
	dir string
}

func NewFileMetadataStore(dir string) *FileMetadataStore {
	return &FileMetadataStore{dir: dir}
}

func (f *FileMetadataStore) PutJob(meta model.JobMetadata) error {
	dir := filepath.Join(f.dir, meta.JobId)
	if err := os.MkdirAll(dir, 0777); err != nil {
		return errors.Wrapf(err, "creating job dir %s", dir)
	}

	buf := new(bytes.Buffer)
	if err := gob.NewEncoder(buf).Encode(meta); err != nil {
		return errors.Wrap(err, "encoding job metadata")
	}
	path := filepath.Join(dir, metadataFilename)
	if err := os.WriteFile(path, buf.Bytes(), 0666); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

func readMetadata(path string) (model.JobMetadata, error) {
	var meta model.JobMetadata
	f, err := os.Open(path)
	if err != nil {
		return meta, err
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(&meta); err != nil {
		return meta, errors.Wrapf(err, "decoding %s", path)
	}
	return meta, nil
}

func (f *FileMetadataStore) GetJob(jobId string) (model.JobMetadata, error) {
	meta, err := readMetadata(filepath.Join(f.dir, jobId, metadataFilename))
	if os.IsNotExist(errors.Cause(err)) {
		return meta, errors.Wrapf(ErrJobNotFound, "job %s", jobId)
	}
	return meta, err
}

// ListJobs returns all stored jobs, oldest first.
func (f *FileMetadataStore) ListJobs() ([]model.JobMetadata, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", f.dir)
	}

	var res []model.JobMetadata
	for _, e := range entries {
		if !e.IsDir() || !ValidJobId(e.Name()) {
			continue
		}
		meta, err := readMetadata(filepath.Join(f.dir, e.Name(), metadataFilename))
		if err != nil {
			logrus.WithField("job", e.Name()).WithError(err).Warn("skipping job without readable metadata")
			continue
		}
		res = append(res, meta)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

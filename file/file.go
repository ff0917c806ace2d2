package file

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/midicom/model"
	"github.com/jsphweid/midicom/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound    = errors.New("midi file not found")
	ErrNotMidiFile = errors.New("only .mid and .midi files are accepted")
)

// Library is the directory of sample midi files. Its listing is cached and
// refreshed by rescans that are debounced, so a burst of uploads causes one
// walk of the directory.
type Library struct {
	dir    string
	rescan func(func())

	mu      sync.RWMutex
	entries []model.LibraryEntry
}

func NewLibrary(dir string, wait time.Duration) (*Library, error) {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, errors.Wrapf(err, "creating library dir %s", dir)
	}
	l := &Library{dir: dir, rescan: debounce.New(wait)}
	if err := l.Scan(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Library) Dir() string {
	return l.dir
}

// Scan walks the directory and replaces the cached listing.
func (l *Library) Scan() error {
	paths, err := util.GatherAllMidiPaths(l.dir, 0)
	if err != nil {
		return err
	}
	entries := make([]model.LibraryEntry, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(l.dir, p)
		if err != nil {
			continue
		}
		entries = append(entries, model.LibraryEntry{Filename: filepath.ToSlash(rel), Size: info.Size()})
	}

	l.mu.Lock()
	l.entries = entries
	l.mu.Unlock()
	logrus.WithFields(logrus.Fields{"dir": l.dir, "files": len(entries)}).Debug("scanned midi library")
	return nil
}

func (l *Library) ScheduleScan() {
	l.rescan(func() {
		if err := l.Scan(); err != nil {
			logrus.WithError(err).Warn("rescanning midi library")
		}
	})
}

func (l *Library) Entries() []model.LibraryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	res := make([]model.LibraryEntry, len(l.entries))
	copy(res, l.entries)
	return res
}

// Path resolves a library file name, refusing names that leave the library.
func (l *Library) Path(name string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(name))
	if !util.IsMidiPath(clean) {
		return "", errors.Wrapf(ErrNotFound, "%q", name)
	}
	path := filepath.Join(l.dir, clean)
	if _, err := os.Stat(path); err != nil {
		return "", errors.Wrapf(ErrNotFound, "%q", name)
	}
	return path, nil
}

// Save stores an uploaded midi file under its base name and schedules a
// rescan.
func (l *Library) Save(name string, r io.Reader) (int, error) {
	base := filepath.Base(filepath.FromSlash(name))
	if !util.IsMidiPath(base) || strings.HasPrefix(base, ".") {
		return 0, errors.Wrapf(ErrNotMidiFile, "%q", name)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, errors.Wrap(err, "reading upload")
	}
	path := filepath.Join(l.dir, base)
	if err := os.WriteFile(path, data, 0666); err != nil {
		return 0, errors.Wrapf(err, "writing %s", path)
	}
	l.ScheduleScan()
	return len(data), nil
}

package file

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRescansAfterBurst(t *testing.T) {
	lib, err := NewLibrary(t.TempDir(), 20*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, lib.Entries())

	for _, name := range []string{"a.mid", "b.mid", "c.midi"} {
		_, err := lib.Save(name, strings.NewReader("MThd"))
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool {
		return len(lib.Entries()) == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "a.mid", lib.Entries()[0].Filename)
	assert.Equal(t, int64(4), lib.Entries()[0].Size)
}

func TestSaveRejectsNonMidi(t *testing.T) {
	lib, err := NewLibrary(t.TempDir(), time.Millisecond)
	require.NoError(t, err)

	for _, name := range []string{"song.wav", ".mid", "noext"} {
		_, err := lib.Save(name, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrNotMidiFile, name)
	}
}

func TestSaveUsesBaseName(t *testing.T) {
	dir := t.TempDir()
	lib, err := NewLibrary(dir, time.Millisecond)
	require.NoError(t, err)

	_, err = lib.Save("../../outside.mid", strings.NewReader("MThd"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "outside.mid"))
	assert.NoError(t, err)
}

func TestPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "song.mid"), []byte("MThd"), 0666))
	lib, err := NewLibrary(dir, time.Millisecond)
	require.NoError(t, err)

	path, err := lib.Path("song.mid")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "song.mid"), path)

	for _, name := range []string{"missing.mid", "../song.mid/../../etc/passwd", "song"} {
		_, err := lib.Path(name)
		assert.ErrorIs(t, err, ErrNotFound, name)
	}
}

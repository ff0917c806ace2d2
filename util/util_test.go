package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(0.5, Clamp(0.1, 0.5, 1.5))
	assert.Equal(1.5, Clamp(3.0, 0.5, 1.5))
	assert.Equal(1.0, Clamp(1.0, 0.5, 1.5))
	assert.Equal(127, Clamp(200, 0, 127))
}

func TestGetSortedKeys(t *testing.T) {
	m := map[string]int{"vocals": 1, "bass": 2, "drums": 3}
	assert.Equal(t, []string{"bass", "drums", "vocals"}, GetSortedKeys(m))
}

func TestSumAndMinMax(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(uint64(6), Sum([]uint8{1, 2, 3}))
	assert.Equal(2, Min(2, 5))
	assert.Equal(5, Max(2, 5))
}

func TestGatherAllMidiPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.mid", "b.MIDI", "notes.txt", "sub/c.mid"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0777))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0666))
	}

	all, err := GatherAllMidiPaths(dir, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.mid"),
		filepath.Join(dir, "b.MIDI"),
		filepath.Join(dir, "sub/c.mid"),
	}, all)

	limited, err := GatherAllMidiPaths(dir, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	_, err = GatherAllMidiPaths(filepath.Join(dir, "missing"), 0)
	assert.Error(t, err)
}

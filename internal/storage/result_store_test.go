package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/udlc/internal/analytics/detection"
	"github.com/soltixdb/udlc/internal/compression"
)

func sampleTable() detection.Table {
	return detection.Table{
		{Period: 10, Amplitude: 0.81, FAP: 0.0012, State: detection.StateConvergedOnBand, Iterations: 9},
		{Period: 20, Amplitude: 1000, FAP: 0.2, State: detection.StateConvergedAtBoundary, Iterations: 31},
	}
}

func TestResultStore_SaveLoadDelete(t *testing.T) {
	for _, algo := range []compression.Algorithm{compression.None, compression.Snappy} {
		t.Run(string(algo), func(t *testing.T) {
			c, err := compression.GetCompressor(algo)
			require.NoError(t, err)
			store, err := NewResultStore(filepath.Join(t.TempDir(), "results"), c)
			require.NoError(t, err)

			require.NoError(t, store.Save("job-1", sampleTable()))
			got, err := store.Load("job-1")
			require.NoError(t, err)
			assert.Equal(t, sampleTable(), got)

			ids, err := store.List()
			require.NoError(t, err)
			assert.Equal(t, []string{"job-1"}, ids)

			require.NoError(t, store.Delete("job-1"))
			_, err = store.Load("job-1")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, store.Delete("job-1"), ErrNotFound)
		})
	}
}

func TestResultStore_Overwrite(t *testing.T) {
	store, err := NewResultStore(t.TempDir(), compression.NewSnappyCompressor())
	require.NoError(t, err)

	require.NoError(t, store.Save("a", sampleTable()))
	require.NoError(t, store.Save("a", sampleTable()[:1]))

	got, err := store.Load("a")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestResultStore_InvalidID(t *testing.T) {
	store, err := NewResultStore(t.TempDir(), nil)
	require.NoError(t, err)

	for _, id := range []string{"", "../escape", "a/b", "a.b"} {
		assert.ErrorIs(t, store.Save(id, sampleTable()), ErrInvalidID, id)
		_, err := store.Load(id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
	}
}

func TestResultStore_ListIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewResultStore(dir, compression.NewSnappyCompressor())
	require.NoError(t, err)

	require.NoError(t, store.Save("b", sampleTable()))
	require.NoError(t, store.Save("a", sampleTable()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".partial-1.tmp"), []byte("x"), 0o644))

	ids, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

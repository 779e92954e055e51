package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "stats.json")

	require.NoError(t, WriteFileAtomic(testFile, []byte("first"), 0644))
	require.NoError(t, WriteFileAtomic(testFile, []byte("second"), 0600))

	data, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(testFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// No temp files remain
	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "stats.json", entries[0].Name())
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	t.Parallel()

	err := WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "stats.json"), []byte("x"), 0644)
	assert.ErrorContains(t, err, "failed to create temp file")
}

func TestWriteJSONAtomic(t *testing.T) {
	t.Parallel()

	testFile := filepath.Join(t.TempDir(), "summary.json")
	require.NoError(t, WriteJSONAtomic(testFile, map[string]int{"rounds": 3}, 0644))

	data, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rounds": 3}`, string(data))
}

package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteIfChangedTracked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diagram.txt")

	written, err := WriteIfChangedTracked(path, []byte("a"))
	require.NoError(t, err)
	assert.True(t, written)

	written, err = WriteIfChangedTracked(path, []byte("a"))
	require.NoError(t, err)
	assert.False(t, written)

	written, err = WriteIfChangedTracked(path, []byte("b"))
	require.NoError(t, err)
	assert.True(t, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
}

func TestWriteIfChangedFailsWithoutDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "diagram.txt")
	assert.Error(t, WriteIfChanged(path, []byte("a")))

	require.NoError(t, EnsureDir(filepath.Dir(path)))
	assert.NoError(t, WriteIfChanged(path, []byte("a")))
}

func TestWriteIfMissingKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", ".flowdoc.yaml")

	require.NoError(t, WriteIfMissing(path, []byte("first"), 0644))
	require.NoError(t, WriteIfMissing(path, []byte("second"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestHashBytesMatchesHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.cc")
	require.NoError(t, os.WriteFile(path, []byte("int main() {}\n"), 0644))

	fromFile, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, HashBytes([]byte("int main() {}\n")), fromFile)
	assert.Len(t, fromFile, 16)
}

func TestDedupeAndSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"b", "a"}, DedupeStrings([]string{"b", "a", "b"}))
	assert.Equal(t, []string{"a", "b"}, MapKeysSorted(map[string]int{"b": 1, "a": 2}))
}

package syntax

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTree struct {
	path   string
	lines  []string
	closed *int
}

func (m *mockTree) Path() string { return m.path }
func (m *mockTree) Lines() []string { return m.lines }
func (m *mockTree) Root() Node { return nil }
func (m *mockTree) NodeAt(line, column int) Node { return nil }
func (m *mockTree) Close() {
	if m.closed != nil {
		*m.closed++
	}
}

type mockProvider struct {
	lang   string
	exts   []string
	parsed *int
	closed *int
}

func (m mockProvider) Language() string {
	return m.lang
}

func (m mockProvider) Extensions() []string {
	return m.exts
}

func (m mockProvider) Parse(filename string, content []byte) (Tree, error) {
	if m.parsed != nil {
		*m.parsed++
	}
	return &mockTree{path: filename, lines: []string{string(content)}, closed: m.closed}, nil
}

func TestRegistryProviderForFile(t *testing.T) {
	r := NewRegistry()
	r.Register(mockProvider{lang: "mock", exts: []string{".mock"}})

	p, ok := r.ProviderForFile("demo.MOCK")
	require.True(t, ok, "expected provider for .MOCK extension")
	assert.Equal(t, "mock", p.Language())

	_, ok = r.ProviderForFile("demo.txt")
	assert.False(t, ok)
	assert.Equal(t, []string{".mock"}, r.SupportedExtensions())
}

func TestParseFileRejectsUnsupportedExtension(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")
	mustWriteFile(t, path, "hello")

	r := NewRegistry()
	r.Register(mockProvider{lang: "mock", exts: []string{".mock"}})

	_, err := r.ParseFile(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFile))
}

func TestCollectRespectsIgnoreRules(t *testing.T) {
	root := t.TempDir()
	r := NewRegistry()
	r.Register(mockProvider{lang: "mock", exts: []string{".mock"}})

	mustWriteFile(t, filepath.Join(root, "keep.mock"), "ok")
	mustWriteFile(t, filepath.Join(root, "readme.txt"), "no")
	mustWriteFile(t, filepath.Join(root, "skip", "ignored.mock"), "x")
	mustWriteFile(t, filepath.Join(root, "skip", "include.mock"), "y")
	mustWriteFile(t, filepath.Join(root, "flowdoc", "generated.mock"), "z")

	result, err := r.Collect([]string{root}, []string{
		"skip/*",
		"!skip/include.mock",
	})
	require.NoError(t, err)

	want := []string{
		filepath.Join(root, "keep.mock"),
		filepath.Join(root, "skip", "include.mock"),
	}
	assert.Equal(t, want, result.Files)
	assert.Empty(t, result.Issues)
}

func TestCollectTakesFilesAsGiven(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "b.mock")
	b := filepath.Join(root, "a.mock")
	mustWriteFile(t, a, "1")
	mustWriteFile(t, b, "2")

	r := NewRegistry()
	r.Register(mockProvider{lang: "mock", exts: []string{".mock"}})

	result, err := r.Collect([]string{a, b, a}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{b, a}, result.Files)

	_, err = r.Collect([]string{filepath.Join(root, "missing.mock")}, nil)
	assert.Error(t, err)
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

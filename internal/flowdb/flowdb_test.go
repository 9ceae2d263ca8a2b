package flowdb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/morozRed/flowdoc/internal/annotation"
	"github.com/morozRed/flowdoc/internal/languages"
	"github.com/morozRed/flowdoc/internal/logging"
	"github.com/morozRed/flowdoc/internal/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFixture(t *testing.T, rel string) syntax.Tree {
	t.Helper()
	tree, err := languages.NewDefaultRegistry().ParseFile(filepath.Join("..", "..", "fixtures", rel))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func TestBuildRecordsAnnotatedCallables(t *testing.T) {
	b := &Builder{Logger: logging.Discard()}
	records := b.Build(context.Background(), parseFixture(t, "cpp/shower.cc"))

	assert.Equal(t, []Record{
		{USR: "c:@S@Shower@F@check", MaxZoom: 0, Signature: "int Shower::check(int)"},
		{USR: "c:@S@Shower@F@pTnext", MaxZoom: 2, Signature: "double Shower::pTnext(Event &, double)"},
		{USR: "c:@S@Shower@F@branch", MaxZoom: 1, Signature: "bool Shower::branch(Event &)"},
	}, records)
}

func TestBuildSkipsCallablesWithoutZeroLevelAction(t *testing.T) {
	src := []byte(`void only_fine() {
  //$1 detail without a summary
  work();
}

void annotated() {
  //$ summary
  //$2 detail without level one
  work();
}
`)
	tree, err := languages.NewCppProvider().Parse("levels.cc", src)
	require.NoError(t, err)
	defer tree.Close()

	records := (&Builder{}).Build(context.Background(), tree)
	require.Len(t, records, 1)
	assert.Equal(t, "c:@F@annotated", records[0].USR)
	assert.Equal(t, annotation.Zoom(0), records[0].MaxZoom)
}

func TestWriteFileIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	records := (&Builder{}).Build(context.Background(), parseFixture(t, "cpp/accept.cc"))

	path, written, err := WriteFile(dir, "src/accept.cc", records)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, filepath.Join(dir, "accept.flowdb"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "c:@F@acceptWeight\t0\tdouble acceptWeight(Event &)\n", string(data))

	_, written, err = WriteFile(dir, "src/accept.cc", records)
	require.NoError(t, err)
	assert.False(t, written)

	back, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, records, back)
}

func TestWriteFileCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "aux", "files")
	path, written, err := WriteFile(dir, "a.cc", nil)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, filepath.Join(dir, "a.flowdb"), path)
	assert.FileExists(t, path)
}

func TestWriteFileFailsWhenDirectoryIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "aux")
	mustWrite(t, blocker, "not a directory")
	_, _, err := WriteFile(filepath.Join(blocker, "files"), "a.cc", nil)
	assert.Error(t, err)
}

func TestLoadIndexesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.flowdb"),
		"c:@F@run\t1\tvoid run()\nc:@S@Shower@F@pTnext\t2\tdouble Shower::pTnext(Event &, double)\n")
	mustWrite(t, filepath.Join(dir, "b.flowdb"),
		"c:@F@run\t0\tvoid run()\ngo:fixtures.Worker.Run\t0\terror Worker.Run(context.Context)\n")
	mustWrite(t, filepath.Join(dir, "notes.txt"), "ignored")

	db, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, db.Len())
	assert.Equal(t, []string{"a", "b"}, db.Files())

	e, ok := db.Lookup("c:@F@run")
	require.True(t, ok)
	assert.Equal(t, "a", e.File)
	assert.Equal(t, annotation.Zoom(1), e.MaxZoom)

	e, ok = db.LookupName("pTnext")
	require.True(t, ok)
	assert.Equal(t, "c:@S@Shower@F@pTnext", e.USR)

	_, ok = db.Lookup("c:@F@missing")
	assert.False(t, ok)

	assert.Len(t, db.EntriesFor("b"), 1)
}

func TestLookupNameRejectsAmbiguousNames(t *testing.T) {
	db := NewDatabase([]Entry{
		{Record: Record{USR: "c:@S@A@F@step"}, File: "a"},
		{Record: Record{USR: "c:@S@B@F@step"}, File: "b"},
	})
	_, ok := db.LookupName("step")
	assert.False(t, ok)
}

func TestDecodeRejectsMalformedLines(t *testing.T) {
	_, err := Decode(strings.NewReader("c:@F@run\t7\tvoid run()\n"))
	assert.True(t, errors.Is(err, ErrMalformed))

	_, err = Decode(strings.NewReader("c:@F@run\tvoid run()\n"))
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestNameOf(t *testing.T) {
	assert.Equal(t, "pTnext", NameOf("c:@S@Shower@F@pTnext"))
	assert.Equal(t, "Run", NameOf("go:fixtures.Worker.Run"))
	assert.Equal(t, "main", NameOf("main"))
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/morozRed/flowdoc/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioSources = `void run();
void prepare();
void detail();
void finish();

void branchOnly(bool cond) {
  if (cond) {
    //$ do work
    run();
  }
}

void twoSteps() {
  //$ step one
  //$ step two
  run();
}

void nested() {
  //$ outer step
  prepare();
  //$1 inner step
  detail();
  //$ after
  finish();
}

int caller(int x) {
  //$ Call the helper
  int result = 0;
  result = helper(x); //$
  return result;
}
`

const helperSource = `int helper(int x) {
  //$ Double the input
  return x * 2;
}
`

func generate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "src", "scenarios.cc"), scenarioSources)
	mustWriteFile(t, filepath.Join(root, "src", "helper.cc"), helperSource)
	t.Chdir(root)

	cmd := cli.NewRootCommand(version)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"run", "src"})
	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "run complete in ")
	return filepath.Join(root, "flowdoc")
}

func readDiagram(t *testing.T, outDir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(outDir, "aux_files", name+".txt"))
	require.NoError(t, err)
	doc := string(data)
	require.True(t, strings.HasPrefix(doc, "@startuml\n"), doc)
	require.True(t, strings.HasSuffix(doc, "\n@enduml"), doc)
	return doc
}

func TestBranchWithoutElseGetsSynthesizedElse(t *testing.T) {
	outDir := generate(t)
	doc := readDiagram(t, outDir, "cFbranchOnly")

	assert.Contains(t, doc, "\nif (cond ?) then(yes)\n   :#84add6:do work;\nelse(no)\nendif\n")
	assert.NoFileExists(t, filepath.Join(outDir, "aux_files", "cFbranchOnly1.txt"))
}

func TestAdjacentActionsMergeIntoOneBlock(t *testing.T) {
	outDir := generate(t)
	doc := readDiagram(t, outDir, "cFtwoSteps")

	assert.Contains(t, doc, ":#84add6:step one\\nstep two;\n")
	assert.Equal(t, 1, strings.Count(doc, ":#84add6:"))
}

func TestFinerActionNestsInsideCoarserContainer(t *testing.T) {
	outDir := generate(t)

	zoomed := readDiagram(t, outDir, "cFnested1")
	container := strings.Index(zoomed, "partition #84add6 \"outer step\" {\n")
	inner := strings.Index(zoomed, ":#b2cce5:inner step;\n")
	closing := strings.Index(zoomed, "}\n")
	after := strings.Index(zoomed, ":#84add6:after;")
	require.True(t, container >= 0 && inner > container && closing > inner && after > closing, zoomed)

	collapsed := readDiagram(t, outDir, "cFnested")
	assert.Contains(t, collapsed, ":#84add6:outer step;\n")
	assert.NotContains(t, collapsed, "inner step")
	assert.NotContains(t, collapsed, "partition")
}

func TestHighlightLinksAcrossFiles(t *testing.T) {
	outDir := generate(t)
	doc := readDiagram(t, outDir, "cFcaller")

	assert.Contains(t, doc, "int helper(int) -- [[helper.html#cFhelper link]]")

	page, err := os.ReadFile(filepath.Join(outDir, "helper.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), `id="cFhelper"`)
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

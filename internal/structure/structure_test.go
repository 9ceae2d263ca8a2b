package structure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/morozRed/flowdoc/internal/annotation"
	"github.com/morozRed/flowdoc/internal/languages"
	"github.com/morozRed/flowdoc/internal/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gradeSource = `int grade(int x) {
  if (x > 90) {
    return 1;
  } else if (x > 50) {
    return 2;
  } else if (x > 10) {
    return 3;
  } else {
    return 4;
  }
}

int clamp(int x) {
  if (x > 10) {
    x = 10;
  }
  return x;
}
`

func parseFile(t *testing.T, path string) syntax.Tree {
	t.Helper()
	tree, err := languages.NewDefaultRegistry().ParseFile(path)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func parseSource(t *testing.T, name, source string) syntax.Tree {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return parseFile(t, path)
}

func callable(t *testing.T, tree syntax.Tree, name string) syntax.Node {
	t.Helper()
	var found syntax.Node
	syntax.Walk(tree.Root(), func(n syntax.Node) bool {
		if found != nil {
			return false
		}
		if d, ok := n.(syntax.Declared); ok && n.Kind().IsCallable() && d.Name() == name {
			found = n
			return false
		}
		return true
	})
	require.NotNil(t, found, "callable %s not found", name)
	return found
}

func beginLines(b Blocks) []int {
	lines := make([]int, 0, b.Len())
	for _, item := range b.Items() {
		lines = append(lines, item.Begin)
	}
	return lines
}

func TestFindIfsStopsAtFirstIf(t *testing.T) {
	tree := parseFile(t, "../../fixtures/cpp/shower.cc")
	fn := callable(t, tree, "pTnext")

	ifs := FindIfs(fn)
	assert.Equal(t, []int{27, 37, 42}, beginLines(ifs))

	block, ok := ifs.At(42)
	require.True(t, ok)
	assert.Equal(t, 45, block.End)
	assert.Equal(t, "pTmax > scale", IfCondition(block.Node))

	_, ok = ifs.At(28)
	assert.False(t, ok)
}

func TestFindIfsSkipsElseIfs(t *testing.T) {
	tree := parseSource(t, "grade.cc", gradeSource)
	fn := callable(t, tree, "grade")

	ifs := FindIfs(fn)
	assert.Equal(t, []int{2}, beginLines(ifs))
}

func TestFindLoops(t *testing.T) {
	tree := parseFile(t, "../../fixtures/cpp/shower.cc")

	loops := FindLoops(callable(t, tree, "pTnext"))
	require.Equal(t, []int{33}, beginLines(loops))
	loop := loops.Items()[0]
	assert.Equal(t, 40, loop.End)
	assert.Equal(t, For, KindOf(loop.Node))
	assert.Equal(t, "FOR (int i = 0; i < event . size ( ); ++ i)", LoopText(loop.Node))

	loops = FindLoops(callable(t, tree, "branch"))
	require.Equal(t, []int{53}, beginLines(loops))
	loop = loops.Items()[0]
	assert.Equal(t, 56, loop.End)
	assert.Equal(t, DoWhile, KindOf(loop.Node))
	assert.Equal(t, "tries < 10", LoopText(loop.Node))
}

func TestLoopTextGo(t *testing.T) {
	source := `package sample

func drain(items []string, ready func() bool) {
	for _, item := range items {
		_ = item
	}
	for ready() {
	}
	for {
		break
	}
}
`
	tree := parseSource(t, "sample.go", source)
	loops := FindLoops(callable(t, tree, "drain"))
	require.Equal(t, 3, loops.Len())

	items := loops.Items()
	assert.Equal(t, For, KindOf(items[0].Node))
	assert.Equal(t, "FOR (_ , item; items; )", LoopText(items[0].Node))
	assert.Equal(t, While, KindOf(items[1].Node))
	assert.Equal(t, "ready ( )", LoopText(items[1].Node))
	assert.Equal(t, While, KindOf(items[2].Node))
	assert.Equal(t, Placeholder, LoopText(items[2].Node))
}

func TestFindElsesChain(t *testing.T) {
	tree := parseSource(t, "grade.cc", gradeSource)
	block, ok := FindIfs(callable(t, tree, "grade")).At(2)
	require.True(t, ok)

	chain := FindElses(block.Node)
	assert.Equal(t, []int{4, 6}, chain.ElseIfLines)
	assert.Equal(t, 8, chain.ElseLine)
	assert.True(t, chain.HasElse())
	require.Len(t, chain.Bodies, 4)
	require.Len(t, chain.ElseIfs, 2)

	idx, ok := chain.ElseIfAt(6)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "x > 10", IfCondition(chain.ElseIfs[idx]))
	assert.Equal(t, 6, chain.ElseIfBody(idx).Extent().StartLine)

	assert.Equal(t, 2, chain.Then().Extent().StartLine)
	assert.Equal(t, 8, chain.Else().Extent().StartLine)
}

func TestFindElsesWithoutElse(t *testing.T) {
	tree := parseSource(t, "grade.cc", gradeSource)
	block, ok := FindIfs(callable(t, tree, "clamp")).At(14)
	require.True(t, ok)

	chain := FindElses(block.Node)
	assert.Empty(t, chain.ElseIfLines)
	assert.False(t, chain.HasElse())
	assert.Nil(t, chain.Else())
	require.Len(t, chain.Bodies, 1)
}

func TestFindReturns(t *testing.T) {
	tree := parseFile(t, "../../fixtures/cpp/shower.cc")
	lines := tree.Lines()

	returns := FindReturns(callable(t, tree, "pTnext"), lines, 0)
	assert.Equal(t, []ReturnPoint{{Line: 28, Terminal: false}, {Line: 47, Terminal: true}}, returns.Items())

	returns = FindReturns(callable(t, tree, "check"), lines, 0)
	point, ok := returns.At(12)
	require.True(t, ok)
	assert.True(t, point.Terminal)
	point, ok = returns.At(14)
	require.True(t, ok)
	assert.True(t, point.Terminal)

	_, ok = returns.At(13)
	assert.False(t, ok)
}

func TestFindReturnsDependsOnZoom(t *testing.T) {
	source := `int pick(int x) {
  //$ Start
  if (x > 0) {
    //$1 Positive branch
    return x;
  }
  return 0;
}
`
	tree := parseSource(t, "pick.cc", source)
	fn := callable(t, tree, "pick")

	coarse := FindReturns(fn, tree.Lines(), annotation.Zoom(0))
	point, ok := coarse.At(5)
	require.True(t, ok)
	assert.False(t, point.Terminal)

	fine := FindReturns(fn, tree.Lines(), annotation.Zoom(1))
	point, ok = fine.At(5)
	require.True(t, ok)
	assert.True(t, point.Terminal)
}

func TestConditionTextPlaceholder(t *testing.T) {
	assert.Equal(t, Placeholder, ConditionText(nil))
	assert.Equal(t, Placeholder, IfCondition(nil))
}

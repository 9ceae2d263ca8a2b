package languages

import (
	"testing"

	"github.com/morozRed/flowdoc/internal/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoCallables(t *testing.T) {
	tree := parseFixture(t, NewGoProvider(), "go/worker.go")

	run := findCallable(t, tree, "Run")
	assert.Equal(t, syntax.Method, run.Kind())
	assert.Equal(t, "go:fixtures.Worker.Run", run.USR())
	assert.Equal(t, "error Worker.Run(context.Context)", run.Signature())

	helper := findCallable(t, tree, "helper")
	assert.Equal(t, syntax.Function, helper.Kind())
	assert.Equal(t, "go:fixtures.helper", helper.USR())
	assert.Equal(t, "helper(context.Context, string)", helper.DisplayName())
}

func TestGoControlShapes(t *testing.T) {
	tree := parseFixture(t, NewGoProvider(), "go/worker.go")
	run := findCallable(t, tree, "Run")

	ifNode := findFirst(run, syntax.If)
	require.NotNil(t, ifNode)
	require.Len(t, ifNode.Children(), 2)
	assert.Equal(t, []string{"len", "(", "w", ".", "queue", ")", "==", "0"}, ifNode.Children()[0].Tokens())

	loop := findFirst(run, syntax.ForLoop)
	require.NotNil(t, loop)
	require.Len(t, loop.Children(), 4)
	assert.Equal(t, []string{"w", ".", "queue"}, loop.Children()[1].Tokens())
	assert.Empty(t, loop.Children()[2].Tokens())
	assert.Equal(t, syntax.CompoundBlock, loop.Children()[3].Kind())
}

func TestGoWhileLoops(t *testing.T) {
	src := []byte(`package p

func spin(n int) {
	for n > 0 {
		n--
	}
	for {
		return
	}
}
`)
	tree, err := NewGoProvider().Parse("spin.go", src)
	require.NoError(t, err)
	defer tree.Close()

	loops := make([]syntax.Node, 0)
	syntax.Walk(tree.Root(), func(n syntax.Node) bool {
		if n.Kind() == syntax.WhileLoop {
			loops = append(loops, n)
		}
		return true
	})
	require.Len(t, loops, 2)
	assert.Equal(t, []string{"n", ">", "0"}, loops[0].Children()[0].Tokens())
	assert.Empty(t, loops[1].Children()[0].Tokens())
}

func TestGoNodeAtResolvesCalls(t *testing.T) {
	tree := parseFixture(t, NewGoProvider(), "go/worker.go")

	line, col := locate(t, tree, "trimAll(w.queue)", len("trimAll"))
	call := tree.NodeAt(line, col)
	require.Equal(t, syntax.Call, call.Kind())
	require.NotNil(t, call.Referenced())
	assert.Equal(t, "go:fixtures.trimAll", call.Referenced().USR())

	line, col = locate(t, tree, "str.TrimSpace(item))", len("str.TrimSpace"))
	imported, ok := tree.NodeAt(line, col).(syntax.Declared)
	require.True(t, ok)
	require.Equal(t, syntax.Call, imported.Kind())
	assert.Equal(t, "strings", imported.OwnerType())
	assert.Equal(t, "go:strings.TrimSpace", imported.USR())
	assert.Nil(t, imported.Referenced())

	line, col = locate(t, tree, "len(w.queue)", len("len"))
	assert.NotEqual(t, syntax.Call, tree.NodeAt(line, col).Kind())
}

func TestGoReferenceToVariableInitializedByCall(t *testing.T) {
	tree := parseFixture(t, NewGoProvider(), "go/worker.go")

	line, col := locate(t, tree, "if err != nil", len("if "))
	ref := tree.NodeAt(line, col)
	require.Equal(t, syntax.Reference, ref.Kind())

	def := ref.Definition()
	require.NotNil(t, def)
	require.Equal(t, syntax.VariableDecl, def.Kind())
	require.Len(t, def.Children(), 1)
	assert.Equal(t, "go:fixtures.helper", def.Children()[0].Referenced().USR())
}

func TestDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()

	p, ok := r.ProviderForFile("src/shower.cc")
	require.True(t, ok)
	assert.Equal(t, "cpp", p.Language())

	p, ok = r.ProviderForFile("main.go")
	require.True(t, ok)
	assert.Equal(t, "go", p.Language())

	_, ok = r.ProviderForFile("script.py")
	assert.False(t, ok)
}

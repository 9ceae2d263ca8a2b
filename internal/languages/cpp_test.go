package languages

import (
	"testing"

	"github.com/morozRed/flowdoc/internal/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCppCallables(t *testing.T) {
	tree := parseFixture(t, NewCppProvider(), "cpp/shower.cc")

	pTnext := findCallable(t, tree, "pTnext")
	assert.Equal(t, syntax.Method, pTnext.Kind())
	assert.Equal(t, "c:@S@Shower@F@pTnext", pTnext.USR())
	assert.Equal(t, "Shower", pTnext.OwnerType())
	assert.Equal(t, "pTnext(Event &, double)", pTnext.DisplayName())
	assert.Equal(t, "double Shower::pTnext(Event &, double)", pTnext.Signature())

	check := findCallable(t, tree, "check")
	assert.Equal(t, syntax.Method, check.Kind())
	assert.Equal(t, "c:@S@Shower@F@check", check.USR())
	assert.Equal(t, "int Shower::check(int)", check.Signature())

	helper := findCallable(t, tree, "helperScale")
	assert.Equal(t, syntax.Function, helper.Kind())
	assert.Equal(t, "c:@F@helperScale", helper.USR())
	assert.Equal(t, "double helperScale(double)", helper.Signature())

	line, _ := locate(t, tree, "double Shower::pTnext", 0)
	assert.Equal(t, line, pTnext.Extent().StartLine)
}

func TestCppControlShapes(t *testing.T) {
	tree := parseFixture(t, NewCppProvider(), "cpp/shower.cc")
	pTnext := findCallable(t, tree, "pTnext")

	ifNode := findFirst(pTnext, syntax.If)
	require.NotNil(t, ifNode)
	require.Len(t, ifNode.Children(), 2)
	assert.Equal(t, []string{"pTbegAll", "<=", "0.0"}, ifNode.Children()[0].Tokens())
	assert.Equal(t, syntax.CompoundBlock, ifNode.Children()[1].Kind())

	loop := findFirst(pTnext, syntax.ForLoop)
	require.NotNil(t, loop)
	require.Len(t, loop.Children(), 4)
	assert.Equal(t, []string{"int", "i", "=", "0", ";"}, loop.Children()[0].Tokens())
	assert.Equal(t, []string{"++", "i"}, loop.Children()[2].Tokens())
	assert.Equal(t, syntax.CompoundBlock, loop.Children()[3].Kind())

	branch := findCallable(t, tree, "branch")
	do := findFirst(branch, syntax.DoLoop)
	require.NotNil(t, do)
	require.Len(t, do.Children(), 2)
	assert.Equal(t, syntax.CompoundBlock, do.Children()[0].Kind())
	assert.Equal(t, []string{"tries", "<", "10"}, do.Children()[1].Tokens())
}

func TestCppElseChain(t *testing.T) {
	src := []byte(`int pick(int x) {
  if (x > 2) {
    return 2;
  } else if (x > 1) {
    return 1;
  } else {
    return 0;
  }
}
`)
	tree, err := NewCppProvider().Parse("pick.cc", src)
	require.NoError(t, err)
	defer tree.Close()

	first := findFirst(tree.Root(), syntax.If)
	require.NotNil(t, first)
	require.Len(t, first.Children(), 3)
	elseIf := first.Children()[2]
	require.Equal(t, syntax.If, elseIf.Kind())
	assert.Equal(t, 4, elseIf.Extent().StartLine)
	require.Len(t, elseIf.Children(), 3)
	assert.Equal(t, syntax.CompoundBlock, elseIf.Children()[2].Kind())
	assert.Equal(t, 6, elseIf.Children()[2].Extent().StartLine)
}

func TestCppNodeAtResolvesCalls(t *testing.T) {
	tree := parseFixture(t, NewCppProvider(), "cpp/shower.cc")

	line, col := locate(t, tree, "branch(event);", len("branch"))
	call, ok := tree.NodeAt(line, col).(syntax.Declared)
	require.True(t, ok)
	require.Equal(t, syntax.Call, call.Kind())
	assert.Equal(t, "branch", call.Name())
	ref := call.Referenced()
	require.NotNil(t, ref)
	assert.Equal(t, "c:@S@Shower@F@branch", ref.USR())

	line, col = locate(t, tree, "acceptWeight(event)", 0)
	callee := tree.NodeAt(line, col)
	require.Equal(t, syntax.Call, callee.Kind())
	assert.Nil(t, callee.Referenced())
	assert.Equal(t, "c:@F@acceptWeight", callee.USR())
}

func TestCppReferenceToVariableInitializedByCall(t *testing.T) {
	tree := parseFixture(t, NewCppProvider(), "cpp/shower.cc")

	line, col := locate(t, tree, "if (trial > pTmax)", len("if ("))
	ref := tree.NodeAt(line, col)
	require.Equal(t, syntax.Reference, ref.Kind())

	def := ref.Definition()
	require.NotNil(t, def)
	require.Equal(t, syntax.VariableDecl, def.Kind())
	require.Len(t, def.Children(), 1)
	value := def.Children()[0]
	require.Equal(t, syntax.Call, value.Kind())
	require.NotNil(t, value.Referenced())
	assert.Equal(t, "c:@F@helperScale", value.Referenced().USR())
}

package languages

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/morozRed/flowdoc/internal/syntax"
	"github.com/stretchr/testify/require"
)

func parseFixture(t *testing.T, p syntax.Provider, rel string) syntax.Tree {
	t.Helper()
	path := filepath.Join("..", "..", "fixtures", rel)
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	tree, err := p.Parse(path, content)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func findCallable(t *testing.T, tree syntax.Tree, name string) syntax.Declared {
	t.Helper()
	var found syntax.Declared
	syntax.Walk(tree.Root(), func(n syntax.Node) bool {
		if found != nil {
			return false
		}
		if d, ok := n.(syntax.Declared); ok && n.Kind().IsCallable() && d.Name() == name {
			found = d
			return false
		}
		return true
	})
	require.NotNil(t, found, "callable %s not found", name)
	return found
}

func findFirst(n syntax.Node, kind syntax.Kind) syntax.Node {
	var found syntax.Node
	syntax.Walk(n, func(c syntax.Node) bool {
		if found != nil {
			return false
		}
		if c.Kind() == kind {
			found = c
			return false
		}
		return true
	})
	return found
}

// locate returns the 1-based line and 0-based column of needle plus offset.
func locate(t *testing.T, tree syntax.Tree, needle string, offset int) (int, int) {
	t.Helper()
	for i, line := range tree.Lines() {
		if idx := strings.Index(line, needle); idx >= 0 {
			return i + 1, idx + offset
		}
	}
	t.Fatalf("%q not found in %s", needle, tree.Path())
	return 0, 0
}

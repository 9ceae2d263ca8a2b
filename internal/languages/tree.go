package languages

import (
	"strings"

	"github.com/morozRed/flowdoc/internal/syntax"
	sitter "github.com/smacker/go-tree-sitter"
)

// grammar maps one tree-sitter grammar onto the normalized node contract.
type grammar interface {
	kindOf(n *sitter.Node, content []byte) syntax.Kind
	// parts returns the normalized children of n; nil entries stand for
	// absent parts such as an empty for-loop update.
	parts(n *sitter.Node, kind syntax.Kind) []*sitter.Node
	// detached returns subtrees of n that stay addressable through NodeAt
	// without being listed as children, e.g. an if-statement initializer.
	detached(n *sitter.Node, kind syntax.Kind) []*sitter.Node
	// describe fills the callable fields of declarations and calls.
	describe(t *tree, n *node)
	// declaredNames lists the variables a VariableDecl introduces.
	declaredNames(n *sitter.Node, content []byte) []string
}

type nodeKey struct {
	start, end uint32
	typ        string
}

func keyOf(n *sitter.Node) nodeKey {
	return nodeKey{start: n.StartByte(), end: n.EndByte(), typ: n.Type()}
}

// tree implements syntax.Tree over a tree-sitter parse.
type tree struct {
	path    string
	content []byte
	lines   []string
	ts      *sitter.Tree
	g       grammar
	root    *node

	// package name and import aliases, Go only
	pkg     string
	imports map[string]string

	index  map[nodeKey]*node
	byUSR  map[string]*node
	byName map[string][]*node
}

func newTree(path string, content []byte, ts *sitter.Tree, g grammar, prepare func(t *tree)) *tree {
	t := &tree{
		path:    path,
		content: content,
		lines:   splitLines(content),
		ts:      ts,
		g:       g,
		imports: make(map[string]string),
		index:   make(map[nodeKey]*node),
		byUSR:   make(map[string]*node),
		byName:  make(map[string][]*node),
	}
	if prepare != nil {
		prepare(t)
	}
	t.root = t.build(ts.RootNode(), nil)
	return t
}

func (t *tree) Path() string { return t.path }
func (t *tree) Lines() []string { return t.lines }
func (t *tree) Root() syntax.Node { return t.root }
func (t *tree) Close() { t.ts.Close() }

func (t *tree) text(n *sitter.Node) string {
	return n.Content(t.content)
}

func (t *tree) build(ts *sitter.Node, parent *node) *node {
	kind := t.g.kindOf(ts, t.content)
	n := &node{t: t, ts: ts, kind: kind, parent: parent}
	t.index[keyOf(ts)] = n

	switch {
	case kind.IsCallable():
		t.g.describe(t, n)
		if n.usr != "" {
			if _, dup := t.byUSR[n.usr]; !dup {
				t.byUSR[n.usr] = n
			}
			t.byName[n.name] = append(t.byName[n.name], n)
		}
	case kind == syntax.Call:
		t.g.describe(t, n)
	case kind == syntax.VariableDecl:
		n.names = t.g.declaredNames(ts, t.content)
	}

	for _, part := range t.g.parts(ts, kind) {
		if part == nil {
			n.children = append(n.children, &node{t: t, kind: syntax.Other, parent: n})
			continue
		}
		n.children = append(n.children, t.build(part, n))
	}
	for _, part := range t.g.detached(ts, kind) {
		t.build(part, n)
	}
	return n
}

// NodeAt returns the normalized node covering the position. Positions on a
// call's parentheses, commas, or callee name resolve to the call itself.
func (t *tree) NodeAt(line, column int) syntax.Node {
	if line < 1 || column < 0 {
		return nil
	}
	pt := sitter.Point{Row: uint32(line - 1), Column: uint32(column)}
	ts := t.ts.RootNode().NamedDescendantForPointRange(pt, pt)
	for ts != nil {
		if n, ok := t.index[keyOf(ts)]; ok {
			if p := n.parent; p != nil && p.kind == syntax.Call && n.kind != syntax.Call {
				if n.kind == syntax.Other || (len(p.children) > 0 && p.children[0] == n) {
					return p
				}
			}
			return n
		}
		ts = ts.Parent()
	}
	return t.root
}

// resolveCall finds the declaration a call invokes within this file.
func (t *tree) resolveCall(c *node) *node {
	if d, ok := t.byUSR[c.usr]; ok {
		return d
	}
	if c.qualified {
		return nil
	}
	candidates := t.byName[c.name]
	switch len(candidates) {
	case 0:
		return nil
	case 1:
		return candidates[0]
	}
	if fn := c.enclosingCallable(); fn != nil {
		for _, d := range candidates {
			if d.owner == fn.owner {
				return d
			}
		}
	}
	return candidates[0]
}

// resolveReference finds the nearest preceding variable declaration with the
// referenced name in the enclosing callable, falling back to a callable of
// that name.
func (t *tree) resolveReference(r *node) *node {
	name := strings.TrimSpace(t.text(r.ts))
	if name == "" {
		return nil
	}
	scope := r.enclosingCallable()
	if scope == nil {
		scope = t.root
	}

	var best *node
	syntax.Walk(scope, func(sn syntax.Node) bool {
		n := sn.(*node)
		if n.ts != nil && n.ts.StartByte() > r.ts.StartByte() {
			return false
		}
		if n.kind == syntax.VariableDecl {
			for _, declared := range n.names {
				if declared == name {
					best = n
				}
			}
		}
		return true
	})
	if best != nil {
		return best
	}
	if candidates := t.byName[name]; len(candidates) > 0 {
		return candidates[0]
	}
	return nil
}

// node implements syntax.Declared; the callable accessors return empty
// strings on nodes that name nothing.
type node struct {
	t        *tree
	ts       *sitter.Node // nil for an absent part
	kind     syntax.Kind
	parent   *node
	children []syntax.Node

	name      string
	display   string
	result    string
	owner     string
	signature string
	usr       string
	qualified bool
	names     []string

	resolved   bool
	definition *node
	referenced *node
}

func (n *node) Kind() syntax.Kind { return n.kind }
func (n *node) Children() []syntax.Node { return n.children }
func (n *node) USR() string { return n.usr }
func (n *node) Name() string { return n.name }
func (n *node) DisplayName() string { return n.display }
func (n *node) ResultType() string { return n.result }
func (n *node) OwnerType() string { return n.owner }
func (n *node) Signature() string { return n.signature }

func (n *node) Extent() syntax.Extent {
	if n.ts == nil {
		if n.parent != nil {
			e := n.parent.Extent()
			return syntax.Extent{StartLine: e.StartLine, StartColumn: e.StartColumn, EndLine: e.StartLine, EndColumn: e.StartColumn}
		}
		return syntax.Extent{}
	}
	start, end := n.ts.StartPoint(), n.ts.EndPoint()
	return syntax.Extent{
		StartLine:   int(start.Row) + 1,
		StartColumn: int(start.Column),
		EndLine:     int(end.Row) + 1,
		EndColumn:   int(end.Column),
	}
}

func (n *node) Tokens() []string {
	if n.ts == nil {
		return nil
	}
	tokens := make([]string, 0)
	collectTokens(n.ts, n.t.content, &tokens)
	return tokens
}

func (n *node) Definition() syntax.Node {
	if n.kind != syntax.Reference {
		return nil
	}
	n.resolve()
	if n.definition == nil {
		return nil
	}
	return n.definition
}

func (n *node) Referenced() syntax.Node {
	if n.kind != syntax.Call {
		return nil
	}
	n.resolve()
	if n.referenced == nil {
		return nil
	}
	return n.referenced
}

func (n *node) resolve() {
	if n.resolved {
		return
	}
	n.resolved = true
	switch n.kind {
	case syntax.Reference:
		n.definition = n.t.resolveReference(n)
	case syntax.Call:
		n.referenced = n.t.resolveCall(n)
	}
}

func (n *node) enclosingCallable() *node {
	for p := n.parent; p != nil; p = p.parent {
		if p.kind.IsCallable() {
			return p
		}
	}
	return nil
}

var atomicTokenTypes = map[string]bool{
	"string_literal":             true,
	"raw_string_literal":         true,
	"char_literal":               true,
	"interpreted_string_literal": true,
	"rune_literal":               true,
}

func collectTokens(n *sitter.Node, content []byte, tokens *[]string) {
	typ := n.Type()
	if typ == "comment" {
		return
	}
	if n.ChildCount() == 0 || atomicTokenTypes[typ] {
		if text := strings.TrimSpace(n.Content(content)); text != "" {
			*tokens = append(*tokens, text)
		}
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		collectTokens(n.Child(i), content, tokens)
	}
}

func splitLines(content []byte) []string {
	lines := strings.Split(string(content), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func signatureOf(result, owner, sep, display string) string {
	qualified := display
	if owner != "" {
		qualified = owner + sep + display
	}
	return strings.TrimSpace(result + " " + qualified)
}

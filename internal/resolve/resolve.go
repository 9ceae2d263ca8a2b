// Package resolve turns a highlighted source line into the callables it
// invokes and formats them for diagram actions.
package resolve

import (
	"context"
	"log/slog"
	"strings"

	"github.com/morozRed/flowdoc/internal/flowdb"
	"github.com/morozRed/flowdoc/internal/render"
	"github.com/morozRed/flowdoc/internal/syntax"
)

// Callee is one callable invoked from a highlighted line.
type Callee struct {
	USR       string
	Name      string
	Signature string
	// Resolved is false when the call could not be linked to a declaration
	// and the call expression stands in for it.
	Resolved bool
}

// Resolver finds calls on source lines.
type Resolver struct {
	Logger *slog.Logger
}

// FindCalls scans columns [from, to) of line and returns the callables invoked
// there, deduplicated by USR in order of first appearance. A variable whose
// declaration is initialized by a call contributes that call.
func (r *Resolver) FindCalls(ctx context.Context, tree syntax.Tree, line, from, to int) []Callee {
	callees := make([]Callee, 0)
	seen := make(map[string]bool)
	add := func(c Callee) {
		key := c.USR
		if key == "" {
			key = c.Signature
		}
		if seen[key] {
			return
		}
		seen[key] = true
		callees = append(callees, c)
	}

	for col := from; col < to; col++ {
		n := tree.NodeAt(line, col)
		if n == nil {
			continue
		}
		switch n.Kind() {
		case syntax.Call:
			add(r.callee(ctx, n))
		case syntax.Reference:
			def := n.Definition()
			if def == nil || def.Kind() != syntax.VariableDecl {
				continue
			}
			for _, c := range def.Children() {
				if c.Kind() == syntax.Call {
					add(r.callee(ctx, c))
				}
			}
		}
	}
	return callees
}

func (r *Resolver) callee(ctx context.Context, call syntax.Node) Callee {
	if target := call.Referenced(); target != nil {
		return describe(target, true)
	}
	c := describe(call, false)
	if r.Logger != nil {
		r.Logger.WarnContext(ctx, "call has no resolvable declaration",
			slog.String("call", c.Name),
			slog.Int("line", call.Extent().StartLine))
	}
	return c
}

func describe(n syntax.Node, resolved bool) Callee {
	c := Callee{USR: n.USR(), Resolved: resolved}
	if d, ok := n.(syntax.Declared); ok {
		c.Name = d.Name()
		c.Signature = strings.TrimSpace(d.Signature())
	}
	if c.Name == "" {
		c.Name = flowdb.NameOf(c.USR)
	}
	if c.Signature == "" {
		c.Signature = strings.Join(n.Tokens(), " ")
	}
	return c
}

// Labeler formats callees, linking those recorded in the database to their
// diagrams.
type Labeler struct {
	DB *flowdb.Database
}

// Entry finds the database entry of a callee. Unresolved calls fall back to
// a unique name match.
func (l *Labeler) Entry(c Callee) (flowdb.Entry, bool) {
	if l == nil || l.DB == nil {
		return flowdb.Entry{}, false
	}
	if e, ok := l.DB.Lookup(c.USR); ok {
		return e, true
	}
	if !c.Resolved && c.Name != "" {
		return l.DB.LookupName(c.Name)
	}
	return flowdb.Entry{}, false
}

// Label returns the call-list line of a callee:
// "signature -- [[file.html#anchor link]]" when it has a diagram, the bare
// signature otherwise.
func (l *Labeler) Label(c Callee) string {
	e, ok := l.Entry(c)
	if !ok {
		return c.Signature
	}
	return e.Signature + " -- [[" + e.File + ".html#" + render.Sanitize(e.USR) + " link]]"
}

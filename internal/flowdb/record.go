// Package flowdb records which callables carry annotations and at which zoom
// depth, so diagrams in one file can link to diagrams in another.
package flowdb

import (
	"context"
	"log/slog"
	"strings"

	"github.com/morozRed/flowdoc/internal/annotation"
	"github.com/morozRed/flowdoc/internal/syntax"
)

// Extension is the file extension of a per-file symbol database.
const Extension = ".flowdb"

// Record is one annotated callable.
type Record struct {
	USR       string
	MaxZoom   annotation.Zoom
	Signature string
}

// Entry is a record together with the stem of the file it came from.
type Entry struct {
	Record
	File string
}

// Builder collects the records of parsed files.
type Builder struct {
	Logger *slog.Logger
}

// Build walks tree and returns one record per annotated callable, in source
// order. A callable counts when its extent holds a zoom 0 action; nested
// callables are not visited.
func (b *Builder) Build(ctx context.Context, tree syntax.Tree) []Record {
	lines := tree.Lines()
	records := make([]Record, 0)
	seen := make(map[string]bool)

	syntax.Walk(tree.Root(), func(n syntax.Node) bool {
		if !n.Kind().IsCallable() {
			return true
		}
		decl, ok := n.(syntax.Declared)
		if !ok || n.USR() == "" || seen[n.USR()] {
			return false
		}
		ext := n.Extent()
		zoom, annotated := annotation.MaxZoomIn(lines, ext.StartLine, ext.EndLine)
		if !annotated {
			return false
		}
		seen[n.USR()] = true
		records = append(records, Record{
			USR:       n.USR(),
			MaxZoom:   zoom,
			Signature: decl.Signature(),
		})
		if b.Logger != nil {
			b.Logger.DebugContext(ctx, "found annotated callable",
				slog.String("signature", decl.Signature()),
				slog.Int("max_zoom", int(zoom)))
		}
		return false
	})
	return records
}

// NameOf returns the bare callable name encoded in a USR.
func NameOf(usr string) string {
	if idx := strings.LastIndex(usr, "@F@"); idx != -1 {
		return usr[idx+len("@F@"):]
	}
	if idx := strings.LastIndex(usr, "."); idx != -1 {
		return usr[idx+1:]
	}
	if idx := strings.LastIndex(usr, "@"); idx != -1 {
		return usr[idx+1:]
	}
	return usr
}

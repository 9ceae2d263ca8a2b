package flow

import (
	"context"
	"log/slog"

	"github.com/morozRed/flowdoc/internal/annotation"
	"github.com/morozRed/flowdoc/internal/render"
	"github.com/morozRed/flowdoc/internal/resolve"
	"github.com/morozRed/flowdoc/internal/structure"
	"github.com/morozRed/flowdoc/internal/syntax"
)

// Renderer draws callables.
type Renderer struct {
	Resolver *resolve.Resolver
	Labeler  *resolve.Labeler
	Logger   *slog.Logger
}

// Render returns the complete PlantUML document of fn at zoom.
func (r *Renderer) Render(ctx context.Context, tree syntax.Tree, fn syntax.Node, zoom annotation.Zoom) string {
	d := r.newDiagram(ctx, tree, fn, zoom)
	d.run()
	return render.Document(d.acc.Body())
}

type ifState struct {
	open      bool
	block     structure.Block
	chain     structure.Chain
	elseIfNum int
	zoom      annotation.Zoom
}

func (s *ifState) reset() {
	*s = ifState{}
}

type loopState struct {
	open        bool
	block       structure.Block
	zoom        annotation.Zoom
	description bool
}

// diagram walks the lines of one callable and feeds the accumulator.
type diagram struct {
	ctx   context.Context
	r     *Renderer
	tree  syntax.Tree
	lines []string
	from  int
	to    int
	zoom  annotation.Zoom
	acc   *Accumulator

	ifs       structure.Blocks
	nestedIfs structure.Blocks
	loops     structure.Blocks
	returns   structure.Returns

	outer  ifState
	nested ifState
	loop   loopState
}

func (r *Renderer) newDiagram(ctx context.Context, tree syntax.Tree, fn syntax.Node, zoom annotation.Zoom) *diagram {
	ext := fn.Extent()
	lines := tree.Lines()
	return &diagram{
		ctx:     ctx,
		r:       r,
		tree:    tree,
		lines:   lines,
		from:    ext.StartLine,
		to:      ext.EndLine,
		zoom:    zoom,
		acc:     NewAccumulator(zoom, r.Labeler),
		ifs:     structure.FindIfs(fn),
		loops:   structure.FindLoops(fn),
		returns: structure.FindReturns(fn, lines, zoom),
	}
}

func (d *diagram) run() {
	for i := d.from; i < d.to && i <= len(d.lines); i++ {
		d.line(i)
	}
}

func (d *diagram) line(i int) {
	text := d.lines[i-1]

	for z := annotation.Zoom(0); z <= d.zoom; z++ {
		c, ok := annotation.ActionAt(text, z)
		if !ok {
			continue
		}
		if c.Tag == annotation.TagParallel {
			d.warn("parallel actions are drawn as plain actions", slog.Int("line", i))
		}
		d.acc.openAction(i, z, c.Text)
		return
	}

	if start, end, ok := annotation.ParseHighlight(text); ok {
		if d.r.Resolver != nil {
			d.acc.attach(d.r.Resolver.FindCalls(d.ctx, d.tree, i, start, end))
		}
		return
	}

	if b, ok := d.ifs.At(i); ok {
		d.openIf(i, b)
		return
	}
	if idx, ok := d.outer.chain.ElseIfAt(i); ok && d.outer.open {
		d.elseIf(i, idx)
		return
	}
	if d.outer.open && i == d.outer.chain.ElseLine {
		d.elseBranch()
		return
	}
	if d.outer.open && i == d.outer.block.End {
		d.endIf()
		return
	}

	if b, ok := d.nestedIfs.At(i); ok {
		d.openNestedIf(i, b)
		return
	}
	if idx, ok := d.nested.chain.ElseIfAt(i); ok && d.nested.open {
		d.nestedElseIf(i, idx)
		return
	}
	if d.nested.open && i == d.nested.chain.ElseLine {
		d.nestedElse()
		return
	}
	if d.nested.open && i == d.nested.block.End {
		d.nestedEndIf()
		return
	}

	if b, ok := d.loops.At(i); ok {
		d.openLoop(i, b)
		return
	}
	if d.loop.open && i == d.loop.block.End {
		d.closeLoop()
		return
	}

	if point, ok := d.returns.At(i); ok {
		if point.Terminal {
			d.acc.stop()
		} else {
			d.acc.note("possible STOP")
		}
	}
}

// description returns the contextual condition written on the line above i.
func (d *diagram) description(i int) (string, bool) {
	if i < 2 || i-1 > len(d.lines) {
		return "", false
	}
	return annotation.ParseContext(d.lines[i-2])
}

// branchZoom reports the coarsest level annotated inside a block.
func (d *diagram) branchZoom(b structure.Block) (annotation.Zoom, bool) {
	return annotation.LowestZoom(d.lines, b.Begin, b.End, d.zoom)
}

func (d *diagram) ifHeader(i int, cond string) string {
	if desc, ok := d.description(i); ok {
		return "if (" + desc + ") then(yes)\n"
	}
	return "if (" + cond + " ?) then(yes)\n"
}

func (d *diagram) elseIfHeader(i int, cond string) string {
	if desc, ok := d.description(i); ok {
		return "if (" + desc + ") then (yes)\n"
	}
	return "if (" + cond + " ?) then (yes)\n"
}

func (d *diagram) openIf(i int, b structure.Block) {
	zoom, ok := d.branchZoom(b)
	if !ok {
		return
	}
	a := d.acc
	d.outer.zoom = zoom
	a.writeZ = zoom
	a.increaseDepth()
	a.emit("\n" + a.pad(0) + d.ifHeader(i, structure.IfCondition(b.Node)))
	d.outer.open = true
	d.outer.block = b
	a.indent++
	d.outer.chain = structure.FindElses(b.Node)
	d.outer.elseIfNum = 0
	d.nestedIfs = structure.FindIfs(d.outer.chain.Then())
}

func (d *diagram) elseIf(i, idx int) {
	a := d.acc
	a.writeZ = d.outer.zoom
	a.decreaseDepth()
	a.increaseDepth()
	d.outer.elseIfNum = idx + 1
	a.emit(a.pad(-1) + "else" + d.elseIfHeader(i, structure.IfCondition(d.outer.chain.ElseIfs[idx])))
	d.nestedIfs = structure.FindIfs(d.outer.chain.ElseIfBody(idx))
}

func (d *diagram) elseBranch() {
	a := d.acc
	a.writeZ = d.outer.zoom
	a.decreaseDepth()
	a.increaseDepth()
	a.emit(a.pad(-1) + "else(no)\n")
	d.nestedIfs = structure.FindIfs(d.outer.chain.Else())
}

func (d *diagram) endIf() {
	a := d.acc
	a.writeZ = d.outer.zoom
	a.decreaseDepth()
	if !d.outer.chain.HasElse() {
		a.emit(a.pad(-1) + "else(no)\n")
	}
	a.emit(a.pad(-1) + "endif\n\n")
	a.indent--
	d.outer.reset()
}

func (d *diagram) openNestedIf(i int, b structure.Block) {
	zoom, ok := d.branchZoom(b)
	if !ok {
		return
	}
	a := d.acc
	d.nested.zoom = zoom
	a.writeZ = zoom
	a.increaseDepth()
	a.emit("\n" + a.pad(0) + d.ifHeader(i, structure.IfCondition(b.Node)))
	d.nested.open = true
	d.nested.block = b
	a.indent++
	d.nested.chain = structure.FindElses(b.Node)
	d.nested.elseIfNum = 0
}

// nestedElseIf draws an else-if of a nested statement as an else branch
// holding a further if, closed together in nestedEndIf.
func (d *diagram) nestedElseIf(i, idx int) {
	a := d.acc
	d.nested.elseIfNum++
	a.writeZ = d.nested.zoom
	a.decreaseDepth()
	a.increaseDepth()
	a.emit(a.pad(-1) + "else(no)\n" + a.pad(0) + d.elseIfHeader(i, structure.IfCondition(d.nested.chain.ElseIfs[idx])))
	a.indent++
}

func (d *diagram) nestedElse() {
	a := d.acc
	a.writeZ = d.nested.zoom
	a.decreaseDepth()
	a.increaseDepth()
	a.emit(a.pad(-1) + "else(no)\n")
}

func (d *diagram) nestedEndIf() {
	a := d.acc
	a.writeZ = d.nested.zoom
	a.decreaseDepth()
	if !d.nested.chain.HasElse() {
		a.emit(a.pad(-1) + "else(no)\n")
	}
	for n := 0; n < d.nested.elseIfNum; n++ {
		a.emit(a.pad(-1) + "endif\n")
		a.indent--
	}
	a.emit(a.pad(-1) + "endif\n\n")
	a.indent--
	d.nested.reset()
}

func (d *diagram) openLoop(i int, b structure.Block) {
	zoom, ok := d.branchZoom(b)
	if !ok {
		return
	}
	a := d.acc
	d.loop.zoom = zoom
	a.writeZ = zoom
	a.increaseDepth()
	if desc, ok := d.description(i); ok {
		a.emit("\n" + a.pad(0) + "while (" + desc + ")\n")
		d.loop.description = true
	} else {
		switch structure.KindOf(b.Node) {
		case structure.DoWhile:
			a.emit("\n" + a.pad(0) + "repeat\n")
		case structure.For:
			a.emit("\n" + a.pad(0) + "while (" + structure.LoopText(b.Node) + ")\n")
		default:
			a.emit("\n" + a.pad(0) + "while (" + structure.LoopText(b.Node) + "? )\n")
		}
	}
	d.loop.open = true
	d.loop.block = b
	a.indent++
}

func (d *diagram) closeLoop() {
	a := d.acc
	a.writeZ = d.loop.zoom
	a.decreaseDepth()
	if !d.loop.description && structure.KindOf(d.loop.block.Node) == structure.DoWhile {
		a.emit(a.pad(-1) + "repeat while (" + structure.LoopText(d.loop.block.Node) + "? )\n\n")
	} else {
		a.emit(a.pad(-1) + "endwhile\n\n")
	}
	a.indent--
	d.loop = loopState{}
}

func (d *diagram) warn(msg string, attrs ...any) {
	if d.r.Logger != nil {
		d.r.Logger.WarnContext(d.ctx, msg, attrs...)
	}
}

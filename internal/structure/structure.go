// Package structure extracts the control statements a diagram is drawn
// around: if chains, loops, and return points.
package structure

import (
	"strings"

	"github.com/morozRed/flowdoc/internal/annotation"
	"github.com/morozRed/flowdoc/internal/syntax"
)

// Placeholder is the condition text used when a node has no tokens.
const Placeholder = "condition"

// Block is one control statement with its line span.
type Block struct {
	Begin int
	End   int
	Node  syntax.Node
}

// Blocks is an ordered list of control statements indexed by begin line.
type Blocks struct {
	items   []Block
	byBegin map[int]int
}

func newBlocks(nodes []syntax.Node) Blocks {
	b := Blocks{
		items:   make([]Block, 0, len(nodes)),
		byBegin: make(map[int]int, len(nodes)),
	}
	for _, n := range nodes {
		ext := n.Extent()
		if _, dup := b.byBegin[ext.StartLine]; !dup {
			b.byBegin[ext.StartLine] = len(b.items)
		}
		b.items = append(b.items, Block{Begin: ext.StartLine, End: ext.EndLine, Node: n})
	}
	return b
}

// At returns the first block beginning on line.
func (b Blocks) At(line int) (Block, bool) {
	idx, ok := b.byBegin[line]
	if !ok {
		return Block{}, false
	}
	return b.items[idx], true
}

// Items returns the blocks in discovery order.
func (b Blocks) Items() []Block {
	return b.items
}

// Len returns the number of blocks.
func (b Blocks) Len() int {
	return len(b.items)
}

// FindIfs returns the outermost if statements below n: the search stops
// descending at the first if found on each path.
func FindIfs(n syntax.Node) Blocks {
	return newBlocks(findFirst(n, func(k syntax.Kind) bool { return k == syntax.If }))
}

// FindLoops returns the outermost loops below n.
func FindLoops(n syntax.Node) Blocks {
	return newBlocks(findFirst(n, syntax.Kind.IsLoop))
}

func findFirst(n syntax.Node, match func(syntax.Kind) bool) []syntax.Node {
	found := make([]syntax.Node, 0)
	if n == nil {
		return found
	}
	var visit func(syntax.Node)
	visit = func(parent syntax.Node) {
		for _, c := range parent.Children() {
			if match(c.Kind()) {
				found = append(found, c)
				continue
			}
			visit(c)
		}
	}
	visit(n)
	return found
}

// Chain describes the branches of one if statement.
type Chain struct {
	// ElseIfLines holds the begin line of each else-if, in order.
	ElseIfLines []int
	// ElseLine is the begin line of the final else body, 0 when absent.
	ElseLine int
	// Bodies holds the then body, each else-if body, and the else body.
	Bodies  []syntax.Node
	ElseIfs []syntax.Node
}

// HasElse reports whether the chain ends in an explicit else.
func (c Chain) HasElse() bool {
	return c.ElseLine != 0
}

// ElseIfAt returns the index of the else-if beginning on line.
func (c Chain) ElseIfAt(line int) (int, bool) {
	for i, l := range c.ElseIfLines {
		if l == line {
			return i, true
		}
	}
	return 0, false
}

// Then returns the then body, or nil.
func (c Chain) Then() syntax.Node {
	if len(c.Bodies) == 0 {
		return nil
	}
	return c.Bodies[0]
}

// Else returns the else body, or nil.
func (c Chain) Else() syntax.Node {
	if !c.HasElse() {
		return nil
	}
	return c.Bodies[len(c.Bodies)-1]
}

// ElseIfBody returns the body of the i-th else-if, or nil.
func (c Chain) ElseIfBody(i int) syntax.Node {
	if i+1 >= len(c.Bodies) || i >= len(c.ElseIfs) {
		return nil
	}
	return c.Bodies[i+1]
}

// FindElses splits an if statement into its branches. The then body is the
// first block child; else-ifs are found through direct if children, and the
// else body is the second block child of the last else-if.
func FindElses(ifNode syntax.Node) Chain {
	chain := Chain{
		ElseIfLines: make([]int, 0),
		Bodies:      make([]syntax.Node, 0),
		ElseIfs:     make([]syntax.Node, 0),
	}
	if ifNode == nil {
		return chain
	}
	if body := nthBlock(ifNode, 1); body != nil {
		chain.Bodies = append(chain.Bodies, body)
	}

	last := ifNode
	var visit func(syntax.Node)
	visit = func(n syntax.Node) {
		for _, c := range n.Children() {
			if c.Kind() != syntax.If {
				continue
			}
			chain.ElseIfs = append(chain.ElseIfs, c)
			chain.ElseIfLines = append(chain.ElseIfLines, c.Extent().StartLine)
			last = c
			if body := nthBlock(c, 1); body != nil {
				chain.Bodies = append(chain.Bodies, body)
			}
			visit(c)
		}
	}
	visit(ifNode)

	if body := nthBlock(last, 2); body != nil {
		chain.ElseLine = body.Extent().StartLine
		chain.Bodies = append(chain.Bodies, body)
	}
	return chain
}

func nthBlock(n syntax.Node, nth int) syntax.Node {
	count := 0
	for _, c := range n.Children() {
		if c.Kind() == syntax.CompoundBlock {
			count++
			if count == nth {
				return c
			}
		}
	}
	return nil
}

// LoopKind distinguishes the three loop shapes.
type LoopKind int

const (
	While LoopKind = iota
	DoWhile
	For
)

// KindOf returns the loop shape of a loop node.
func KindOf(loop syntax.Node) LoopKind {
	switch loop.Kind() {
	case syntax.DoLoop:
		return DoWhile
	case syntax.ForLoop:
		return For
	}
	return While
}

// ConditionText joins the tokens of n with spaces, or returns Placeholder.
func ConditionText(n syntax.Node) string {
	if n == nil {
		return Placeholder
	}
	tokens := n.Tokens()
	if len(tokens) == 0 {
		return Placeholder
	}
	return strings.Join(tokens, " ")
}

// IfCondition returns the condition text of an if statement.
func IfCondition(ifNode syntax.Node) string {
	return ConditionText(child(ifNode, 0))
}

// LoopText returns the header text of a loop: the condition of while and
// do-while loops, "FOR (init; condition; update)" for for loops.
func LoopText(loop syntax.Node) string {
	switch KindOf(loop) {
	case DoWhile:
		return ConditionText(child(loop, 1))
	case For:
		return "FOR (" + forPart(child(loop, 0)) + "; " + forPart(child(loop, 1)) + "; " + forPart(child(loop, 2)) + ")"
	}
	return ConditionText(child(loop, 0))
}

func forPart(n syntax.Node) string {
	if n == nil {
		return ""
	}
	tokens := n.Tokens()
	if len(tokens) > 0 && tokens[len(tokens)-1] == ";" {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

func child(n syntax.Node, i int) syntax.Node {
	if n == nil {
		return nil
	}
	children := n.Children()
	if i >= len(children) {
		return nil
	}
	return children[i]
}

// ReturnPoint is one return statement. A terminal return ends the flow in
// the diagram; a non-terminal one sits in a branch the diagram does not draw
// at this zoom and is shown as a note.
type ReturnPoint struct {
	Line     int
	Terminal bool
}

// Returns indexes return points by line.
type Returns struct {
	items  []ReturnPoint
	byLine map[int]int
}

// At returns the first return point on line.
func (r Returns) At(line int) (ReturnPoint, bool) {
	idx, ok := r.byLine[line]
	if !ok {
		return ReturnPoint{}, false
	}
	return r.items[idx], true
}

// Items returns the return points in source order.
func (r Returns) Items() []ReturnPoint {
	return r.items
}

// FindReturns collects the return statements of fn. A return is terminal
// unless one of its enclosing if statements has no action at level zoom or
// coarser inside its extent.
func FindReturns(fn syntax.Node, lines []string, zoom annotation.Zoom) Returns {
	r := Returns{items: make([]ReturnPoint, 0), byLine: make(map[int]int)}
	if fn == nil {
		return r
	}

	annotated := make(map[syntax.Node]bool)
	isAnnotated := func(ifNode syntax.Node) bool {
		if v, ok := annotated[ifNode]; ok {
			return v
		}
		ext := ifNode.Extent()
		_, v := annotation.LowestZoom(lines, ext.StartLine, ext.EndLine, zoom)
		annotated[ifNode] = v
		return v
	}

	var visit func(n syntax.Node, ifs []syntax.Node)
	visit = func(n syntax.Node, ifs []syntax.Node) {
		if n.Kind() == syntax.Return {
			point := ReturnPoint{Line: n.Extent().StartLine, Terminal: true}
			for _, ifNode := range ifs {
				if !isAnnotated(ifNode) {
					point.Terminal = false
					break
				}
			}
			if _, dup := r.byLine[point.Line]; !dup {
				r.byLine[point.Line] = len(r.items)
			}
			r.items = append(r.items, point)
			return
		}
		if n.Kind() == syntax.If {
			ifs = append(ifs, n)
		}
		for _, c := range n.Children() {
			visit(c, ifs)
		}
	}
	for _, c := range fn.Children() {
		visit(c, nil)
	}
	return r
}

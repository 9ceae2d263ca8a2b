// Package flow turns the annotated lines of one callable into the body of a
// PlantUML activity diagram at a chosen zoom level.
//
// Actions finer than the innermost open level are buffered per level; when a
// coarser action follows, the buffered finer actions are wrapped into a
// partition labelled with the coarser action's text.
package flow

import (
	"strings"

	"github.com/morozRed/flowdoc/internal/annotation"
	"github.com/morozRed/flowdoc/internal/resolve"
)

const (
	tab    = "   "
	levels = int(annotation.MaxZoom) + 1
)

// Accumulator holds the per-level buffers of one diagram under construction.
type Accumulator struct {
	zoom   annotation.Zoom
	indent int
	out    strings.Builder

	tmp      [levels]string
	text     [levels]string
	inside   [levels]bool
	notes    [levels]string
	lastLine [levels]int

	calls   []resolve.Callee
	seen    map[string]bool
	labeler *resolve.Labeler

	// writeZ is the level that structural markup and returns are written to.
	writeZ annotation.Zoom
}

// NewAccumulator returns an empty accumulator for a diagram at zoom.
func NewAccumulator(zoom annotation.Zoom, labeler *resolve.Labeler) *Accumulator {
	return &Accumulator{
		zoom:    zoom,
		labeler: labeler,
		seen:    make(map[string]bool),
	}
}

func (a *Accumulator) pad(extra int) string {
	n := a.indent + extra
	if n < 0 {
		n = 0
	}
	return strings.Repeat(tab, n)
}

// emit appends markup to the buffer of the current write level.
func (a *Accumulator) emit(s string) {
	a.tmp[a.writeZ] += s
}

// openAction starts or continues the action comment found on line.
func (a *Accumulator) openAction(line int, zoom annotation.Zoom, text string) {
	a.writeZ = zoom
	if a.lastLine[zoom] == line-1 && a.lastLine[zoom] != 0 {
		a.text[zoom] += `\n` + text
	} else {
		a.flush(zoom)
		a.inside[zoom] = true
		a.text[zoom] += text
	}
	a.lastLine[zoom] = line
}

// attach adds callees to the action that is open when the next action closes.
func (a *Accumulator) attach(callees []resolve.Callee) {
	for _, c := range callees {
		key := c.USR
		if key == "" {
			key = c.Signature
		}
		if a.seen[key] {
			continue
		}
		a.seen[key] = true
		a.calls = append(a.calls, c)
	}
}

// flush closes the finest open action between the diagram zoom and minZ,
// wraps every finer buffer into partitions down to minZ, and moves level 0
// to the output when minZ is 0.
func (a *Accumulator) flush(minZ annotation.Zoom) {
	maxZ := annotation.Zoom(-1)
	for z := a.zoom; z >= minZ; z-- {
		if a.inside[z] {
			maxZ = z
			a.closeAction(z)
			break
		}
		if a.tmp[z] != "" {
			maxZ = z
			break
		}
	}
	for k := maxZ - 1; k >= minZ; k-- {
		a.wrap(k)
	}
	if minZ == 0 {
		a.out.WriteString(a.tmp[0])
		a.tmp[0] = ""
	}
}

// wrap turns the open action at level k into a partition holding level k+1.
func (a *Accumulator) wrap(k annotation.Zoom) {
	a.tmp[k] += a.pad(0) + "partition " + k.Color() + " \"" + a.text[k] + "\" {\n" + a.tmp[k+1]
	if a.notes[k] != "" {
		a.tmp[k] += "note right\n" + a.notes[k] + "end note\n"
		a.notes[k] = ""
	}
	a.tmp[k] += a.pad(0) + "}\n"
	a.text[k] = ""
	a.inside[k] = false
	a.tmp[k+1] = ""
}

// closeAction writes the open action at level z with its calls and notes.
func (a *Accumulator) closeAction(z annotation.Zoom) {
	if !a.inside[z] {
		return
	}
	action := a.pad(0) + ":" + z.Color() + ":" + a.text[z] + ";\n"
	if len(a.calls) > 0 {
		action = strings.TrimSuffix(action, ";\n") + "\n----"
		for _, c := range a.calls {
			action += "\n" + a.labeler.Label(c)
		}
		action += ";\n"
	}
	if a.notes[z] != "" {
		action += "note right\n" + a.notes[z] + "end note\n"
		a.notes[z] = ""
	}
	a.tmp[z] += action
	a.text[z] = ""
	a.inside[z] = false
	a.calls = nil
	a.seen = make(map[string]bool)
}

// increaseDepth and decreaseDepth settle pending actions at the write level
// before structural markup is emitted.
func (a *Accumulator) increaseDepth() {
	a.flush(a.writeZ)
}

func (a *Accumulator) decreaseDepth() {
	a.flush(a.writeZ)
}

// stop ends the flow at a terminal return.
func (a *Accumulator) stop() {
	a.flush(a.writeZ)
	a.emit("\nstop\n")
}

// note queues a note for the next action closed at the write level.
func (a *Accumulator) note(s string) {
	a.notes[a.writeZ] += s + "\n"
}

// Body settles everything still buffered and returns the diagram body.
func (a *Accumulator) Body() string {
	a.flush(0)
	return a.out.String()
}

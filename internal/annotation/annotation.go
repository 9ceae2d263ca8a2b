// Package annotation classifies source lines carrying flowdoc markers.
//
// Three marker shapes are recognized, all anchored on the line and case-sensitive:
//
//	//$ text        action at zoom 0 (also //$0 text)
//	//$1 text       action at zoom 1 (//$2 for zoom 2)
//	//$ [cond]      contextual condition for the next branch or loop header
//	code(); //$     highlight: calls on this line are attached to the open action
package annotation

import (
	"regexp"
	"strings"
)

// Zoom is a diagram detail tier. 0 is the coarsest.
type Zoom int

const (
	// MaxZoom is the finest zoom level an annotation can carry.
	MaxZoom Zoom = 2
)

// Suffix returns the artifact suffix used for diagrams at this zoom ("" for 0).
func (z Zoom) Suffix() string {
	switch z {
	case 1:
		return "1"
	case 2:
		return "2"
	default:
		return ""
	}
}

// Color returns the partition/action background color for the zoom level.
func (z Zoom) Color() string {
	switch z {
	case 1:
		return "#b2cce5"
	case 2:
		return "#e0eaf4"
	default:
		return "#84add6"
	}
}

// LineKind is the classification of a single source line.
type LineKind int

const (
	Code LineKind = iota
	Action
	Context
	Highlight
)

func (k LineKind) String() string {
	switch k {
	case Action:
		return "action"
	case Context:
		return "context"
	case Highlight:
		return "highlight"
	default:
		return "code"
	}
}

// TagParallel marks actions meant to run as parallel branches. It is parsed but
// rendered as a plain action.
const TagParallel = "parallel"

// Comment is one tagged action or contextual comment.
type Comment struct {
	Zoom      Zoom
	Text      string
	Condition string
	Tag       string
}

// Line is the classification result for one source line.
type Line struct {
	Kind    LineKind
	Comment Comment
	// CodeStart and CodeEnd delimit the code before a highlight marker
	// (0-based byte offsets, end exclusive).
	CodeStart int
	CodeEnd   int
}

var (
	actionRe    = regexp.MustCompile(`^\s*//\$([0-9])?\s+(.+)$`)
	contextRe   = regexp.MustCompile(`^\s*//\$\s+\[(.+)\]\s*$`)
	highlightRe = regexp.MustCompile(`^\s*(.+?)\s+//\$\s*(?:$|//.+$)`)
	tagRe       = regexp.MustCompile(`^<(\w+)>\s+(.+)$`)
)

// Classify returns the kind of marker found on line. Lines without a marker are Code.
func Classify(line string) Line {
	if c, ok := ParseAction(line); ok {
		return Line{Kind: Action, Comment: c}
	}
	if cond, ok := ParseContext(line); ok {
		return Line{Kind: Context, Comment: Comment{Condition: cond}}
	}
	if start, end, ok := ParseHighlight(line); ok {
		return Line{Kind: Highlight, CodeStart: start, CodeEnd: end}
	}
	return Line{Kind: Code}
}

// ParseAction matches an action comment at any zoom level.
func ParseAction(line string) (Comment, bool) {
	m := actionRe.FindStringSubmatch(line)
	if m == nil {
		return Comment{}, false
	}
	text := strings.TrimRightFunc(m[2], isSpace)
	if strings.HasPrefix(text, "[") {
		return Comment{}, false
	}

	zoom := Zoom(0)
	if m[1] != "" {
		zoom = Zoom(m[1][0] - '0')
		if zoom > MaxZoom {
			return Comment{}, false
		}
	}

	c := Comment{Zoom: zoom, Text: text}
	if t := tagRe.FindStringSubmatch(text); t != nil {
		c.Tag = t[1]
		c.Text = t[2]
	}
	return c, true
}

// ActionAt matches an action comment written exactly at zoom.
func ActionAt(line string, zoom Zoom) (Comment, bool) {
	c, ok := ParseAction(line)
	if !ok || c.Zoom != zoom {
		return Comment{}, false
	}
	return c, true
}

// ParseContext matches a contextual condition comment and returns its text.
func ParseContext(line string) (string, bool) {
	m := contextRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ParseHighlight matches a trailing highlight marker and returns the byte range
// of the code in front of it.
func ParseHighlight(line string) (start, end int, ok bool) {
	m := highlightRe.FindStringSubmatchIndex(line)
	if m == nil || strings.TrimSpace(line[m[2]:m[3]]) == "" {
		return 0, 0, false
	}
	return m[2], m[3], true
}

// LowestZoom returns the lowest zoom level <= max that has an action comment on
// the 1-based lines [from, to).
func LowestZoom(lines []string, from, to int, max Zoom) (Zoom, bool) {
	for z := Zoom(0); z <= max; z++ {
		if hasActionAt(lines, from, to, z) {
			return z, true
		}
	}
	return 0, false
}

// MaxZoomIn returns the deepest zoom level annotated on lines [from, to). A zoom
// level counts only when every coarser level is present too. ok is false when
// the range has no zoom 0 action.
func MaxZoomIn(lines []string, from, to int) (Zoom, bool) {
	if !hasActionAt(lines, from, to, 0) {
		return 0, false
	}
	zoom := Zoom(0)
	for z := Zoom(1); z <= MaxZoom; z++ {
		if !hasActionAt(lines, from, to, z) {
			break
		}
		zoom = z
	}
	return zoom, true
}

func hasActionAt(lines []string, from, to int, zoom Zoom) bool {
	for n := from; n < to; n++ {
		if n < 1 || n > len(lines) {
			continue
		}
		if _, ok := ActionAt(lines[n-1], zoom); ok {
			return true
		}
	}
	return false
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n' || r == '\f' || r == '\v'
}

// Package render writes PlantUML diagram sources and the HTML pages that
// embed the rendered images.
package render

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/morozRed/flowdoc/internal/annotation"
	"github.com/morozRed/flowdoc/internal/fileutil"
)

const (
	header = "@startuml\n\nstart\n skinparam activityBackgroundColor #white \n"
	footer = "\n@enduml"
)

// Document brackets a diagram body into a complete PlantUML document.
func Document(body string) string {
	return header + body + footer
}

// Sanitize keeps only the letters and digits of s. It turns USRs into file
// names and HTML anchors.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DiagramName returns the artifact base name of a callable's diagram at zoom.
func DiagramName(usr string, zoom annotation.Zoom) string {
	return Sanitize(usr + zoom.Suffix())
}

// Writer stores diagram sources in an auxiliary directory.
type Writer struct {
	Dir string
}

// Path returns where the diagram of usr at zoom is stored.
func (w *Writer) Path(usr string, zoom annotation.Zoom) string {
	return filepath.Join(w.Dir, DiagramName(usr, zoom)+".txt")
}

// Write stores one document, leaving the file untouched when its content is
// unchanged.
func (w *Writer) Write(usr string, zoom annotation.Zoom, document string) (string, error) {
	if err := fileutil.EnsureDir(w.Dir); err != nil {
		return "", err
	}
	path := w.Path(usr, zoom)
	if err := fileutil.WriteIfChanged(path, []byte(document)); err != nil {
		return "", fmt.Errorf("write diagram %s: %w", path, err)
	}
	return path, nil
}

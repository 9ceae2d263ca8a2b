package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// progressReporter draws a single status line per phase on a terminal.
type progressReporter struct {
	w       io.Writer
	enabled bool
	label   string
	total   int
	count   int
	start   time.Time
	spinner int
	lastLen int
}

func newProgressReporter(w io.Writer, asJSON bool) *progressReporter {
	enabled := false
	if f, ok := w.(*os.File); ok && !asJSON {
		stat, err := f.Stat()
		enabled = err == nil && (stat.Mode()&os.ModeCharDevice) != 0
	}
	return &progressReporter{w: w, enabled: enabled}
}

// Step matches pipeline.Pipeline.Progress. A new phase closes the previous
// status line.
func (r *progressReporter) Step(phase, file string, done, total int) {
	if !r.enabled {
		return
	}
	if phase != r.label {
		r.Done()
		r.label = phase
		r.start = time.Now()
	}
	r.total = total
	r.count = done

	frames := [4]string{"-", "\\", "|", "/"}
	frame := frames[r.spinner%len(frames)]
	r.spinner++
	file = strings.TrimSpace(file)
	if len(file) > 88 {
		file = "..." + file[len(file)-85:]
	}
	r.printStatus(fmt.Sprintf("%s %s %d/%d %s", frame, r.label, done, total, file))
}

// Done finishes the current phase line, if any.
func (r *progressReporter) Done() {
	if !r.enabled || r.label == "" {
		return
	}
	elapsed := time.Since(r.start).Round(time.Millisecond)
	r.printStatus(fmt.Sprintf("%s complete (%d in %s)", r.label, r.count, elapsed))
	fmt.Fprintln(r.w)
	r.label = ""
	r.lastLen = 0
}

func (r *progressReporter) printStatus(status string) {
	if r.lastLen > len(status) {
		status = status + strings.Repeat(" ", r.lastLen-len(status))
	}
	r.lastLen = len(status)
	fmt.Fprintf(r.w, "\r%s", status)
}

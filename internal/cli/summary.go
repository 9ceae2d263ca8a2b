package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/morozRed/flowdoc/internal/fileutil"
	"github.com/morozRed/flowdoc/internal/pipeline"
)

// RunSummary is the machine-readable form of a pipeline summary.
type RunSummary struct {
	Mode string `json:"mode"`
	*pipeline.Summary
}

type DoctorSummary struct {
	Mode        string   `json:"mode"`
	RootPath    string   `json:"root_path"`
	OutputDir   string   `json:"output_dir"`
	AuxDir      string   `json:"aux_dir"`
	Healthy     bool     `json:"healthy"`
	Files       int      `json:"files"`
	Databases   int      `json:"databases"`
	Missing     []string `json:"missing,omitempty"`
	Stale       []string `json:"stale,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func PrintSummary(w io.Writer, mode string, summary *pipeline.Summary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(w, RunSummary{Mode: mode, Summary: summary})
	}

	if mode == "run" {
		fmt.Fprintf(w, "run complete in %dms\n", summary.DurationMS)
		fmt.Fprintf(w, "output: %s (diagram sources in %s)\n", summary.OutputDir, summary.AuxDir)
		fmt.Fprintf(w, "files: scanned=%d databases=%d rewritten=%d\n", len(summary.Files), summary.Databases, summary.Rewritten)
		fmt.Fprintf(w, "flows: callables=%d diagrams=%d pages=%d\n", summary.Callables, summary.Diagrams, summary.Pages)
	} else {
		fmt.Fprintf(w,
			"%s: scanned=%d databases=%d rewritten=%d callables=%d diagrams=%d pages=%d duration=%dms\n",
			mode,
			len(summary.Files),
			summary.Databases,
			summary.Rewritten,
			summary.Callables,
			summary.Diagrams,
			summary.Pages,
			summary.DurationMS,
		)
	}

	if len(summary.Issues) > 0 {
		fmt.Fprintf(w, "issues (%d):\n", len(summary.Issues))
		for _, issue := range summary.Issues {
			fmt.Fprintf(w, "  %s: %s: %s\n", issue.File, issue.Severity, issue.Message)
		}
	}
	return nil
}

func PrintDoctorSummary(w io.Writer, summary DoctorSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(w, summary)
	}

	status := "healthy"
	if !summary.Healthy {
		status = "needs attention"
	}
	fmt.Fprintf(w, "doctor: %s files=%d databases=%d\n", status, summary.Files, summary.Databases)
	fmt.Fprintf(w, "output: %s\n", summary.OutputDir)
	if len(summary.Missing) > 0 {
		fmt.Fprintf(w, "missing (%d): %s\n", len(summary.Missing), SummarizePaths(summary.Missing, 8))
	}
	if len(summary.Stale) > 0 {
		fmt.Fprintf(w, "stale (%d): %s\n", len(summary.Stale), SummarizePaths(summary.Stale, 8))
	}
	for _, suggestion := range summary.Suggestions {
		fmt.Fprintf(w, "suggestion: %s\n", suggestion)
	}
	return nil
}

func SummarizePaths(paths []string, max int) string {
	if len(paths) <= max {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s ... (+%d more)", strings.Join(paths[:max], ", "), len(paths)-max)
}

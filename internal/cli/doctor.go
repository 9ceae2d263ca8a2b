package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/morozRed/flowdoc/internal/annotation"
	"github.com/morozRed/flowdoc/internal/fileutil"
	"github.com/morozRed/flowdoc/internal/flowdb"
	"github.com/morozRed/flowdoc/internal/pipeline"
	"github.com/morozRed/flowdoc/internal/render"
	"github.com/spf13/cobra"
)

func (a *app) RunDoctor(cmd *cobra.Command, args []string) error {
	if err := a.prepare(cmd); err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	p, _, err := a.pipeline(cmd, true)
	if err != nil {
		return err
	}
	defer p.Close()

	summary, err := a.diagnose(p, pathsOrDefault(args))
	if err != nil {
		return err
	}
	return PrintDoctorSummary(cmd.OutOrStdout(), summary, asJSON)
}

// diagnose compares the artifacts on disk with what a run would write now.
// A database is stale when its content differs from a fresh build.
func (a *app) diagnose(p *pipeline.Pipeline, paths []string) (DoctorSummary, error) {
	summary := DoctorSummary{
		Mode:      "doctor",
		RootPath:  a.root,
		OutputDir: p.OutDir,
		AuxDir:    p.AuxDir,
	}

	run := p.NewSummary(a.ctx)
	files, err := p.Discover(paths, run)
	if err != nil {
		return summary, err
	}
	summary.Files = len(files)

	groups, err := p.CollectRecords(a.ctx, files, run)
	if err != nil {
		return summary, err
	}
	for _, g := range groups {
		dbPath := flowdb.PathFor(p.AuxDir, g.Source)
		onDisk, err := fileutil.HashFile(dbPath)
		if errors.Is(err, os.ErrNotExist) {
			summary.Missing = append(summary.Missing, relTo(a.root, dbPath))
			continue
		}
		if err != nil {
			return summary, fmt.Errorf("failed to hash %s: %w", dbPath, err)
		}
		summary.Databases++

		data, err := flowdb.Encode(g.Records)
		if err != nil {
			return summary, err
		}
		if fileutil.HashBytes(data) != onDisk {
			summary.Stale = append(summary.Stale, relTo(a.root, dbPath))
		}
	}

	db, err := p.LoadDatabase()
	if err != nil {
		return summary, err
	}
	writer := &render.Writer{Dir: p.AuxDir}
	pages := &render.PageBuilder{OutDir: p.OutDir, AuxDir: p.AuxDir}
	for _, e := range db.Entries() {
		for zoom := annotation.Zoom(0); zoom <= e.MaxZoom; zoom++ {
			summary.Missing = appendIfMissing(summary.Missing, a.root, writer.Path(e.USR, zoom))
		}
	}
	for _, stem := range db.Files() {
		if a.cfg.Output.HTML {
			summary.Missing = appendIfMissing(summary.Missing, a.root, pages.PagePath(stem))
		}
	}
	if a.cfg.Output.HTML && len(db.Files()) > 0 {
		summary.Missing = appendIfMissing(summary.Missing, a.root, filepath.Join(p.OutDir, render.AssetsDir))
	}

	// Distinct USRs can sanitize to the same diagram name.
	summary.Missing = fileutil.DedupeStrings(summary.Missing)
	summary.Healthy = len(summary.Missing) == 0 && len(summary.Stale) == 0
	if !summary.Healthy {
		summary.Suggestions = append(summary.Suggestions, "run flowdoc run")
	}
	return summary, nil
}

func appendIfMissing(missing []string, root, path string) []string {
	if _, err := os.Stat(path); err != nil {
		return append(missing, relTo(root, path))
	}
	return missing
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

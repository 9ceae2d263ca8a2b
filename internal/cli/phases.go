package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/morozRed/flowdoc/internal/pipeline"
	"github.com/spf13/cobra"
)

// ErrNoDatabases is returned by phases that need the symbol databases of an
// earlier db run.
var ErrNoDatabases = errors.New("no symbol databases found, run flowdoc db first")

func (a *app) RunDB(cmd *cobra.Command, args []string) error {
	return a.runPhases(cmd, "db", func(p *pipeline.Pipeline, s *pipeline.Summary) error {
		files, err := p.Discover(pathsOrDefault(args), s)
		if err != nil {
			return err
		}
		return p.BuildDatabases(a.ctx, files, s)
	})
}

func (a *app) RunDiagrams(cmd *cobra.Command, args []string) error {
	return a.runPhases(cmd, "diagrams", func(p *pipeline.Pipeline, s *pipeline.Summary) error {
		if err := requireDatabases(p.AuxDir); err != nil {
			return err
		}
		files, err := p.Discover(pathsOrDefault(args), s)
		if err != nil {
			return err
		}
		db, err := p.LoadDatabase()
		if err != nil {
			return err
		}
		s.Callables = db.Len()
		return p.RenderDiagrams(a.ctx, files, db, s)
	})
}

func (a *app) RunHTML(cmd *cobra.Command, args []string) error {
	return a.runPhases(cmd, "html", func(p *pipeline.Pipeline, s *pipeline.Summary) error {
		if err := requireDatabases(p.AuxDir); err != nil {
			return err
		}
		db, err := p.LoadDatabase()
		if err != nil {
			return err
		}
		s.Callables = db.Len()
		return p.BuildPages(a.ctx, db, s)
	})
}

func (a *app) RunAll(cmd *cobra.Command, args []string) error {
	if err := a.prepare(cmd); err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	p, reporter, err := a.pipeline(cmd, asJSON)
	if err != nil {
		return err
	}

	summary, err := p.Run(a.ctx, pathsOrDefault(args), a.cfg.Output.HTML)
	reporter.Done()
	if err != nil {
		return err
	}
	return PrintSummary(cmd.OutOrStdout(), "run", summary, asJSON)
}

// runPhases prepares a pipeline, runs the given phases, and prints the
// summary under mode.
func (a *app) runPhases(cmd *cobra.Command, mode string, phases func(*pipeline.Pipeline, *pipeline.Summary) error) error {
	if err := a.prepare(cmd); err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	p, reporter, err := a.pipeline(cmd, asJSON)
	if err != nil {
		return err
	}
	defer p.Close()

	start := time.Now()
	summary := p.NewSummary(a.ctx)
	err = phases(p, summary)
	reporter.Done()
	if err != nil {
		return err
	}
	summary.DurationMS = time.Since(start).Milliseconds()
	return PrintSummary(cmd.OutOrStdout(), mode, summary, asJSON)
}

func requireDatabases(auxDir string) error {
	info, err := os.Stat(auxDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", auxDir, ErrNoDatabases)
		}
		return fmt.Errorf("failed to access %s: %w", auxDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", auxDir)
	}
	return nil
}

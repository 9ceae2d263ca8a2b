// Package pipeline runs the three generation phases over a set of source
// files: symbol databases, diagram sources, and HTML pages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/morozRed/flowdoc/internal/annotation"
	"github.com/morozRed/flowdoc/internal/flow"
	"github.com/morozRed/flowdoc/internal/flowdb"
	"github.com/morozRed/flowdoc/internal/logging"
	"github.com/morozRed/flowdoc/internal/render"
	"github.com/morozRed/flowdoc/internal/resolve"
	"github.com/morozRed/flowdoc/internal/syntax"
)

// Pipeline holds what every phase needs. All phases are sequential.
type Pipeline struct {
	OutDir   string
	AuxDir   string
	Ignore   []string
	Registry *syntax.Registry
	Cache    *syntax.Cache
	Logger   *slog.Logger
	// Progress, when set, is called after each file of a phase.
	Progress func(phase, path string, done, total int)
}

// Summary reports what a run produced.
type Summary struct {
	RunID      string         `json:"run_id"`
	OutputDir  string         `json:"output_dir"`
	AuxDir     string         `json:"aux_dir"`
	Files      []string       `json:"files,omitempty"`
	Issues     []syntax.Issue `json:"issues,omitempty"`
	Databases  int            `json:"databases"`
	Rewritten  int            `json:"rewritten"`
	Callables  int            `json:"callables"`
	Diagrams   int            `json:"diagrams"`
	Pages      int            `json:"pages"`
	DurationMS int64          `json:"duration_ms"`
}

// New returns a pipeline with a tree cache of cacheSize entries.
func New(registry *syntax.Registry, cacheSize int, outDir, auxDir string, ignoreRules []string, logger *slog.Logger) (*Pipeline, error) {
	cache, err := syntax.NewCache(registry, cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create tree cache: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pipeline{
		OutDir:   outDir,
		AuxDir:   auxDir,
		Ignore:   ignoreRules,
		Registry: registry,
		Cache:    cache,
		Logger:   logger,
	}, nil
}

func (p *Pipeline) report(phase, path string, done, total int) {
	if p.Progress != nil {
		p.Progress(phase, path, done, total)
	}
}

// NewSummary returns an empty summary for a run of one or more phases.
func (p *Pipeline) NewSummary(ctx context.Context) *Summary {
	s := p.newSummary()
	s.RunID = logging.RunID(ctx)
	return s
}

func (p *Pipeline) newSummary() *Summary {
	return &Summary{
		OutputDir: p.OutDir,
		AuxDir:    p.AuxDir,
		Files:     make([]string, 0),
		Issues:    make([]syntax.Issue, 0),
	}
}

// Discover expands paths into the supported source files they name.
func (p *Pipeline) Discover(paths []string, s *Summary) ([]string, error) {
	collection, err := p.Registry.Collect(paths, p.Ignore)
	if err != nil {
		return nil, fmt.Errorf("failed to collect source files: %w", err)
	}
	s.Files = append(s.Files, collection.Files...)
	s.Issues = append(s.Issues, collection.Issues...)
	return collection.Files, nil
}

// parse returns the tree of path. Files that cannot be parsed are recorded
// as issues and yield a nil tree; files that cannot be read are fatal.
func (p *Pipeline) parse(ctx context.Context, path string, s *Summary) (syntax.Tree, error) {
	tree, err := p.Cache.Get(path)
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return nil, err
	}
	if err != nil {
		p.Logger.WarnContext(ctx, "skipping file", slog.String("error", err.Error()))
		s.Issues = append(s.Issues, syntax.Issue{File: path, Severity: "error", Message: err.Error()})
		return nil, nil
	}
	return tree, nil
}

// StemRecords are the merged records of every file sharing a stem.
type StemRecords struct {
	Stem    string
	Source  string
	Records []flowdb.Record
}

// CollectRecords parses files and merges their records per stem, so a
// header and its source file share one database. Within a stem the first
// record of a USR wins.
func (p *Pipeline) CollectRecords(ctx context.Context, files []string, s *Summary) ([]StemRecords, error) {
	builder := &flowdb.Builder{Logger: p.Logger}
	var groups []StemRecords
	index := make(map[string]int)
	seen := make(map[string]bool)
	for i, path := range files {
		p.report("db", path, i+1, len(files))
		fctx := logging.WithFile(ctx, path)
		tree, err := p.parse(fctx, path, s)
		if err != nil {
			return nil, err
		}
		if tree == nil {
			continue
		}
		stem := flowdb.Stem(path)
		g, ok := index[stem]
		if !ok {
			g = len(groups)
			index[stem] = g
			groups = append(groups, StemRecords{Stem: stem, Source: path})
		}
		for _, r := range builder.Build(fctx, tree) {
			key := stem + "\t" + r.USR
			if seen[key] {
				continue
			}
			seen[key] = true
			groups[g].Records = append(groups[g].Records, r)
		}
	}
	return groups, nil
}

// BuildDatabases writes one symbol database per source file stem.
func (p *Pipeline) BuildDatabases(ctx context.Context, files []string, s *Summary) error {
	groups, err := p.CollectRecords(ctx, files, s)
	if err != nil {
		return err
	}
	for _, g := range groups {
		dbPath, written, err := flowdb.WriteFile(p.AuxDir, g.Source, g.Records)
		if err != nil {
			return fmt.Errorf("failed to write symbol database for %s: %w", g.Source, err)
		}
		s.Databases++
		s.Callables += len(g.Records)
		if written {
			s.Rewritten++
		}
		p.Logger.DebugContext(ctx, "symbol database ready",
			slog.String("path", dbPath),
			slog.Int("records", len(g.Records)),
			slog.Bool("written", written))
	}
	return nil
}

// LoadDatabase reads every symbol database in the auxiliary directory.
func (p *Pipeline) LoadDatabase() (*flowdb.Database, error) {
	db, err := flowdb.Load(p.AuxDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load symbol databases: %w", err)
	}
	return db, nil
}

// RenderDiagrams writes the diagram sources of every annotated callable in
// files, one per zoom level up to the callable's depth.
func (p *Pipeline) RenderDiagrams(ctx context.Context, files []string, db *flowdb.Database, s *Summary) error {
	renderer := &flow.Renderer{
		Resolver: &resolve.Resolver{Logger: p.Logger},
		Labeler:  &resolve.Labeler{DB: db},
		Logger:   p.Logger,
	}
	writer := &render.Writer{Dir: p.AuxDir}

	for i, path := range files {
		p.report("diagrams", path, i+1, len(files))
		fctx := logging.WithFile(ctx, path)
		tree, err := p.parse(fctx, path, s)
		if err != nil {
			return err
		}
		if tree == nil {
			continue
		}
		stem := flowdb.Stem(path)

		var renderErr error
		syntax.Walk(tree.Root(), func(n syntax.Node) bool {
			if renderErr != nil {
				return false
			}
			if !n.Kind().IsCallable() {
				return true
			}
			entry, found := db.Lookup(n.USR())
			if !found || entry.File != stem {
				return false
			}
			cctx := logging.WithCallable(fctx, entry.USR)
			for zoom := annotation.Zoom(0); zoom <= entry.MaxZoom; zoom++ {
				doc := renderer.Render(cctx, tree, n, zoom)
				out, err := writer.Write(entry.USR, zoom, doc)
				if err != nil {
					renderErr = err
					return false
				}
				s.Diagrams++
				p.Logger.DebugContext(cctx, "diagram written",
					slog.String("path", out),
					slog.Int("zoom", int(zoom)))
			}
			return false
		})
		if renderErr != nil {
			return renderErr
		}
	}
	return nil
}

// BuildPages writes one HTML page per database file plus the page assets.
func (p *Pipeline) BuildPages(ctx context.Context, db *flowdb.Database, s *Summary) error {
	builder := &render.PageBuilder{OutDir: p.OutDir, AuxDir: p.AuxDir}
	stems := db.Files()
	for i, stem := range stems {
		p.report("html", stem, i+1, len(stems))
		out, err := builder.Write(stem, db.EntriesFor(stem))
		if err != nil {
			return err
		}
		s.Pages++
		p.Logger.DebugContext(ctx, "page written", slog.String("path", out))
	}
	if s.Pages == 0 {
		return nil
	}
	if err := builder.WriteAssets(); err != nil {
		return fmt.Errorf("failed to write page assets: %w", err)
	}
	return nil
}

// Close releases the cached syntax trees.
func (p *Pipeline) Close() {
	p.Cache.Purge()
}

// Run discovers the files under paths and runs every phase. HTML pages are
// skipped when html is false.
func (p *Pipeline) Run(ctx context.Context, paths []string, html bool) (*Summary, error) {
	start := time.Now()
	s := p.NewSummary(ctx)
	defer p.Close()

	files, err := p.Discover(paths, s)
	if err != nil {
		return nil, err
	}
	p.Logger.InfoContext(ctx, "discovered source files", slog.Int("files", len(files)))

	if err := p.BuildDatabases(ctx, files, s); err != nil {
		return nil, err
	}
	db, err := p.LoadDatabase()
	if err != nil {
		return nil, err
	}
	if err := p.RenderDiagrams(ctx, files, db, s); err != nil {
		return nil, err
	}
	if html {
		if err := p.BuildPages(ctx, db, s); err != nil {
			return nil, err
		}
	}

	s.DurationMS = time.Since(start).Milliseconds()
	p.Logger.InfoContext(ctx, "generation complete",
		slog.Int("callables", s.Callables),
		slog.Int("diagrams", s.Diagrams),
		slog.Int("pages", s.Pages))
	return s, nil
}

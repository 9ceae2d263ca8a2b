package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/morozRed/flowdoc/internal/annotation"
	"github.com/morozRed/flowdoc/internal/fileutil"
	"github.com/morozRed/flowdoc/internal/flowdb"
)

//go:embed templates static
var content embed.FS

// AssetsDir is the directory, relative to the output directory, that holds
// the page scripts and styles.
const AssetsDir = "assets"

var pageTemplate = template.Must(template.ParseFS(content, "templates/page.html"))

type view struct {
	ID      string
	Label   string
	Image   string
	MapName string
	Map     template.HTML
}

type section struct {
	Signature string
	Anchor    string
	Tabbed    bool
	Views     []view
}

type pageData struct {
	Title    string
	Assets   string
	Sections []section
}

// PageBuilder assembles one HTML page per source file from its database
// entries. Rendered images are expected next to the diagram sources as
// <name>.png, with an optional <name>.cmapx client-side image map.
type PageBuilder struct {
	OutDir string
	AuxDir string
}

// PagePath returns where the page of a source file stem is written.
func (b *PageBuilder) PagePath(stem string) string {
	return filepath.Join(b.OutDir, stem+".html")
}

// Build renders the page of one source file.
func (b *PageBuilder) Build(stem string, entries []flowdb.Entry) ([]byte, error) {
	auxRel, err := filepath.Rel(b.OutDir, b.AuxDir)
	if err != nil {
		auxRel = b.AuxDir
	}
	auxRel = filepath.ToSlash(auxRel)

	data := pageData{Title: "docs", Assets: AssetsDir, Sections: make([]section, 0, len(entries))}
	for _, e := range entries {
		anchor := Sanitize(e.USR)
		s := section{
			Signature: e.Signature,
			Anchor:    anchor,
			Tabbed:    e.MaxZoom > 0,
			Views:     make([]view, 0, int(e.MaxZoom)+1),
		}
		for z := annotation.Zoom(0); z <= e.MaxZoom; z++ {
			name := DiagramName(e.USR, z)
			v := view{
				ID:    "view" + z.Suffix() + "_" + anchor,
				Label: "zoom" + z.Suffix(),
				Image: path.Join(auxRel, name+".png"),
			}
			imageMap, err := os.ReadFile(filepath.Join(b.AuxDir, name+".cmapx"))
			switch {
			case err == nil:
				v.MapName = name + "_map"
				v.Map = template.HTML(imageMap)
			case !errors.Is(err, fs.ErrNotExist):
				return nil, fmt.Errorf("read image map %s: %w", name, err)
			}
			s.Views = append(s.Views, v)
		}
		data.Sections = append(data.Sections, s)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render page %s: %w", stem, err)
	}
	return buf.Bytes(), nil
}

// Write renders and stores the page of one source file, returning its path.
func (b *PageBuilder) Write(stem string, entries []flowdb.Entry) (string, error) {
	page, err := b.Build(stem, entries)
	if err != nil {
		return "", err
	}
	if err := fileutil.EnsureDir(b.OutDir); err != nil {
		return "", err
	}
	out := b.PagePath(stem)
	if err := fileutil.WriteIfChanged(out, page); err != nil {
		return "", fmt.Errorf("write page %s: %w", out, err)
	}
	return out, nil
}

// WriteAssets copies the page scripts and styles into the output directory
// unless they already exist there.
func (b *PageBuilder) WriteAssets() error {
	entries, err := fs.ReadDir(content, "static")
	if err != nil {
		return err
	}
	for _, entry := range entries {
		data, err := content.ReadFile("static/" + entry.Name())
		if err != nil {
			return err
		}
		dst := filepath.Join(b.OutDir, AssetsDir, entry.Name())
		if err := fileutil.WriteIfMissing(dst, data, 0o644); err != nil {
			return fmt.Errorf("write asset %s: %w", dst, err)
		}
	}
	return nil
}

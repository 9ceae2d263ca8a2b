package syntax

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/morozRed/flowdoc/internal/ignore"
)

// ErrUnsupportedFile is returned when no provider handles a file extension.
var ErrUnsupportedFile = errors.New("unsupported file type")

// Provider turns source files of one language into Trees.
type Provider interface {
	// Language returns the language name (e.g., "cpp", "go")
	Language() string

	// Extensions returns file extensions this provider handles
	Extensions() []string

	// Parse builds the syntax tree of one file
	Parse(path string, content []byte) (Tree, error)
}

// Registry holds all registered providers
type Registry struct {
	providers map[string]Provider // language name -> provider
	extToLang map[string]string   // extension -> language name
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		extToLang: make(map[string]string),
	}
}

// Register adds a provider to the registry
func (r *Registry) Register(p Provider) {
	lang := p.Language()
	r.providers[lang] = p
	for _, ext := range p.Extensions() {
		r.extToLang[ext] = lang
	}
}

// ProviderForFile returns the provider for a file, keyed by extension
func (r *Registry) ProviderForFile(filename string) (Provider, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	lang, ok := r.extToLang[ext]
	if !ok {
		return nil, false
	}
	p, ok := r.providers[lang]
	return p, ok
}

// SupportedExtensions returns all supported file extensions, sorted
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.extToLang))
	for ext := range r.extToLang {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Parse parses already loaded content.
func (r *Registry) Parse(path string, content []byte) (Tree, error) {
	p, ok := r.ProviderForFile(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFile)
	}
	return p.Parse(path, content)
}

// ParseFile reads and parses a single file
func (r *Registry) ParseFile(path string) (Tree, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return r.Parse(path, content)
}

// Issue captures a non-fatal problem met while collecting or parsing files.
type Issue struct {
	File     string `json:"file"`
	Severity string `json:"severity"` // warning | error
	Message  string `json:"message"`
}

// Collection is the result of Collect.
type Collection struct {
	Files  []string
	Issues []Issue
}

// Collect expands paths into the sorted list of supported source files. Files
// are taken as given; directories are walked with the ignore rules applied
// relative to each directory.
func (r *Registry) Collect(paths []string, ignoreRules []string) (*Collection, error) {
	result := &Collection{
		Files:  make([]string, 0),
		Issues: make([]Issue, 0),
	}
	seen := make(map[string]bool)
	add := func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		result.Files = append(result.Files, path)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to access path %q: %w", root, err)
		}
		if !info.IsDir() {
			if _, ok := r.ProviderForFile(root); !ok {
				return nil, fmt.Errorf("%s: %w", root, ErrUnsupportedFile)
			}
			add(root)
			continue
		}

		if err := r.walk(root, ignore.NewMatcher(ignoreRules), result, add); err != nil {
			return nil, err
		}
	}

	sort.Strings(result.Files)
	sort.Slice(result.Issues, func(i, j int) bool {
		if result.Issues[i].File == result.Issues[j].File {
			return result.Issues[i].Message < result.Issues[j].Message
		}
		return result.Issues[i].File < result.Issues[j].File
	})
	return result, nil
}

func (r *Registry) walk(root string, matcher *ignore.Matcher, result *Collection, add func(string)) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			result.Issues = append(result.Issues, Issue{
				File:     path,
				Severity: "warning",
				Message:  fmt.Sprintf("walk error: %v", err),
			})
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		if relPath != "." && matcher.ShouldIgnore(relPath, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if _, ok := r.ProviderForFile(path); ok {
			add(path)
		}
		return nil
	})
}

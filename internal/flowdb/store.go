package flowdb

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/morozRed/flowdoc/internal/annotation"
	"github.com/morozRed/flowdoc/internal/fileutil"
)

// ErrMalformed is returned for database lines that are not usr, zoom, label.
var ErrMalformed = errors.New("malformed flowdb record")

// Stem returns the file name of path without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// PathFor returns the database path of a source file inside dir.
func PathFor(dir, source string) string {
	return filepath.Join(dir, Stem(source)+Extension)
}

// Encode renders records as tab-separated lines.
func Encode(records []Record) ([]byte, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	w.Comma = '\t'
	for _, r := range records {
		if err := w.Write([]string{r.USR, strconv.Itoa(int(r.MaxZoom)), r.Signature}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// Decode parses tab-separated records.
func Decode(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = 3
	reader.LazyQuotes = true

	records := make([]Record, 0)
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		zoom, err := strconv.Atoi(fields[1])
		if err != nil || zoom < 0 || zoom > int(annotation.MaxZoom) {
			return nil, fmt.Errorf("%w: zoom %q", ErrMalformed, fields[1])
		}
		records = append(records, Record{
			USR:       fields[0],
			MaxZoom:   annotation.Zoom(zoom),
			Signature: fields[2],
		})
	}
}

// WriteFile creates or overwrites the database of source inside dir. The
// file is rewritten only when its content changes.
func WriteFile(dir, source string, records []Record) (string, bool, error) {
	data, err := Encode(records)
	if err != nil {
		return "", false, err
	}
	if err := fileutil.EnsureDir(dir); err != nil {
		return "", false, err
	}
	path := PathFor(dir, source)
	written, err := fileutil.WriteIfChangedTracked(path, data)
	if err != nil {
		return "", false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, written, nil
}

// ReadFile loads one database file.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Database is the cross-file view over every database in a directory.
type Database struct {
	entries []Entry
	byUSR   map[string]int
	byName  map[string][]int
	byFile  map[string][]int
}

// NewDatabase indexes entries; the first entry of a USR wins.
func NewDatabase(entries []Entry) *Database {
	db := &Database{
		entries: make([]Entry, 0, len(entries)),
		byUSR:   make(map[string]int),
		byName:  make(map[string][]int),
		byFile:  make(map[string][]int),
	}
	for _, e := range entries {
		if _, dup := db.byUSR[e.USR]; dup {
			continue
		}
		idx := len(db.entries)
		db.entries = append(db.entries, e)
		db.byUSR[e.USR] = idx
		db.byName[NameOf(e.USR)] = append(db.byName[NameOf(e.USR)], idx)
		db.byFile[e.File] = append(db.byFile[e.File], idx)
	}
	return db
}

// Load reads every database in dir, in file name order.
func Load(dir string) (*Database, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+Extension))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	entries := make([]Entry, 0)
	for _, path := range matches {
		records, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		stem := Stem(path)
		for _, r := range records {
			entries = append(entries, Entry{Record: r, File: stem})
		}
	}
	return NewDatabase(entries), nil
}

// Lookup finds the entry of a USR.
func (db *Database) Lookup(usr string) (Entry, bool) {
	idx, ok := db.byUSR[usr]
	if !ok {
		return Entry{}, false
	}
	return db.entries[idx], true
}

// LookupName finds the only entry whose callable is called name. Ambiguous
// names resolve to nothing.
func (db *Database) LookupName(name string) (Entry, bool) {
	indexes := db.byName[name]
	if len(indexes) != 1 {
		return Entry{}, false
	}
	return db.entries[indexes[0]], true
}

// Entries returns all entries in load order.
func (db *Database) Entries() []Entry {
	return db.entries
}

// Files returns the stems that contributed entries, sorted.
func (db *Database) Files() []string {
	return fileutil.MapKeysSorted(db.byFile)
}

// EntriesFor returns the entries of one file stem in source order.
func (db *Database) EntriesFor(stem string) []Entry {
	indexes := db.byFile[stem]
	out := make([]Entry, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, db.entries[idx])
	}
	return out
}

// Len returns the number of distinct callables.
func (db *Database) Len() int {
	return len(db.entries)
}

package graph

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/sparqlmd/internal/rdf"
)

// DefaultExtensions are the data file extensions loaded when none are
// configured.
var DefaultExtensions = []string{".ttl", ".nt", ".rdf", ".owl"}

// LoadOptions controls Load.
type LoadOptions struct {
	// Extensions selects data files. Empty means DefaultExtensions.
	Extensions []string

	// SkipInvalid skips files that fail to parse instead of failing the
	// load. A skipped file contributes nothing, neither triples nor
	// prefixes.
	SkipInvalid bool

	// Prefixes are declared after every file's own declarations, so they
	// override them.
	Prefixes map[string]string

	Logger *slog.Logger
}

// LoadError reports a data file that could not be read or parsed.
type LoadError struct {
	Path   string
	Line   int
	Column int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %v", e.Path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load builds a frozen Store from every data file under dir.
//
// Files are visited in lexical path order. Each file is parsed completely
// before any of its triples are inserted, and is inserted in its own
// transaction. Blank node labels are scoped to their file.
func Load(ctx context.Context, dir string, opts LoadOptions) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("graph directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("graph directory: not a directory: %s", dir)
	}

	files, err := FindDataFiles(dir, opts.Extensions)
	if err != nil {
		return nil, fmt.Errorf("scan graph directory: %w", err)
	}

	s, err := Open()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var prefixes rdf.PrefixTableBuilder
	loaded := 0
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			s.Close()
			return nil, err
		}

		g, err := ParseFile(path, "f"+strconv.Itoa(i)+".")
		if err != nil {
			if opts.SkipInvalid {
				logger.Warn("skipping invalid data file", "file", path, "error", err)
				continue
			}
			s.Close()
			return nil, err
		}

		added, err := s.Add(ctx, g)
		if err != nil {
			s.Close()
			return nil, &LoadError{Path: path, Err: err}
		}
		prefixes.DeclareAll(g.Namespaces)
		loaded++
		logger.Debug("loaded data file", "file", path, "triples", len(g.Triples), "new", added)
	}

	names := make([]string, 0, len(opts.Prefixes))
	for name := range opts.Prefixes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		prefixes.Declare(name, opts.Prefixes[name])
	}
	s.SetPrefixes(prefixes.Build())

	if err := s.Freeze(ctx); err != nil {
		s.Close()
		return nil, err
	}

	logger.Info("graph loaded",
		"dir", dir,
		"files", loaded,
		"triples", s.Len(),
		"prefixes", s.Prefixes().Len(),
		"duration", time.Since(start))
	return s, nil
}

// FindDataFiles walks dir and returns the files whose extension is one of
// exts (case-insensitive), sorted by path. Empty exts means
// DefaultExtensions.
func FindDataFiles(dir string, exts []string) ([]string, error) {
	isData := DataFileMatcher(exts)

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isData(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// DataFileMatcher returns a predicate reporting whether a path has one of
// exts, compared case-insensitively with or without the leading dot.
// Empty exts means DefaultExtensions.
func DataFileMatcher(exts []string) func(path string) bool {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	want := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		want[ext] = true
	}
	return func(path string) bool {
		return want[strings.ToLower(filepath.Ext(path))]
	}
}

// ParseFile parses one data file. The syntax is chosen by extension:
// RDF/XML for .rdf, .owl and .xml, Turtle (a superset of N-Triples) for
// everything else. Relative IRIs resolve against the file's URL.
func ParseFile(path, blankScope string) (*rdf.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	opts := rdf.ParseOptions{Base: fileURL(path), BlankScope: blankScope}

	var g *rdf.Graph
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rdf", ".owl", ".xml":
		g, err = rdf.ParseRDFXML(bytes.NewReader(data), opts)
	default:
		g, err = rdf.ParseTurtle(string(data), opts)
	}
	if err != nil {
		le := &LoadError{Path: path, Err: err}
		var se *rdf.SyntaxError
		if errors.As(err, &se) {
			le.Line, le.Column, le.Err = se.Line, se.Column, errors.New(se.Msg)
		}
		return nil, le
	}
	return g, nil
}

func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs
	}
	return "file://" + abs
}

package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// FileNames are the project files Discover looks for, in order.
var FileNames = []string{"sparqlmd.yaml", "sparqlmd.yml", "sparqlmd.cue"}

// Config is the project configuration.
//
// Relative paths in a loaded file are resolved against the file's
// directory.
type Config struct {
	TargetDir   string            `yaml:"targetdir" json:"targetdir,omitempty"`
	Files       []string          `yaml:"files" json:"files,omitempty"`
	Extensions  []string          `yaml:"extensions" json:"extensions,omitempty"`
	Prefixes    map[string]string `yaml:"prefixes" json:"prefixes,omitempty"`
	SkipInvalid bool              `yaml:"skip_invalid" json:"skip_invalid,omitempty"`

	// Path is the file the configuration was loaded from, if any.
	Path string `yaml:"-" json:"-"`
}

// Error reports an unreadable or invalid configuration file.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Discover returns the path of the first project file found in dir.
func Discover(dir string) (string, bool) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// Load reads a YAML or CUE configuration file, chosen by extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = parseYAML(data)
	case ".cue":
		cfg, err = parseCUE(path, data)
	default:
		err = fmt.Errorf("unsupported config format %q (want .yaml, .yml or .cue)", filepath.Ext(path))
	}
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	cfg.Path = path
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

func parseYAML(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseCUE(path string, data []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, err
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, err
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Patterns shared with schema.cue.
var (
	extensionRe = regexp.MustCompile(`^\.?[A-Za-z0-9_-]+$`)
	namespaceRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*:`)
)

// validate applies the rules of schema.cue to a decoded YAML file.
func (c *Config) validate() error {
	for _, f := range c.Files {
		if f == "" {
			return errors.New("files: empty entry")
		}
	}
	for _, ext := range c.Extensions {
		if !extensionRe.MatchString(ext) {
			return fmt.Errorf("extensions: invalid entry %q", ext)
		}
	}
	for prefix, ns := range c.Prefixes {
		if !namespaceRe.MatchString(ns) {
			return fmt.Errorf("prefixes: %q: namespace %q is not an absolute IRI", prefix, ns)
		}
	}
	return nil
}

func (c *Config) resolve(base string) {
	if c.TargetDir != "" && !filepath.IsAbs(c.TargetDir) {
		c.TargetDir = filepath.Join(base, c.TargetDir)
	}
	for i, f := range c.Files {
		if !filepath.IsAbs(f) {
			c.Files[i] = filepath.Join(base, f)
		}
	}
}

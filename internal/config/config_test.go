package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlmd/internal/testutil"
)

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"sparqlmd.yaml": `
targetdir: data
files:
  - docs/**/*.md
  - /abs/readme.md
extensions: [ttl, .nt]
prefixes:
  ex: http://example.org/
skip_invalid: true
`})

	cfg, err := Load(filepath.Join(dir, "sparqlmd.yaml"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "data"), cfg.TargetDir)
	assert.Equal(t, []string{filepath.Join(dir, "docs/**/*.md"), "/abs/readme.md"}, cfg.Files)
	assert.Equal(t, []string{"ttl", ".nt"}, cfg.Extensions)
	assert.Equal(t, map[string]string{"ex": "http://example.org/"}, cfg.Prefixes)
	assert.True(t, cfg.SkipInvalid)
	assert.Equal(t, filepath.Join(dir, "sparqlmd.yaml"), cfg.Path)
}

func TestLoad_CUE(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"sparqlmd.cue": `
targetdir: "kb"
files: ["README.md"]
prefixes: {
	foaf: "http://xmlns.com/foaf/0.1/"
}
`})

	cfg, err := Load(filepath.Join(dir, "sparqlmd.cue"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "kb"), cfg.TargetDir)
	assert.Equal(t, []string{filepath.Join(dir, "README.md")}, cfg.Files)
	assert.Equal(t, "http://xmlns.com/foaf/0.1/", cfg.Prefixes["foaf"])
	assert.False(t, cfg.SkipInvalid)
}

func TestLoad_EmptyYAML(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"sparqlmd.yml": "# nothing yet\n"})

	cfg, err := Load(filepath.Join(dir, "sparqlmd.yml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.TargetDir)
	assert.Empty(t, cfg.Files)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml unknown field", "sparqlmd.yaml", "targetdir: x\ncolour: red\n"},
		{"yaml wrong type", "sparqlmd.yaml", "skip_invalid: [1]\n"},
		{"yaml relative namespace", "sparqlmd.yaml", "prefixes:\n  ex: example\n"},
		{"yaml empty extension", "sparqlmd.yaml", "extensions: [\".\"]\n"},
		{"yaml dotted extension", "sparqlmd.yaml", "extensions: [\"a.b\"]\n"},
		{"yaml namespace without scheme", "sparqlmd.yaml", "prefixes:\n  ex: \"1:x\"\n"},
		{"cue dotted extension", "sparqlmd.cue", `extensions: ["a.b"]`},
		{"cue namespace without scheme", "sparqlmd.cue", `prefixes: ex: "1:x"`},
		{"cue unknown field", "sparqlmd.cue", `colour: "red"`},
		{"cue wrong type", "sparqlmd.cue", `skip_invalid: "yes"`},
		{"cue bad extension", "sparqlmd.cue", `extensions: ["t t l"]`},
		{"cue syntax", "sparqlmd.cue", `targetdir: `},
		{"unknown format", "sparqlmd.toml", `targetdir = "x"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			testutil.WriteFiles(t, dir, map[string]string{tc.file: tc.content})

			_, err := Load(filepath.Join(dir, tc.file))
			require.Error(t, err)

			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr), "got %T: %v", err, err)
			assert.Equal(t, filepath.Join(dir, tc.file), cfgErr.Path)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "sparqlmd.yaml"))
	var cfgErr *Error
	assert.True(t, errors.As(err, &cfgErr))
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()

	_, ok := Discover(dir)
	assert.False(t, ok)

	testutil.WriteFiles(t, dir, map[string]string{"sparqlmd.cue": "", "sparqlmd.yml": ""})
	path, ok := Discover(dir)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "sparqlmd.yml"), path)
}

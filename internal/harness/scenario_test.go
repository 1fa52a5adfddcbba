package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "test.yaml", `
name: test_scenario
description: "Test scenario for validation"
mode: clear
data:
  g.ttl: |
    <http://x/a> <http://x/b> <http://x/c> .
prefixes:
  x: "http://x/"
document: |
  text
assertions:
  - type: regions
    count: 0
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, "clear", scenario.Mode)
	assert.Equal(t, "<http://x/a> <http://x/b> <http://x/c> .\n", scenario.Data["g.ttl"])
	assert.Equal(t, map[string]string{"x": "http://x/"}, scenario.Prefixes)
	assert.Equal(t, "text\n", scenario.Document)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, AssertRegions, scenario.Assertions[0].Type)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "typo.yaml", `
name: typo
description: "has a typo"
assertion:
  - type: idempotent
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Validation(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "missing name",
			content: "description: d\nassertions: [{type: idempotent}]\n",
			errMsg:  "name is required",
		},
		{
			name:    "name with separator",
			content: "name: a/b\ndescription: d\nassertions: [{type: idempotent}]\n",
			errMsg:  "name must not contain path separators",
		},
		{
			name:    "missing description",
			content: "name: n\nassertions: [{type: idempotent}]\n",
			errMsg:  "description is required",
		},
		{
			name:    "bad mode",
			content: "name: n\ndescription: d\nmode: replace\nassertions: [{type: idempotent}]\n",
			errMsg:  `unknown mode "replace"`,
		},
		{
			name:    "nested data file",
			content: "name: n\ndescription: d\ndata: {sub/g.ttl: ''}\nassertions: [{type: idempotent}]\n",
			errMsg:  `data: invalid file name "sub/g.ttl"`,
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\n",
			errMsg:  "assertions list is required",
		},
		{
			name:    "assertion without type",
			content: "name: n\ndescription: d\nassertions: [{text: x}]\n",
			errMsg:  "assertions[0]: type is required",
		},
		{
			name:    "contains without text",
			content: "name: n\ndescription: d\nassertions: [{type: contains}]\n",
			errMsg:  "assertions[0]: text is required for contains",
		},
		{
			name:    "negative region count",
			content: "name: n\ndescription: d\nassertions: [{type: idempotent}, {type: regions, count: -1}]\n",
			errMsg:  "assertions[1]: count must be non-negative",
		},
		{
			name:    "error kind without kind",
			content: "name: n\ndescription: d\nassertions: [{type: error_kind}]\n",
			errMsg:  "assertions[0]: kind is required",
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\nassertions: [{type: trace_contains}]\n",
			errMsg:  `unknown assertion type "trace_contains"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), "s.yaml", tc.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt", "cart_add.yaml"} {
		writeScenario(t, dir, name, "")
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	writeScenario(t, dir, "nested/c.yaml", "")

	files, err := FindScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "cart_add.yaml"),
		filepath.Join(dir, "nested", "c.yaml"),
	}, files)

	files, err = FindScenarioFiles(dir, "cart_*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "cart_add.yaml")}, files)

	_, err = FindScenarioFiles(dir, "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

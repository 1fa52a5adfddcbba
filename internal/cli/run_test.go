package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlmd/internal/testutil"
)

const peopleTTL = `@prefix ex: <http://example.org/> .
ex:alice ex:name "Alice" .
`

const bobTTL = `@prefix ex: <http://example.org/> .
ex:bob ex:name "Bob" .
`

const peopleDoc = "# People\n\n```sparql\nSELECT ?n WHERE { ?p ex:name ?n }\n```\n"

func renderedPeople(name string) string {
	return peopleDoc + "\n" +
		"<!-- start of sparql result -->\n\n" +
		"| n |\n" +
		"| ------------- |\n" +
		"| " + name + " |\n\n" +
		"<!-- end of sparql result -->\n\n"
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	outBuf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(ctx)
	return outBuf.String(), errBuf.String(), err
}

// project writes a data directory and documents under a temp dir and
// returns the root.
func project(t *testing.T, docs map[string]string) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{"data/people.ttl": peopleTTL}
	for name, content := range docs {
		files[name] = content
	}
	testutil.WriteFiles(t, root, files)
	return root
}

func TestRun_Preview(t *testing.T) {
	root := project(t, map[string]string{"doc.md": peopleDoc})
	doc := filepath.Join(root, "doc.md")

	stdout, _, err := execute(t, "--targetdir", filepath.Join(root, "data"), doc)
	require.NoError(t, err)

	assert.Equal(t, "-------- "+doc+"\n"+renderedPeople("Alice")+"\n", stdout)
	assert.Equal(t, peopleDoc, testutil.ReadFile(t, doc), "preview must not touch the document")
}

func TestRun_Replace(t *testing.T) {
	root := project(t, map[string]string{"doc.md": peopleDoc})
	doc := filepath.Join(root, "doc.md")
	data := filepath.Join(root, "data")

	stdout, stderr, err := execute(t, "--targetdir", data, "--replace", doc)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "document updated")
	assert.Equal(t, renderedPeople("Alice"), testutil.ReadFile(t, doc))

	_, stderr, err = execute(t, "--targetdir", data, "--replace", doc)
	require.NoError(t, err)
	assert.Contains(t, stderr, "document unchanged")
	assert.Equal(t, renderedPeople("Alice"), testutil.ReadFile(t, doc))
}

func TestRun_Clear(t *testing.T) {
	root := project(t, map[string]string{"doc.md": renderedPeople("Stale")})
	doc := filepath.Join(root, "doc.md")

	_, _, err := execute(t, "--targetdir", filepath.Join(root, "data"), "--clear", "--replace", doc)
	require.NoError(t, err)
	assert.Equal(t, peopleDoc+"\n", testutil.ReadFile(t, doc))
}

func TestRun_Check(t *testing.T) {
	root := project(t, map[string]string{
		"fresh.md": renderedPeople("Alice"),
		"stale.md": renderedPeople("Stale"),
	})
	data := filepath.Join(root, "data")
	fresh := filepath.Join(root, "fresh.md")
	stale := filepath.Join(root, "stale.md")

	t.Run("up to date", func(t *testing.T) {
		stdout, _, err := execute(t, "--targetdir", data, "--check", fresh)
		require.NoError(t, err)
		assert.Equal(t, "1 document(s) up to date\n", stdout)
	})

	t.Run("out of date", func(t *testing.T) {
		stdout, _, err := execute(t, "--targetdir", data, "--check", fresh, stale)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Equal(t, "1 document(s) out of date", err.Error())
		assert.Contains(t, stdout, "out of date: "+stale+"\n")
		assert.Contains(t, stdout, "1 of 2 document(s) out of date\n")
		assert.Equal(t, renderedPeople("Stale"), testutil.ReadFile(t, stale), "check must not write")
	})

	t.Run("json report", func(t *testing.T) {
		stdout, _, err := execute(t, "--targetdir", data, "--check", "--format", "json", fresh, stale)
		require.Error(t, err)

		var resp struct {
			Status string      `json:"status"`
			Data   CheckReport `json:"data"`
			Error  *CLIError   `json:"error"`
		}
		require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
		assert.Equal(t, "error", resp.Status)
		assert.Equal(t, 2, resp.Data.Checked)
		assert.Equal(t, []string{stale}, resp.Data.Changed)
		require.NotNil(t, resp.Error)
		assert.Equal(t, ErrCodeOutOfDate, resp.Error.Code)
	})

	t.Run("clear mode", func(t *testing.T) {
		_, _, err := execute(t, "--targetdir", data, "--check", "--clear", fresh)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
	})
}

func TestRun_FailedDocumentDoesNotStopOthers(t *testing.T) {
	root := project(t, map[string]string{"b.md": peopleDoc})
	missing := filepath.Join(root, "a.md")
	doc := filepath.Join(root, "b.md")

	_, stderr, err := execute(t, "--targetdir", filepath.Join(root, "data"), "--replace", missing, doc)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "1 document(s) failed: "+missing, err.Error())
	assert.Contains(t, stderr, "document failed")
	assert.Equal(t, renderedPeople("Alice"), testutil.ReadFile(t, doc))
}

func TestRun_GraphLoadFailure(t *testing.T) {
	root := project(t, map[string]string{
		"doc.md":          peopleDoc,
		"data/broken.ttl": "@prefix bad: <http://example.org/bad/> .\nbad:x bad:y\n",
	})
	data := filepath.Join(root, "data")
	doc := filepath.Join(root, "doc.md")

	_, _, err := execute(t, "--targetdir", data, doc)
	require.Error(t, err)
	assert.Equal(t, ExitUsage, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load graph")

	stdout, _, err := execute(t, "--targetdir", data, "--skip-invalid", doc)
	require.NoError(t, err)
	assert.Contains(t, stdout, "| Alice |")
}

func TestRun_UsageErrors(t *testing.T) {
	root := project(t, map[string]string{"doc.md": peopleDoc})
	doc := filepath.Join(root, "doc.md")

	testCases := []struct {
		name    string
		args    []string
		message string
	}{
		{"no documents", []string{"--targetdir", root}, "no documents selected"},
		{"check and replace", []string{"--check", "--replace", doc}, "--check cannot be combined with --replace"},
		{"check and watch", []string{"--check", "--watch", doc}, "--check cannot be combined with --watch"},
		{"bad debounce", []string{"--debounce", "0s", doc}, "--debounce must be positive"},
		{"unknown flag", []string{"--bogus", doc}, "unknown flag: --bogus"},
		{"missing config", []string{"--config", filepath.Join(root, "nope.yaml"), doc}, "invalid configuration"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, tc.args...)
			require.Error(t, err)
			assert.Equal(t, ExitUsage, GetExitCode(err))
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestRun_Globs(t *testing.T) {
	root := project(t, map[string]string{
		"docs/a.md":        peopleDoc,
		"docs/nested/b.md": peopleDoc,
		"docs/skip.txt":    peopleDoc,
	})

	_, _, err := execute(t,
		"--targetdir", filepath.Join(root, "data"),
		"--replace",
		"--files", filepath.Join(root, "docs", "**", "*.md"))
	require.NoError(t, err)

	assert.Equal(t, renderedPeople("Alice"), testutil.ReadFile(t, filepath.Join(root, "docs/a.md")))
	assert.Equal(t, renderedPeople("Alice"), testutil.ReadFile(t, filepath.Join(root, "docs/nested/b.md")))
	assert.Equal(t, peopleDoc, testutil.ReadFile(t, filepath.Join(root, "docs/skip.txt")))
}

func TestRun_Config(t *testing.T) {
	root := project(t, map[string]string{
		"docs/a.md":     peopleDoc,
		"docs/b.md":     peopleDoc,
		"other/bob.ttl": bobTTL,
		"sparqlmd.yaml": "targetdir: data\nfiles:\n  - docs/*.md\n",
	})
	cfg := filepath.Join(root, "sparqlmd.yaml")

	t.Run("explicit file", func(t *testing.T) {
		stdout, _, err := execute(t, "--config", cfg)
		require.NoError(t, err)
		assert.Contains(t, stdout, "-------- "+filepath.Join(root, "docs", "a.md")+"\n")
		assert.Contains(t, stdout, "-------- "+filepath.Join(root, "docs", "b.md")+"\n")
		assert.Contains(t, stdout, "| Alice |")
	})

	t.Run("flags override the file", func(t *testing.T) {
		doc := filepath.Join(root, "docs", "a.md")
		stdout, _, err := execute(t, "--config", cfg, "--targetdir", filepath.Join(root, "other"), doc)
		require.NoError(t, err)
		assert.Equal(t, "-------- "+doc+"\n"+renderedPeople("Bob")+"\n", stdout)
	})

	t.Run("discovered in working directory", func(t *testing.T) {
		t.Chdir(root)
		stdout, _, err := execute(t)
		require.NoError(t, err)
		assert.Contains(t, stdout, "| Alice |")
	})
}

func TestRun_Watch(t *testing.T) {
	root := project(t, map[string]string{"doc.md": peopleDoc})
	data := filepath.Join(root, "data")
	doc := filepath.Join(root, "doc.md")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, _, err := executeContext(t, ctx, "--targetdir", data, "--watch", "--debounce", "20ms", doc)
		done <- err
	}()

	require.Eventually(t, func() bool {
		return readString(doc) == renderedPeople("Alice")
	}, 5*time.Second, 20*time.Millisecond)

	// Rewrite the data until the watcher, which starts after the first run,
	// picks the change up.
	require.Eventually(t, func() bool {
		if err := os.WriteFile(filepath.Join(data, "people.ttl"), []byte(bobTTL), 0o644); err != nil {
			return false
		}
		return readString(doc) == renderedPeople("Bob")
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}

func readString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

package annotate

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlmd/internal/testutil"
)

func TestProcess_Replace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	testutil.WriteFiles(t, dir, map[string]string{"doc.md": basicDoc})
	require.NoError(t, os.Chmod(path, 0o640))

	e, _ := newTestEngine(t)
	require.NoError(t, Process(context.Background(), path, e, ModeRender, &ReplaceSink{}))

	assert.Equal(t, basicRendered+"\n", testutil.ReadFile(t, path))
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
	}
}

func TestProcess_ReplaceSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	testutil.WriteFiles(t, dir, map[string]string{"doc.md": "no blocks here\n"})

	info, err := os.Stat(path)
	require.NoError(t, err)

	e, _ := newTestEngine(t)
	require.NoError(t, Process(context.Background(), path, e, ModeRender, &ReplaceSink{}))

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, os.SameFile(info, after), "unchanged documents are not replaced")
}

func TestProcess_CRLFRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	crlf := strings.ReplaceAll(basicDoc, "\n", "\r\n")
	testutil.WriteFiles(t, dir, map[string]string{"doc.md": crlf})

	e, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, Process(ctx, path, e, ModeRender, &ReplaceSink{}))

	got := testutil.ReadFile(t, path)
	assert.Equal(t, strings.ReplaceAll(basicRendered+"\n", "\n", "\r\n"), got)

	changed, err := Check(ctx, path, e, ModeRender)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestProcess_Preview(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	testutil.WriteFiles(t, dir, map[string]string{"doc.md": basicDoc})

	var out bytes.Buffer
	e, _ := newTestEngine(t)
	require.NoError(t, Process(context.Background(), path, e, ModeRender, &PreviewSink{W: &out}))

	assert.Equal(t, "-------- "+path+"\n"+basicRendered+"\n\n", out.String())
	assert.Equal(t, basicDoc, testutil.ReadFile(t, path), "preview never writes")
}

func TestProcess_MissingDocument(t *testing.T) {
	e, _ := newTestEngine(t)
	err := Process(context.Background(), filepath.Join(t.TempDir(), "nope.md"), e, ModeRender, &CheckSink{})

	var ioErr *DocumentIOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"stale.md":   basicDoc,
		"current.md": basicRendered + "\n",
	})

	e, _ := newTestEngine(t)
	ctx := context.Background()

	changed, err := Check(ctx, filepath.Join(dir, "stale.md"), e, ModeRender)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = Check(ctx, filepath.Join(dir, "current.md"), e, ModeRender)
	require.NoError(t, err)
	assert.False(t, changed)

	assert.Equal(t, basicDoc, testutil.ReadFile(t, filepath.Join(dir, "stale.md")))
}

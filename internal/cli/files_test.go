package cli

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlmd/internal/testutil"
)

func TestExpandDocuments(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"b.md":           "",
		"a.md":           "",
		"notes.txt":      "",
		"sub/c.md":       "",
		"sub/deep/d.md":  "",
		"dir.md/keep.md": "",
	})
	join := func(parts ...string) string {
		return filepath.Join(append([]string{root}, parts...)...)
	}
	logger := slog.New(slog.DiscardHandler)

	testCases := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{
			name:     "literal paths keep their order",
			patterns: []string{join("b.md"), join("a.md")},
			want:     []string{join("b.md"), join("a.md")},
		},
		{
			name:     "missing literal is kept",
			patterns: []string{join("missing.md")},
			want:     []string{join("missing.md")},
		},
		{
			name:     "glob matches are sorted and skip directories",
			patterns: []string{join("*.md")},
			want:     []string{join("a.md"), join("b.md")},
		},
		{
			name:     "double star descends",
			patterns: []string{join("sub", "**", "*.md")},
			want:     []string{join("sub", "c.md"), join("sub", "deep", "d.md")},
		},
		{
			name:     "braces",
			patterns: []string{join("{a,notes}.*")},
			want:     []string{join("a.md"), join("notes.txt")},
		},
		{
			name:     "duplicates are dropped",
			patterns: []string{join("a.md"), join("*.md"), root + "/./a.md"},
			want:     []string{join("a.md"), join("b.md")},
		},
		{
			name:     "glob without matches",
			patterns: []string{join("*.rst")},
			want:     nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := expandDocuments(tc.patterns, logger)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestContainsGlob(t *testing.T) {
	assert.False(t, containsGlob("docs/readme.md"))
	assert.True(t, containsGlob("docs/*.md"))
	assert.True(t, containsGlob("docs/?.md"))
	assert.True(t, containsGlob("docs/[ab].md"))
	assert.True(t, containsGlob("docs/{a,b}.md"))
}

func TestMatchGlob(t *testing.T) {
	assert.True(t, matchGlob("docs/**/*.md", "docs/a/b/c.md"))
	assert.True(t, matchGlob("docs/*.md", "docs/./c.md"))
	assert.False(t, matchGlob("docs/*.md", "docs/a/c.md"))
}

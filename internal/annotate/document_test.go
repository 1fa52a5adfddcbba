package annotate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		lines []string
		crlf  bool
		out   string
	}{
		{"empty", "", nil, false, ""},
		{"single newline", "\n", []string{""}, false, "\n"},
		{"terminated", "a\nb\n", []string{"a", "b"}, false, "a\nb\n"},
		{"unterminated last line", "a\nb", []string{"a", "b"}, false, "a\nb\n"},
		{"trailing blank line", "a\n\n", []string{"a", ""}, false, "a\n\n"},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}, true, "a\r\nb\r\n"},
		{"mixed endings follow the first line", "a\r\nb\nc", []string{"a", "b", "c"}, true, "a\r\nb\r\nc\r\n"},
		{"lf first", "a\nb\r\n", []string{"a", "b"}, false, "a\nb\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := ParseDocument("x.md", []byte(tc.input))
			assert.Equal(t, tc.lines, doc.Lines)
			assert.Equal(t, tc.crlf, doc.CRLF)
			assert.Equal(t, tc.out, string(doc.Bytes()))
			assert.Equal(t, tc.input, string(doc.Raw()))
		})
	}
}

func TestReadDocument_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.md")

	_, err := ReadDocument(path)
	require.Error(t, err)

	var ioErr *DocumentIOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, path, ioErr.Path)
	assert.Equal(t, "read", ioErr.Op)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDocument_WithLinesKeepsTerminator(t *testing.T) {
	doc := ParseDocument("x.md", []byte("a\r\n"))
	out := doc.WithLines([]string{"a", "b"})
	assert.Equal(t, "a\r\nb\r\n", string(out.Bytes()))
	assert.Nil(t, out.Raw())
}

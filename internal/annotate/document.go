package annotate

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// DocumentIOError reports a document that could not be read or written.
// It is fatal for that document only.
type DocumentIOError struct {
	Path string
	Op   string // "read" or "write"
	Err  error
}

func (e *DocumentIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DocumentIOError) Unwrap() error {
	return e.Err
}

// Document is a markdown file split into lines.
//
// Lines carry no terminators. CRLF records that the first line ended in
// "\r\n"; Bytes uses that terminator for every line, and always terminates
// the last line.
type Document struct {
	Path  string
	Lines []string
	CRLF  bool

	raw []byte
}

// ReadDocument reads and splits the file at path.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DocumentIOError{Path: path, Op: "read", Err: err}
	}
	return ParseDocument(path, data), nil
}

// ParseDocument splits data into a Document.
func ParseDocument(path string, data []byte) *Document {
	doc := &Document{Path: path, raw: data}
	if len(data) == 0 {
		return doc
	}

	if i := bytes.IndexByte(data, '\n'); i > 0 && data[i-1] == '\r' {
		doc.CRLF = true
	}

	text := strings.TrimSuffix(string(data), "\n")
	for _, line := range strings.Split(text, "\n") {
		doc.Lines = append(doc.Lines, strings.TrimSuffix(line, "\r"))
	}
	return doc
}

// Raw returns the bytes the document was parsed from.
func (d *Document) Raw() []byte {
	return d.raw
}

// Bytes joins the lines with the document's terminator.
func (d *Document) Bytes() []byte {
	eol := "\n"
	if d.CRLF {
		eol = "\r\n"
	}
	var buf bytes.Buffer
	for _, line := range d.Lines {
		buf.WriteString(line)
		buf.WriteString(eol)
	}
	return buf.Bytes()
}

// WithLines returns a copy of d holding lines, keeping the terminator
// style. The copy has no raw bytes of its own.
func (d *Document) WithLines(lines []string) *Document {
	return &Document{Path: d.Path, Lines: lines, CRLF: d.CRLF}
}

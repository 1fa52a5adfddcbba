package sparql

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ParseError is a syntax error in a query.
//
// Line and Column are 1-based; Column counts runes. Source is the
// offending line of the query.
type ParseError struct {
	Line   int
	Column int
	Msg    string
	Source string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// Detail returns the error followed by the offending line and a caret
// under the error position.
func (e *ParseError) Detail() string {
	var caret strings.Builder
	i := 0
	for _, r := range e.Source {
		if i >= e.Column-1 {
			break
		}
		if r == '\t' {
			caret.WriteByte('\t')
		} else {
			caret.WriteByte(' ')
		}
		i++
	}
	caret.WriteByte('^')
	return e.Error() + "\n" + e.Source + "\n" + caret.String()
}

// UnsupportedError reports valid SPARQL that uses a feature outside the
// supported subset.
type UnsupportedError struct {
	Line    int
	Column  int
	Feature string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("line %d, column %d: unsupported feature: %s", e.Line, e.Column, e.Feature)
}

func newParseError(input string, offset int, format string, args ...any) *ParseError {
	line, col, src := locate(input, offset)
	return &ParseError{Line: line, Column: col, Msg: fmt.Sprintf(format, args...), Source: src}
}

func newUnsupportedError(input string, offset int, feature string) *UnsupportedError {
	line, col, _ := locate(input, offset)
	return &UnsupportedError{Line: line, Column: col, Feature: feature}
}

// locate maps a byte offset to a line, a rune column and the line text.
func locate(input string, offset int) (line, col int, src string) {
	if offset > len(input) {
		offset = len(input)
	}
	lineStart := strings.LastIndexByte(input[:offset], '\n') + 1
	lineEnd := strings.IndexByte(input[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(input)
	} else {
		lineEnd += offset
	}
	line = strings.Count(input[:offset], "\n") + 1
	col = utf8.RuneCountInString(input[lineStart:offset]) + 1
	src = strings.TrimRight(input[lineStart:lineEnd], "\r")
	return line, col, src
}

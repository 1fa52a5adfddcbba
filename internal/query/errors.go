package query

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes query failures. The kind is shown to readers of
// the annotated document, inside the rendered error block.
type ErrorKind string

const (
	// KindParse indicates the query text is not valid SPARQL.
	KindParse ErrorKind = "QueryParseException"

	// KindUnsupported indicates valid SPARQL outside the supported subset.
	KindUnsupported ErrorKind = "QueryUnsupportedException"

	// KindExec indicates the query failed while running against the graph.
	KindExec ErrorKind = "QueryExecException"
)

// Error is a query failure. Execute returns only *Error, and rows
// iteration reports *Error for failures that surface mid-result.
type Error struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Message is a human-readable description. It may span several lines.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// AsError converts err into a *Error. Errors that are not already query
// errors become KindExec.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var qe *Error
	if errors.As(err, &qe) {
		return qe
	}
	return &Error{Kind: KindExec, Message: err.Error(), Err: err}
}

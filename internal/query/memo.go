package query

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Memo caches the results of an executor for the lifetime of one run.
//
// The graph does not change during a run, so repeated query text (the
// same block in several documents, or a document processed twice) yields
// the stored rows. Errors are cached too. Memo is not safe for concurrent
// use.
type Memo struct {
	next    Executor
	entries map[string]memoEntry
}

type memoEntry struct {
	columns []string
	rows    []Row
	rowErr  error
	err     error
}

// NewMemo wraps next.
func NewMemo(next Executor) *Memo {
	return &Memo{next: next, entries: make(map[string]memoEntry)}
}

// Execute returns the cached result for text, running next on a miss.
// The returned rows are materialized and may be ranged over repeatedly.
func (m *Memo) Execute(ctx context.Context, text string) (*Result, error) {
	key := memoKey(text)
	if e, ok := m.entries[key]; ok {
		return e.result()
	}

	res, err := m.next.Execute(ctx, text)
	var e memoEntry
	if err != nil {
		e.err = err
	} else {
		e.columns = res.Columns
		e.rows, e.rowErr = Collect(res.Rows)
	}

	// A cancelled run says nothing about the query itself.
	if ctx.Err() == nil {
		m.entries[key] = e
	}
	return e.result()
}

// Len returns the number of cached queries.
func (m *Memo) Len() int {
	return len(m.entries)
}

func (e memoEntry) result() (*Result, error) {
	if e.err != nil {
		return nil, e.err
	}
	return NewResult(e.columns, e.rows, e.rowErr), nil
}

// memoKey identifies query text regardless of surrounding whitespace and
// Unicode normalization form.
func memoKey(text string) string {
	sum := sha256.Sum256([]byte(norm.NFC.String(strings.TrimSpace(text))))
	return hex.EncodeToString(sum[:])
}

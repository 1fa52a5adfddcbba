package query

import (
	"iter"

	"github.com/roach88/sparqlmd/internal/rdf"
)

// Row is one solution, aligned with Result.Columns. A nil entry is an
// absent binding.
type Row []rdf.Term

// Result is the outcome of a successful Execute.
//
// Rows may be lazy: a Result returned by Engine runs its SQL when the range
// starts and releases the cursor when it ends. A lazy Result can be ranged
// over once, and it must be drained (or the range broken) before the next
// query runs against the same store.
type Result struct {
	Columns []string
	Rows    iter.Seq2[Row, error]
}

// NewResult returns a materialized result that can be ranged over any
// number of times. A non-nil err is yielded after rows, as if the failure
// happened mid-iteration.
func NewResult(columns []string, rows []Row, err error) *Result {
	return &Result{
		Columns: columns,
		Rows: func(yield func(Row, error) bool) {
			for _, r := range rows {
				if !yield(r, nil) {
					return
				}
			}
			if err != nil {
				yield(nil, err)
			}
		},
	}
}

// Collect drains rows. It returns the rows read before the first error,
// together with that error.
func Collect(rows iter.Seq2[Row, error]) ([]Row, error) {
	var out []Row
	for r, err := range rows {
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

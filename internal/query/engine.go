package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/sparqlmd/internal/rdf"
	"github.com/roach88/sparqlmd/internal/sparql"
	"github.com/roach88/sparqlmd/internal/sparqlsql"
)

// Executor runs SPARQL query text against a graph.
//
// The returned error is always a *Error.
type Executor interface {
	Execute(ctx context.Context, text string) (*Result, error)
}

// Graph is the store a query runs against. *graph.Store implements it.
type Graph interface {
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Term(id int64) (rdf.Term, bool)
	TermID(t rdf.Term) (int64, bool)
	Prefixes() rdf.PrefixTable
}

// Engine executes queries by compiling them to SQL over a Graph.
//
// Prefixes declared in the graph files are visible to every query unless
// the query redeclares them.
type Engine struct {
	graph  Graph
	logger *slog.Logger
}

// NewEngine returns an engine over g. A nil logger discards diagnostics.
func NewEngine(g Graph, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{graph: g, logger: logger}
}

// Execute parses and compiles text. The SQL runs when the rows are ranged.
//
// Text is normalized to Unicode NFC first, matching the form the graph
// stores its terms in.
func (e *Engine) Execute(ctx context.Context, text string) (*Result, error) {
	q, err := sparql.Parse(norm.NFC.String(text), sparql.Options{Prefixes: e.graph.Prefixes().Prefixes()})
	if err != nil {
		return nil, classifyParse(err)
	}

	plan, err := sparqlsql.Compile(q, e.graph)
	if err != nil {
		var ue *sparqlsql.UnsupportedError
		if errors.As(err, &ue) {
			return nil, &Error{Kind: KindUnsupported, Message: ue.Error(), Err: err}
		}
		return nil, &Error{Kind: KindExec, Message: err.Error(), Err: err}
	}

	return &Result{
		Columns: plan.Columns,
		Rows:    e.rows(ctx, plan),
	}, nil
}

func classifyParse(err error) *Error {
	var pe *sparql.ParseError
	if errors.As(err, &pe) {
		return &Error{Kind: KindParse, Message: pe.Detail(), Err: err}
	}
	var ue *sparql.UnsupportedError
	if errors.As(err, &ue) {
		return &Error{Kind: KindUnsupported, Message: ue.Error(), Err: err}
	}
	return &Error{Kind: KindParse, Message: err.Error(), Err: err}
}

func (e *Engine) rows(ctx context.Context, plan *sparqlsql.Plan) func(yield func(Row, error) bool) {
	return func(yield func(Row, error) bool) {
		start := time.Now()
		sqlRows, err := e.graph.Query(ctx, plan.SQL, plan.Args...)
		if err != nil {
			yield(nil, execError(err))
			return
		}
		defer sqlRows.Close()

		ids := make([]sql.NullInt64, plan.Width())
		dest := make([]any, len(ids))
		for i := range ids {
			dest[i] = &ids[i]
		}

		n := 0
		for sqlRows.Next() {
			if err := sqlRows.Scan(dest...); err != nil {
				yield(nil, execError(err))
				return
			}
			row, err := e.decode(ids[:len(plan.Columns)])
			if err != nil {
				yield(nil, execError(err))
				return
			}
			n++
			if !yield(row, nil) {
				return
			}
		}
		if err := sqlRows.Err(); err != nil {
			yield(nil, execError(err))
			return
		}
		e.logger.Debug("query executed", "rows", n, "duration", time.Since(start))
	}
}

func (e *Engine) decode(ids []sql.NullInt64) (Row, error) {
	row := make(Row, len(ids))
	for i, id := range ids {
		if !id.Valid {
			continue
		}
		t, ok := e.graph.Term(id.Int64)
		if !ok {
			return nil, fmt.Errorf("unknown term id %d", id.Int64)
		}
		row[i] = t
	}
	return row, nil
}

func execError(err error) *Error {
	return &Error{Kind: KindExec, Message: err.Error(), Err: err}
}

package annotate

import (
	"context"
	"strings"

	"github.com/roach88/sparqlmd/internal/query"
	"github.com/roach88/sparqlmd/internal/rdf"
)

// fakeExecutor answers queries from a fixed table keyed by trimmed text.
// Unknown queries fail with a parse error.
type fakeExecutor struct {
	results map[string]*query.Result
	queries []string
}

func (f *fakeExecutor) Execute(_ context.Context, text string) (*query.Result, error) {
	f.queries = append(f.queries, text)
	if res, ok := f.results[strings.TrimSpace(text)]; ok {
		return res, nil
	}
	return nil, &query.Error{Kind: query.KindParse, Message: "unknown query\n" + text}
}

func newFake() *fakeExecutor {
	return &fakeExecutor{results: map[string]*query.Result{
		"SELECT ?s ?p WHERE { ?s ?p ?o }": query.NewResult([]string{"s", "p"}, []query.Row{
			{rdf.IRI("http://example.org/a"), rdf.IRI("http://example.org/b")},
		}, nil),
		"SELECT ?n WHERE { ?x ex:name ?n }": query.NewResult([]string{"n"}, []query.Row{
			{rdf.NewLiteral("Alice")},
			{rdf.NewLangLiteral("Bob", "en")},
		}, nil),
	}}
}

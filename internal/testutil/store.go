package testutil

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlmd/internal/graph"
	"github.com/roach88/sparqlmd/internal/rdf"
)

// NewStore loads the given Turtle documents into a frozen in-memory store,
// one document per data file, in order. The store is closed with the test.
func NewStore(t *testing.T, turtle ...string) *graph.Store {
	t.Helper()
	ctx := context.Background()

	s, err := graph.Open()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	var prefixes rdf.PrefixTableBuilder
	for i, src := range turtle {
		g, err := rdf.ParseTurtle(src, rdf.ParseOptions{
			Base:       "http://example.org/",
			BlankScope: "f" + strconv.Itoa(i) + ".",
		})
		require.NoError(t, err)
		_, err = s.Add(ctx, g)
		require.NoError(t, err)
		prefixes.DeclareAll(g.Namespaces)
	}
	s.SetPrefixes(prefixes.Build())
	require.NoError(t, s.Freeze(ctx))
	return s
}

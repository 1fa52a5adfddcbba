package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlmd/internal/rdf"
)

// createTestStore opens an empty store that is closed with the test.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func parseTurtle(t *testing.T, src string) *rdf.Graph {
	t.Helper()
	g, err := rdf.ParseTurtle(src, rdf.ParseOptions{BlankScope: "t."})
	require.NoError(t, err)
	return g
}

func TestOpen_StoresAreIsolated(t *testing.T) {
	ctx := context.Background()
	s1 := createTestStore(t)
	s2 := createTestStore(t)

	_, err := s1.Add(ctx, parseTurtle(t, `<http://s> <http://p> <http://o> .`))
	require.NoError(t, err)

	var n int
	require.NoError(t, s2.db.QueryRow("SELECT COUNT(*) FROM triples").Scan(&n))
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, s1.Len())
	assert.Equal(t, 0, s2.Len())
}

func TestAdd_NormalizesToNFC(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	// Decomposed and precomposed "é" are the same term.
	_, err := s.Add(ctx, parseTurtle(t, "<http://s> <http://p> \"cafe\u0301\" .\n"+
		"<http://s> <http://p> \"caf\u00e9\" .\n"+
		"<http://e\u0301> <http://p> <http://o> ."))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	id, ok := s.TermID(rdf.NewLiteral("caf\u00e9"))
	require.True(t, ok)
	_, ok = s.TermID(rdf.NewLiteral("cafe\u0301"))
	assert.True(t, ok)

	term, ok := s.Term(id)
	require.True(t, ok)
	assert.Equal(t, rdf.NewLiteral("caf\u00e9"), term)

	_, ok = s.TermID(rdf.IRI("http://\u00e9"))
	assert.True(t, ok)
}

func TestAdd_DeduplicatesTriplesAndTerms(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	g := parseTurtle(t, `
<http://s> <http://p> "x", "x" .
<http://s> <http://p> "y" .
`)
	added, err := s.Add(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = s.Add(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 2, s.Len())

	var terms int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM terms").Scan(&terms))
	assert.Equal(t, 4, terms) // s, p, "x", "y"
}

func TestTermRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	lit := rdf.NewLangLiteral("bonjour", "fr")
	_, err := s.Add(ctx, &rdf.Graph{Triples: []rdf.Triple{
		{S: rdf.Blank("t.b0"), P: "http://p", O: lit},
	}})
	require.NoError(t, err)

	id, ok := s.TermID(lit)
	require.True(t, ok)
	got, ok := s.Term(id)
	require.True(t, ok)
	assert.Equal(t, lit, got)

	_, ok = s.TermID(rdf.NewLiteral("bonjour"))
	assert.False(t, ok, "plain literal must not match the tagged one")
}

func TestLiteralValues(t *testing.T) {
	testCases := []struct {
		name string
		term rdf.Term
		num  any
		ebv  any
	}{
		{"integer", rdf.NewTypedLiteral("42", rdf.XSDInteger), 42.0, true},
		{"zero", rdf.NewTypedLiteral("0", rdf.XSDDecimal), 0.0, false},
		{"ill-typed number", rdf.NewTypedLiteral("abc", rdf.XSDInteger), nil, false},
		{"boolean", rdf.NewTypedLiteral("true", rdf.XSDBoolean), nil, true},
		{"empty string", rdf.NewLiteral(""), nil, false},
		{"string", rdf.NewLiteral("a"), nil, true},
		{"other datatype", rdf.NewTypedLiteral("2024-01-01", rdf.XSDNamespace+"date"), nil, nil},
		{"iri", rdf.IRI("http://x"), nil, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			num, ebv := literalValues(tc.term)
			if tc.num == nil {
				assert.False(t, num.Valid)
			} else {
				require.True(t, num.Valid)
				assert.Equal(t, tc.num, num.Float64)
			}
			if tc.ebv == nil {
				assert.False(t, ebv.Valid)
			} else {
				require.True(t, ebv.Valid)
				assert.Equal(t, tc.ebv, ebv.Bool)
			}
		})
	}
}

func TestFreeze_RejectsWrites(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.Freeze(ctx))

	_, err := s.Add(ctx, parseTurtle(t, `<http://s> <http://p> <http://o> .`))
	assert.ErrorIs(t, err, ErrFrozen)

	_, err = s.db.Exec("INSERT INTO terms (id, kind, value) VALUES (99, 2, 'x')")
	assert.Error(t, err)
}

func TestRegisteredFunctions(t *testing.T) {
	s := createTestStore(t)

	var match int
	require.NoError(t, s.db.QueryRow("SELECT "+FuncRegex+"('Alice', '^al', 'i')").Scan(&match))
	assert.Equal(t, 1, match)
	require.NoError(t, s.db.QueryRow("SELECT "+FuncRegex+"('Alice', '^al', '')").Scan(&match))
	assert.Equal(t, 0, match)

	var lower string
	require.NoError(t, s.db.QueryRow("SELECT "+FuncLower+"('ÉCOLE')").Scan(&lower))
	assert.Equal(t, "école", lower)

	_, err := regexMatch("a", "(", "")
	assert.Error(t, err)
}

func TestCompileRegex_Flags(t *testing.T) {
	re, err := compileRegex("a.b", "q")
	require.NoError(t, err)
	assert.True(t, re.MatchString("xa.by"))
	assert.False(t, re.MatchString("axb"))

	_, err = compileRegex("a", "x")
	assert.Error(t, err)
}

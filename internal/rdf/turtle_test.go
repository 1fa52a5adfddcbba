package rdf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTurtle_PrefixesAndAbbreviations(t *testing.T) {
	input := `
@prefix ex: <http://example.org/> .
PREFIX foaf: <http://xmlns.com/foaf/0.1/>

ex:alice a foaf:Person ;
    foaf:name "Alice" , "Alicia"@ES ;
    foaf:age 42 .
`
	g, err := ParseTurtle(input, ParseOptions{})
	require.NoError(t, err)

	require.Len(t, g.Triples, 4)
	alice := IRI("http://example.org/alice")
	assert.Equal(t, Triple{S: alice, P: RDFType, O: IRI("http://xmlns.com/foaf/0.1/Person")}, g.Triples[0])
	assert.Equal(t, NewLiteral("Alice"), g.Triples[1].O)
	assert.Equal(t, NewLangLiteral("Alicia", "es"), g.Triples[2].O)
	assert.Equal(t, NewTypedLiteral("42", XSDInteger), g.Triples[3].O)

	assert.Equal(t, []Namespace{
		{Prefix: "ex", IRI: "http://example.org/"},
		{Prefix: "foaf", IRI: "http://xmlns.com/foaf/0.1/"},
	}, g.Namespaces)
}

func TestParseTurtle_NTriples(t *testing.T) {
	input := `<http://example.org/s> <http://example.org/p> "line\nbreak" .
<http://example.org/s> <http://example.org/q> _:b1 .
_:b1 <http://example.org/r> "3.5"^^<http://www.w3.org/2001/XMLSchema#decimal> .
`
	g, err := ParseTurtle(input, ParseOptions{BlankScope: "f1:"})
	require.NoError(t, err)
	require.Len(t, g.Triples, 3)

	assert.Equal(t, NewLiteral("line\nbreak"), g.Triples[0].O)
	assert.Equal(t, Blank("f1:b1"), g.Triples[1].O)
	assert.Equal(t, Blank("f1:b1"), g.Triples[2].S)
	assert.Equal(t, NewTypedLiteral("3.5", XSDDecimal), g.Triples[2].O)
}

func TestParseTurtle_Literals(t *testing.T) {
	testCases := []struct {
		name   string
		object string
		want   Term
	}{
		{"integer", `-7`, NewTypedLiteral("-7", XSDInteger)},
		{"decimal", `3.14`, NewTypedLiteral("3.14", XSDDecimal)},
		{"double", `1.5e3`, NewTypedLiteral("1.5e3", XSDDouble)},
		{"boolean", `true`, NewTypedLiteral("true", XSDBoolean)},
		{"single quotes", `'it'`, NewLiteral("it")},
		{"long string", `"""multi
line"""`, NewLiteral("multi\nline")},
		{"long string trailing quote", `"""say "hi\""""`, NewLiteral(`say "hi"`)},
		{"unicode escape", `"caf\u00e9"`, NewLiteral("café")},
		{"typed prefixed", `"2024-01-01"^^xsd:date`, NewTypedLiteral("2024-01-01", XSDNamespace+"date")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			input := "@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .\n<http://s> <http://p> " + tc.object + " ."
			g, err := ParseTurtle(input, ParseOptions{})
			require.NoError(t, err)
			require.Len(t, g.Triples, 1)
			assert.Equal(t, tc.want, g.Triples[0].O)
		})
	}
}

func TestParseTurtle_IntegerBeforeStatementEnd(t *testing.T) {
	g, err := ParseTurtle(`<http://s> <http://p> 5.`, ParseOptions{})
	require.NoError(t, err)
	require.Len(t, g.Triples, 1)
	assert.Equal(t, NewTypedLiteral("5", XSDInteger), g.Triples[0].O)
}

func TestParseTurtle_BlankNodePropertyListAndCollection(t *testing.T) {
	input := `@prefix ex: <http://example.org/> .
ex:s ex:knows [ ex:name "Bob" ] ;
     ex:list ( 1 2 ) .
`
	g, err := ParseTurtle(input, ParseOptions{})
	require.NoError(t, err)

	// knows, name, list head, first/rest x2
	require.Len(t, g.Triples, 7)
	// The nested description is emitted before the triple that refers to it.
	bob := g.Triples[0].S
	assert.Equal(t, bob, g.Triples[1].O)
	assert.IsType(t, Blank(""), bob)
	assert.Equal(t, IRI("http://example.org/name"), g.Triples[0].P)

	var firsts []Term
	for _, tr := range g.Triples {
		if tr.P == RDFFirst {
			firsts = append(firsts, tr.O)
		}
	}
	assert.Equal(t, []Term{NewTypedLiteral("1", XSDInteger), NewTypedLiteral("2", XSDInteger)}, firsts)
}

func TestParseTurtle_EmptyCollectionIsNil(t *testing.T) {
	g, err := ParseTurtle(`<http://s> <http://p> () .`, ParseOptions{})
	require.NoError(t, err)
	require.Len(t, g.Triples, 1)
	assert.Equal(t, IRI(RDFNil), g.Triples[0].O)
}

func TestParseTurtle_BaseResolution(t *testing.T) {
	input := `@base <http://example.org/dir/> .
<a> <#p> <../b> .`
	g, err := ParseTurtle(input, ParseOptions{})
	require.NoError(t, err)
	require.Len(t, g.Triples, 1)
	assert.Equal(t, IRI("http://example.org/dir/a"), g.Triples[0].S)
	assert.Equal(t, IRI("http://example.org/dir/#p"), g.Triples[0].P)
	assert.Equal(t, IRI("http://example.org/b"), g.Triples[0].O)
}

func TestParseTurtle_LocalNameTrailingDot(t *testing.T) {
	g, err := ParseTurtle("@prefix : <http://e/> .\n:a :b :c.", ParseOptions{})
	require.NoError(t, err)
	require.Len(t, g.Triples, 1)
	assert.Equal(t, IRI("http://e/c"), g.Triples[0].O)
}

func TestParseTurtle_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		line  int
	}{
		{"undefined prefix", "ex:a ex:b ex:c .", 1},
		{"missing dot", "<http://s> <http://p> <http://o>\n", 2},
		{"unterminated IRI", "<http://s", 1},
		{"unterminated string", "<http://s> <http://p> \"abc", 1},
		{"newline in short string", "<http://s> <http://p>\n\"a\nb\" .", 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTurtle(tc.input, ParseOptions{})
			require.Error(t, err)

			var se *SyntaxError
			require.True(t, errors.As(err, &se), "expected *SyntaxError, got %T", err)
			assert.Equal(t, tc.line, se.Line)
			assert.Positive(t, se.Column)
		})
	}
}

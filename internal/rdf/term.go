package rdf

import (
	"strconv"
	"strings"
)

// Term is a sealed interface over RDF terms.
// Only IRI, Blank and Literal implement it.
type Term interface {
	rdfTerm() // Sealed - only these types implement it

	// String returns the N-Triples form of the term.
	String() string
}

// TermKind identifies the kind of a term.
//
// The numeric values follow SPARQL ORDER BY precedence for bound terms
// (blank nodes, then IRIs, then literals), so stores can sort on them directly.
type TermKind int

const (
	KindBlank   TermKind = 1
	KindIRI     TermKind = 2
	KindLiteral TermKind = 3
)

// IRI is an absolute resource identifier.
type IRI string

func (IRI) rdfTerm() {}

func (i IRI) String() string {
	return "<" + string(i) + ">"
}

// Blank is a blank node identified by its (document scoped) label.
type Blank string

func (Blank) rdfTerm() {}

func (b Blank) String() string {
	return "_:" + string(b)
}

// Literal is an RDF literal.
//
// Datatype is always set: plain literals carry xsd:string and language
// tagged literals carry rdf:langString. Use NewLiteral, NewLangLiteral and
// NewTypedLiteral so that two equal literals are also equal as Go values.
type Literal struct {
	Value    string
	Datatype string
	Lang     string
}

func (Literal) rdfTerm() {}

func (l Literal) String() string {
	quoted := strconv.Quote(l.Value)
	switch {
	case l.Lang != "":
		return quoted + "@" + l.Lang
	case l.Datatype == "" || l.Datatype == XSDString:
		return quoted
	default:
		return quoted + "^^<" + l.Datatype + ">"
	}
}

// NewLiteral creates a plain xsd:string literal.
func NewLiteral(value string) Literal {
	return Literal{Value: value, Datatype: XSDString}
}

// NewLangLiteral creates a language tagged literal. Tags are lowercased.
func NewLangLiteral(value, lang string) Literal {
	return Literal{Value: value, Datatype: RDFLangString, Lang: strings.ToLower(lang)}
}

// NewTypedLiteral creates a literal with an explicit datatype.
// An empty datatype means xsd:string.
func NewTypedLiteral(value, datatype string) Literal {
	if datatype == "" {
		datatype = XSDString
	}
	return Literal{Value: value, Datatype: datatype}
}

// IsNumeric reports whether the literal has one of the XSD numeric datatypes.
func (l Literal) IsNumeric() bool {
	return IsNumericDatatype(l.Datatype)
}

// Kind returns the kind of t.
func Kind(t Term) TermKind {
	switch t.(type) {
	case IRI:
		return KindIRI
	case Blank:
		return KindBlank
	default:
		return KindLiteral
	}
}

// Triple is a single subject-predicate-object statement.
type Triple struct {
	S Term
	P IRI
	O Term
}

// Graph is the parsed content of one data file.
type Graph struct {
	Triples []Triple

	// Namespaces maps declared prefix names to namespace IRIs, in the
	// order they were declared (later declarations of the same prefix win).
	Namespaces []Namespace
}

// Namespace is a single prefix declaration.
type Namespace struct {
	Prefix string
	IRI    string
}

func (g *Graph) add(s Term, p IRI, o Term) {
	g.Triples = append(g.Triples, Triple{S: s, P: p, O: o})
}

func (g *Graph) declare(prefix, iri string) {
	g.Namespaces = append(g.Namespaces, Namespace{Prefix: prefix, IRI: iri})
}

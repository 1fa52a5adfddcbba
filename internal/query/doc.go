// Package query is the executor adapter between annotated documents and
// the graph: it turns SPARQL text into a Result of binding rows or a
// typed *Error that documents render inline.
package query

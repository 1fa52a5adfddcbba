// Package sparqlsql compiles parsed SPARQL SELECT queries to SQLite SQL
// over the graph store schema.
//
// Every variable is bound to an expression yielding a term id. Triple
// patterns become inner joins on the triples table, OPTIONAL groups become
// left joins on a subquery, and FILTER expressions are translated to SQL
// that looks term properties up in the terms dictionary.
//
// Unbound values and SPARQL expression errors both surface as SQL NULL, so
// a filter that would raise an error rejects the row.
package sparqlsql

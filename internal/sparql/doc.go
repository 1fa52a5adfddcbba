// Package sparql parses the supported subset of SPARQL 1.1 SELECT queries
// into a small algebra.
//
// Supported:
//   - PREFIX and BASE declarations
//   - SELECT [DISTINCT | REDUCED] with variables or *
//   - triple patterns with ';', ',', 'a', blank nodes and [ ... ]
//   - OPTIONAL and FILTER
//   - ORDER BY, LIMIT and OFFSET
//
// Anything else that is valid SPARQL (CONSTRUCT, UNION, property paths,
// aggregates, ...) is rejected with an *UnsupportedError rather than a
// *ParseError, so callers can tell the two apart.
package sparql

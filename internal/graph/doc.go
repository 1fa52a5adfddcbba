// Package graph loads RDF data files into a SQLite-backed triple store.
//
// The store is built once per run and frozen before the first query:
//   - terms: dictionary of IRIs, blank nodes and literals (kind, lexical
//     value, datatype, language, numeric value, effective boolean value)
//   - triples: (s, p, o) term ids with an insertion sequence number
//
// # Determinism
//
// Data files are loaded in lexical path order, so triple sequence numbers
// and the merged prefix table are identical across runs over the same
// directory. Compiled queries order by these sequence numbers last.
//
// # Database Configuration
//
//   - private named in-memory database (cache=shared, one connection)
//   - foreign_keys=ON
//   - query_only=ON once frozen
//   - sparql_regex, sparql_lcase, sparql_ucase registered per connection
package graph

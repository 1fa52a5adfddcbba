// Package harness runs conformance scenarios for the annotation pipeline.
//
// A scenario describes a small knowledge graph, a markdown document and
// the mode to annotate it in. The harness loads the graph from a fresh
// temporary directory, annotates the document with the same components the
// CLI uses, evaluates the scenario's assertions against the output, and
// compares the output to a golden file.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: people_table
//	description: "Names and ages of every person"
//	data:
//	  people.ttl: |
//	    @prefix ex: <http://example.org/> .
//	    ex:alice ex:name "Alice" .
//	document: |
//	  ```sparql
//	  SELECT ?n WHERE { ?p ex:name ?n }
//	  ```
//	mode: render
//	assertions:
//	  - type: contains
//	    text: "| Alice |"
//	  - type: idempotent
//
// Data files are written under their given names, so the extension
// selects the syntax. Relative IRIs in data files resolve against the
// temporary directory and are therefore not reproducible; scenarios should
// use absolute IRIs.
//
// # Assertion Types
//
//   - contains, not_contains: the output does (not) contain text
//   - regions: the output has exactly count result regions
//   - error_kind: the output contains an error block of the given kind
//   - idempotent: annotating the output again changes nothing
//   - clear_roundtrip: clearing the output equals clearing the input
//
// # Golden Files
//
// The golden file of a scenario is golden/<name>.golden next to the
// scenario file. In tests, RunWithGolden compares against
// testdata/golden and is regenerated with:
//
//	go test ./internal/harness -update
package harness

// Package annotate rewrites markdown documents so that every ```sparql
// block is followed by the rendered result of its query.
//
// A result region is the span between ResultOpen and ResultClose. It is
// owned by the engine: every pass deletes it and, in ModeRender,
// regenerates it right after its query block:
//
//	```sparql
//	SELECT ?s ?p WHERE { ?s ?p ?o }
//	```
//
//	<!-- start of sparql result -->
//
//	| s | p |
//	| ------------- | ------------- |
//	| ex:a | ex:b |
//
//	<!-- end of sparql result -->
//
// Everything else in the document is copied through unchanged.
//
// A query block without a close marker runs to the end of the document.
// Its lines are kept as they are and no result is rendered for it.
package annotate

package render

import (
	"sort"
	"strings"

	"github.com/roach88/sparqlmd/internal/rdf"
)

// Compactor shortens IRIs to prefix:local form.
//
// It is built once per graph and shared read-only by every render. When
// several namespaces match an IRI the longest one wins; ties cannot occur
// because namespaces are unique in the table.
type Compactor struct {
	entries []rdf.PrefixEntry
}

// NewCompactor builds a compactor from the namespace → prefix entries of t.
func NewCompactor(t rdf.PrefixTable) *Compactor {
	entries := t.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if len(a.Namespace) != len(b.Namespace) {
			return len(a.Namespace) > len(b.Namespace)
		}
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		return a.Prefix < b.Prefix
	})
	return &Compactor{entries: entries}
}

// Compact replaces the leading namespace of iri with its prefix. IRIs
// outside every namespace are returned unchanged. A nil Compactor
// compacts nothing.
func (c *Compactor) Compact(iri string) string {
	if c == nil {
		return iri
	}
	for _, e := range c.entries {
		if strings.HasPrefix(iri, e.Namespace) {
			return e.Prefix + ":" + iri[len(e.Namespace):]
		}
	}
	return iri
}

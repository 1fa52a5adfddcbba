package rdf

import "sort"

// PrefixTable is an immutable namespace table built once per graph.
//
// It answers both directions: prefix name → namespace (for expanding
// prefixed names in queries) and namespace → prefix (for compacting
// IRIs when rendering). The zero value is an empty table.
type PrefixTable struct {
	byPrefix    map[string]string
	byNamespace map[string]string
}

// PrefixEntry is one namespace → prefix mapping.
type PrefixEntry struct {
	Prefix    string
	Namespace string
}

// Namespace returns the namespace bound to prefix.
func (t PrefixTable) Namespace(prefix string) (string, bool) {
	ns, ok := t.byPrefix[prefix]
	return ns, ok
}

// Prefix returns the prefix chosen for namespace.
func (t PrefixTable) Prefix(namespace string) (string, bool) {
	p, ok := t.byNamespace[namespace]
	return p, ok
}

// Len returns the number of namespace → prefix entries.
func (t PrefixTable) Len() int {
	return len(t.byNamespace)
}

// Entries returns the namespace → prefix entries sorted by namespace.
func (t PrefixTable) Entries() []PrefixEntry {
	entries := make([]PrefixEntry, 0, len(t.byNamespace))
	for ns, p := range t.byNamespace {
		entries = append(entries, PrefixEntry{Prefix: p, Namespace: ns})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Namespace < entries[j].Namespace
	})
	return entries
}

// Prefixes returns a copy of the prefix → namespace map.
func (t PrefixTable) Prefixes() map[string]string {
	out := make(map[string]string, len(t.byPrefix))
	for p, ns := range t.byPrefix {
		out[p] = ns
	}
	return out
}

// PrefixTableBuilder accumulates declarations with last-wins semantics.
//
// Redeclaring a prefix replaces its namespace. When several prefixes end
// up bound to one namespace, the most recently declared prefix is the one
// used for compaction.
type PrefixTableBuilder struct {
	seq   int
	decls map[string]prefixDecl
}

type prefixDecl struct {
	namespace string
	seq       int
}

// Declare binds prefix to namespace.
func (b *PrefixTableBuilder) Declare(prefix, namespace string) {
	if b.decls == nil {
		b.decls = make(map[string]prefixDecl)
	}
	b.seq++
	b.decls[prefix] = prefixDecl{namespace: namespace, seq: b.seq}
}

// DeclareAll declares every namespace of g in order.
func (b *PrefixTableBuilder) DeclareAll(namespaces []Namespace) {
	for _, ns := range namespaces {
		b.Declare(ns.Prefix, ns.IRI)
	}
}

// Build returns the immutable table. The builder can keep being used.
func (b *PrefixTableBuilder) Build() PrefixTable {
	t := PrefixTable{
		byPrefix:    make(map[string]string, len(b.decls)),
		byNamespace: make(map[string]string, len(b.decls)),
	}
	latest := make(map[string]int, len(b.decls))
	for prefix, d := range b.decls {
		t.byPrefix[prefix] = d.namespace
		if d.namespace == "" {
			continue
		}
		if seq, ok := latest[d.namespace]; ok && seq > d.seq {
			continue
		}
		latest[d.namespace] = d.seq
		t.byNamespace[d.namespace] = prefix
	}
	return t
}

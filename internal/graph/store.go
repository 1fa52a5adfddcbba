package graph

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/sparqlmd/internal/rdf"
)

//go:embed schema.sql
var schemaSQL string

// ErrFrozen is returned by Add once the store has been frozen.
var ErrFrozen = errors.New("graph store is read-only")

// Store is a SQLite-backed triple store.
//
// Each Store owns a private in-memory database. Terms are interned into a
// dictionary table and mirrored in memory so that query results can be
// decoded without a second round trip while a cursor holds the single
// connection.
//
// A Store is filled with Add, then frozen. It is not safe to call Add
// concurrently with queries.
type Store struct {
	db     *sql.DB
	frozen bool

	ids    map[termKey]int64
	terms  map[int64]rdf.Term
	nextID int64
	count  int

	prefixes rdf.PrefixTable
}

type termKey struct {
	kind     rdf.TermKind
	value    string
	datatype string
	lang     string
}

func keyOf(t rdf.Term) termKey {
	switch v := t.(type) {
	case rdf.IRI:
		return termKey{kind: rdf.KindIRI, value: string(v)}
	case rdf.Blank:
		return termKey{kind: rdf.KindBlank, value: string(v)}
	case rdf.Literal:
		return termKey{kind: rdf.KindLiteral, value: v.Value, datatype: v.Datatype, lang: v.Lang}
	default:
		return termKey{}
	}
}

// Open creates an empty store backed by a private in-memory database.
//
// The database is configured with:
//   - a single connection (the database lives as long as that connection)
//   - foreign key enforcement
//   - the SPARQL helper functions registered on every connection
func Open() (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.Must(uuid.NewV7()).String())
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The in-memory database is dropped when its last connection closes,
	// so keep exactly one connection alive for the store's lifetime.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{
		db:     db,
		ids:    make(map[termKey]int64),
		terms:  make(map[int64]rdf.Term),
		nextID: 1,
	}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database. The store cannot be used afterwards.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add inserts every triple of g in a single transaction and returns the
// number of triples that were not already present. IRIs and literal
// values are stored in Unicode NFC.
//
// Either the whole graph is added or, on error, nothing is.
func (s *Store) Add(ctx context.Context, g *rdf.Graph) (int, error) {
	if s.frozen {
		return 0, ErrFrozen
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("add triples: %w", err)
	}
	defer tx.Rollback()

	termStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO terms (id, kind, value, datatype, lang, num, ebv)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("add triples: %w", err)
	}
	defer termStmt.Close()

	tripleStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO triples (s, p, o)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("add triples: %w", err)
	}
	defer tripleStmt.Close()

	staged := make(map[termKey]int64)
	stagedTerms := make(map[int64]rdf.Term)
	next := s.nextID

	intern := func(t rdf.Term) (int64, error) {
		t = normalize(t)
		key := keyOf(t)
		if id, ok := s.ids[key]; ok {
			return id, nil
		}
		if id, ok := staged[key]; ok {
			return id, nil
		}
		id := next
		num, ebv := literalValues(t)
		if _, err := termStmt.ExecContext(ctx, id, int(key.kind), key.value, key.datatype, key.lang, num, ebv); err != nil {
			return 0, fmt.Errorf("insert term %s: %w", t, err)
		}
		next++
		staged[key] = id
		stagedTerms[id] = t
		return id, nil
	}

	added := 0
	for _, tr := range g.Triples {
		sID, err := intern(tr.S)
		if err != nil {
			return 0, fmt.Errorf("add triples: %w", err)
		}
		pID, err := intern(tr.P)
		if err != nil {
			return 0, fmt.Errorf("add triples: %w", err)
		}
		oID, err := intern(tr.O)
		if err != nil {
			return 0, fmt.Errorf("add triples: %w", err)
		}
		res, err := tripleStmt.ExecContext(ctx, sID, pID, oID)
		if err != nil {
			return 0, fmt.Errorf("add triples: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("add triples: %w", err)
		}
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("add triples: commit: %w", err)
	}

	for key, id := range staged {
		s.ids[key] = id
	}
	for id, t := range stagedTerms {
		s.terms[id] = t
	}
	s.nextID = next
	s.count += added
	return added, nil
}

// literalValues computes the num and ebv columns of a term.
func literalValues(t rdf.Term) (sql.NullFloat64, sql.NullBool) {
	var num sql.NullFloat64
	if f, ok := rdf.NumericValue(t); ok {
		num = sql.NullFloat64{Float64: f, Valid: true}
	}
	var ebv sql.NullBool
	if b, ok := rdf.EffectiveBoolean(t); ok {
		ebv = sql.NullBool{Bool: b, Valid: true}
	}
	return num, ebv
}

// Freeze makes the store read-only. Later calls to Add return ErrFrozen
// and the database rejects writes.
func (s *Store) Freeze(ctx context.Context) error {
	if s.frozen {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return fmt.Errorf("freeze store: %w", err)
	}
	s.frozen = true
	return nil
}

// Query runs a read query against the store.
// Callers are responsible for closing the returned rows.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

// Term returns the term stored under id.
func (s *Store) Term(id int64) (rdf.Term, bool) {
	t, ok := s.terms[id]
	return t, ok
}

// TermID returns the dictionary id of t, if t occurs in the store.
func (s *Store) TermID(t rdf.Term) (int64, bool) {
	id, ok := s.ids[keyOf(normalize(t))]
	return id, ok
}

// normalize puts IRIs and literal values in Unicode NFC, the form query
// text is executed in, so that canonically equivalent strings match.
func normalize(t rdf.Term) rdf.Term {
	switch v := t.(type) {
	case rdf.IRI:
		return rdf.IRI(norm.NFC.String(string(v)))
	case rdf.Literal:
		v.Value = norm.NFC.String(v.Value)
		return v
	default:
		return t
	}
}

// Len returns the number of distinct triples.
func (s *Store) Len() int {
	return s.count
}

// Prefixes returns the merged namespace table of the loaded files.
func (s *Store) Prefixes() rdf.PrefixTable {
	return s.prefixes
}

// SetPrefixes replaces the namespace table.
func (s *Store) SetPrefixes(t rdf.PrefixTable) {
	s.prefixes = t
}

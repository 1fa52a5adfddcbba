package sparql

import (
	"strings"

	"github.com/roach88/sparqlmd/internal/rdf"
)

// Query is a parsed SELECT query.
//
// Semantics:
//
//	SELECT [DISTINCT] <Projection> WHERE <Where>
//	ORDER BY <OrderBy> LIMIT <Limit> OFFSET <Offset>
//
// Projection is always explicit: for SELECT * the parser fills it with the
// in-scope variables in order of first appearance.
type Query struct {
	Distinct   bool
	Star       bool
	Projection []Var
	Where      *Group
	OrderBy    []OrderCondition

	// Limit is -1 when the query has no LIMIT.
	Limit  int64
	Offset int64
}

// Var is a query variable, named without its leading '?' or '$'.
//
// Blank nodes in query patterns act as variables that cannot be
// projected; their names start with "_:".
type Var string

// IsBlank reports whether v stands for a blank node of the query.
func (v Var) IsBlank() bool {
	return strings.HasPrefix(string(v), "_:")
}

// Node is a position of a triple pattern.
//
// This is a sealed interface - only Var and TermNode implement it.
type Node interface {
	patternNode()
}

// TermNode is a constant RDF term in a triple pattern.
type TermNode struct {
	Term rdf.Term
}

func (Var) patternNode()      {}
func (TermNode) patternNode() {}

// Pattern is an element of a group graph pattern.
//
// This is a sealed interface - only TriplePattern and Optional implement it.
type Pattern interface {
	groupElement()
}

// TriplePattern matches triples. P is never a blank node.
type TriplePattern struct {
	S, P, O Node
}

// Optional is OPTIONAL { Group }. Filters of Group are evaluated as
// conditions of the left join.
type Optional struct {
	Group *Group
}

func (TriplePattern) groupElement() {}
func (Optional) groupElement()      {}

// Group is a group graph pattern. Patterns are joined left to right;
// Filters apply to the whole group regardless of where they appear.
type Group struct {
	Patterns []Pattern
	Filters  []Expr
}

// Expr is a FILTER or ORDER BY expression.
//
// This is a sealed interface - only the expression types below implement it.
type Expr interface {
	exprNode()
}

// VarExpr references a variable.
type VarExpr struct {
	Var Var
}

// TermExpr is a constant term.
type TermExpr struct {
	Term rdf.Term
}

// UnaryExpr is a prefix operator. Op is "!".
type UnaryExpr struct {
	Op string
	X  Expr
}

// BinaryExpr is an infix operator: "||", "&&", "=", "!=", "<", ">", "<=", ">=".
type BinaryExpr struct {
	Op          string
	Left, Right Expr
}

// CallExpr is a built-in function call. Name is upper case and
// canonical (ISURI is reported as ISIRI).
type CallExpr struct {
	Name string
	Args []Expr
}

func (VarExpr) exprNode()    {}
func (TermExpr) exprNode()   {}
func (UnaryExpr) exprNode()  {}
func (BinaryExpr) exprNode() {}
func (CallExpr) exprNode()   {}

// OrderCondition is one ORDER BY key.
type OrderCondition struct {
	Expr       Expr
	Descending bool
}

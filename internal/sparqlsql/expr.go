package sparqlsql

import (
	"fmt"
	"strings"

	"github.com/roach88/sparqlmd/internal/graph"
	"github.com/roach88/sparqlmd/internal/rdf"
	"github.com/roach88/sparqlmd/internal/sparql"
)

// exprType is the SQL representation of a compiled expression.
type exprType int

const (
	// typeTerm values are term ids. Constants also carry the term itself.
	typeTerm exprType = iota
	// typeString values are the text of a simple literal.
	typeString
	// typeIRI values are the text of an IRI.
	typeIRI
	// typeBool values are 0 or 1.
	typeBool
)

type sqlExpr struct {
	sql  string // empty for constants
	typ  exprType
	term rdf.Term // non-nil for constants
}

func (c *compiler) filter(e sparql.Expr, vars map[sparql.Var]binding) (string, error) {
	x, err := c.expr(e, vars)
	if err != nil {
		return "", err
	}
	return "(" + c.asBool(x) + ")", nil
}

func (c *compiler) expr(e sparql.Expr, vars map[sparql.Var]binding) (sqlExpr, error) {
	switch e := e.(type) {
	case sparql.VarExpr:
		if b, ok := vars[e.Var]; ok {
			return sqlExpr{sql: b.expr, typ: typeTerm}, nil
		}
		return sqlExpr{sql: "NULL", typ: typeTerm}, nil
	case sparql.TermExpr:
		return sqlExpr{typ: typeTerm, term: e.Term}, nil
	case sparql.UnaryExpr:
		x, err := c.expr(e.X, vars)
		if err != nil {
			return sqlExpr{}, err
		}
		return sqlExpr{sql: "(NOT " + c.asBool(x) + ")", typ: typeBool}, nil
	case sparql.BinaryExpr:
		return c.binary(e, vars)
	case sparql.CallExpr:
		return c.call(e, vars)
	default:
		return sqlExpr{}, &UnsupportedError{Feature: fmt.Sprintf("expression %T", e)}
	}
}

func (c *compiler) binary(e sparql.BinaryExpr, vars map[sparql.Var]binding) (sqlExpr, error) {
	l, err := c.expr(e.Left, vars)
	if err != nil {
		return sqlExpr{}, err
	}
	r, err := c.expr(e.Right, vars)
	if err != nil {
		return sqlExpr{}, err
	}

	var out string
	switch e.Op {
	case "||":
		out = fmt.Sprintf("(%s OR %s)", c.asBool(l), c.asBool(r))
	case "&&":
		out = fmt.Sprintf("(%s AND %s)", c.asBool(l), c.asBool(r))
	case "=":
		out = c.equal(l, r)
	case "!=":
		out = "(NOT " + c.equal(l, r) + ")"
	case "<", ">", "<=", ">=":
		out = c.ordering(e.Op, l, r)
	default:
		return sqlExpr{}, &UnsupportedError{Feature: "operator " + e.Op}
	}
	return sqlExpr{sql: out, typ: typeBool}, nil
}

// equal compares by value. Term ids are equal exactly when the terms are,
// except for numbers, which compare by numeric value.
func (c *compiler) equal(l, r sqlExpr) string {
	switch {
	case isNumericConst(l) || isNumericConst(r):
		return fmt.Sprintf("(%s = %s)", c.asNumber(l), c.asNumber(r))
	case l.typ == typeTerm && r.typ == typeTerm:
		return fmt.Sprintf("(%s = %s)", c.idSQL(l), c.idSQL(r))
	case l.typ == typeBool || r.typ == typeBool:
		return fmt.Sprintf("(%s = %s)", c.asBool(l), c.asBool(r))
	case l.typ == typeIRI || r.typ == typeIRI:
		return fmt.Sprintf("(%s = %s)", c.asIRIText(l), c.asIRIText(r))
	default:
		return fmt.Sprintf("(%s = %s)", c.asSimpleText(l), c.asSimpleText(r))
	}
}

// ordering compares numbers numerically and everything else by lexical form.
func (c *compiler) ordering(op string, l, r sqlExpr) string {
	if isNumericConst(l) || isNumericConst(r) {
		return fmt.Sprintf("(%s %s %s)", c.asNumber(l), op, c.asNumber(r))
	}
	if l.typ == typeTerm && r.typ == typeTerm {
		ln, rn := c.asNumber(l), c.asNumber(r)
		return fmt.Sprintf("(CASE WHEN %s IS NOT NULL AND %s IS NOT NULL THEN %s %s %s ELSE %s %s %s END)",
			ln, rn, ln, op, rn, c.asLiteralText(l), op, c.asLiteralText(r))
	}
	return fmt.Sprintf("(%s %s %s)", c.asLiteralText(l), op, c.asLiteralText(r))
}

func (c *compiler) call(e sparql.CallExpr, vars map[sparql.Var]binding) (sqlExpr, error) {
	if e.Name == "BOUND" {
		v, ok := e.Args[0].(sparql.VarExpr)
		if !ok {
			return sqlExpr{}, &UnsupportedError{Feature: "BOUND of a non-variable"}
		}
		b, bound := vars[v.Var]
		if !bound {
			return sqlExpr{sql: "0", typ: typeBool}, nil
		}
		return sqlExpr{sql: "(" + b.expr + " IS NOT NULL)", typ: typeBool}, nil
	}

	args := make([]sqlExpr, len(e.Args))
	for i, a := range e.Args {
		x, err := c.expr(a, vars)
		if err != nil {
			return sqlExpr{}, err
		}
		args[i] = x
	}

	switch e.Name {
	case "ISIRI":
		return c.kindTest(args[0], rdf.KindIRI), nil
	case "ISBLANK":
		return c.kindTest(args[0], rdf.KindBlank), nil
	case "ISLITERAL":
		return c.kindTest(args[0], rdf.KindLiteral), nil
	case "STR":
		return sqlExpr{sql: c.asStr(args[0]), typ: typeString}, nil
	case "LANG":
		return sqlExpr{sql: c.lang(args[0]), typ: typeString}, nil
	case "DATATYPE":
		return sqlExpr{sql: c.datatype(args[0]), typ: typeIRI}, nil
	case "CONTAINS":
		a, b := c.asLiteralText(args[0]), c.asLiteralText(args[1])
		return sqlExpr{sql: fmt.Sprintf("(instr(%s, %s) > 0)", a, b), typ: typeBool}, nil
	case "STRSTARTS":
		a, b := c.asLiteralText(args[0]), c.asLiteralText(args[1])
		return sqlExpr{sql: fmt.Sprintf("(substr(%s, 1, length(%s)) = %s)", a, b, b), typ: typeBool}, nil
	case "STRENDS":
		a, b := c.asLiteralText(args[0]), c.asLiteralText(args[1])
		return sqlExpr{sql: fmt.Sprintf("(length(%s) = 0 OR (length(%s) >= length(%s) AND substr(%s, -length(%s)) = %s))", b, a, b, a, b, b), typ: typeBool}, nil
	case "REGEX":
		text, pattern := c.asLiteralText(args[0]), c.asLiteralText(args[1])
		flags := c.arg("")
		if len(args) == 3 {
			flags = c.asLiteralText(args[2])
		}
		return sqlExpr{
			sql: fmt.Sprintf("(CASE WHEN %s IS NULL OR %s IS NULL THEN NULL ELSE %s(%s, %s, COALESCE(%s, '')) END)",
				text, pattern, graph.FuncRegex, text, pattern, flags),
			typ: typeBool,
		}, nil
	case "LCASE", "UCASE":
		fn := graph.FuncLower
		if e.Name == "UCASE" {
			fn = graph.FuncUpper
		}
		text := c.asLiteralText(args[0])
		return sqlExpr{
			sql: fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE %s(%s) END)", text, fn, text),
			typ: typeString,
		}, nil
	default:
		return sqlExpr{}, &UnsupportedError{Feature: e.Name}
	}
}

func (c *compiler) kindTest(x sqlExpr, kind rdf.TermKind) sqlExpr {
	if x.term != nil {
		return sqlExpr{sql: boolSQL(rdf.Kind(x.term) == kind), typ: typeBool}
	}
	switch x.typ {
	case typeTerm:
		return sqlExpr{sql: fmt.Sprintf("(%s = %d)", termColumn(x.sql, "kind", ""), kind), typ: typeBool}
	case typeIRI:
		return sqlExpr{sql: fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE %s END)", x.sql, boolSQL(kind == rdf.KindIRI)), typ: typeBool}
	default:
		return sqlExpr{sql: fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE %s END)", x.sql, boolSQL(kind == rdf.KindLiteral)), typ: typeBool}
	}
}

// asBool returns the effective boolean value of x as 0, 1 or NULL.
func (c *compiler) asBool(x sqlExpr) string {
	if x.term != nil {
		if v, ok := rdf.EffectiveBoolean(x.term); ok {
			return boolSQL(v)
		}
		return "NULL"
	}
	switch x.typ {
	case typeBool:
		return x.sql
	case typeTerm:
		return termColumn(x.sql, "ebv", "")
	case typeString:
		return fmt.Sprintf("(length(%s) > 0)", x.sql)
	default:
		return "NULL"
	}
}

// asNumber returns the numeric value of x or NULL.
func (c *compiler) asNumber(x sqlExpr) string {
	if x.term != nil {
		if f, ok := rdf.NumericValue(x.term); ok {
			return c.arg(f)
		}
		return "NULL"
	}
	if x.typ == typeTerm {
		return termColumn(x.sql, "num", "")
	}
	return "NULL"
}

// asLiteralText returns the lexical form of a literal or NULL.
func (c *compiler) asLiteralText(x sqlExpr) string {
	if x.term != nil {
		if lit, ok := x.term.(rdf.Literal); ok {
			return c.arg(lit.Value)
		}
		return "NULL"
	}
	switch x.typ {
	case typeTerm:
		return termColumn(x.sql, "value", fmt.Sprintf("kind = %d", rdf.KindLiteral))
	case typeString:
		return x.sql
	default:
		return "NULL"
	}
}

// asSimpleText returns the text of a simple literal or NULL.
func (c *compiler) asSimpleText(x sqlExpr) string {
	if x.term != nil {
		if lit, ok := x.term.(rdf.Literal); ok && lit.Lang == "" && lit.Datatype == rdf.XSDString {
			return c.arg(lit.Value)
		}
		return "NULL"
	}
	switch x.typ {
	case typeTerm:
		return termColumn(x.sql, "value", fmt.Sprintf("kind = %d AND lang = '' AND datatype = %s", rdf.KindLiteral, c.arg(rdf.XSDString)))
	case typeString:
		return x.sql
	default:
		return "NULL"
	}
}

// asIRIText returns the text of an IRI or NULL.
func (c *compiler) asIRIText(x sqlExpr) string {
	if x.term != nil {
		if iri, ok := x.term.(rdf.IRI); ok {
			return c.arg(string(iri))
		}
		return "NULL"
	}
	switch x.typ {
	case typeTerm:
		return termColumn(x.sql, "value", fmt.Sprintf("kind = %d", rdf.KindIRI))
	case typeIRI:
		return x.sql
	default:
		return "NULL"
	}
}

// asStr implements STR: the lexical form of a literal or the text of an IRI.
func (c *compiler) asStr(x sqlExpr) string {
	if x.term != nil {
		switch t := x.term.(type) {
		case rdf.IRI:
			return c.arg(string(t))
		case rdf.Literal:
			return c.arg(t.Value)
		default:
			return "NULL"
		}
	}
	switch x.typ {
	case typeTerm:
		return termColumn(x.sql, "value", fmt.Sprintf("kind <> %d", rdf.KindBlank))
	case typeBool:
		return fmt.Sprintf("(CASE %s WHEN 1 THEN 'true' WHEN 0 THEN 'false' END)", x.sql)
	default:
		return x.sql
	}
}

func (c *compiler) lang(x sqlExpr) string {
	if x.term != nil {
		if lit, ok := x.term.(rdf.Literal); ok {
			return c.arg(lit.Lang)
		}
		return "NULL"
	}
	switch x.typ {
	case typeTerm:
		return termColumn(x.sql, "lang", fmt.Sprintf("kind = %d", rdf.KindLiteral))
	case typeString:
		return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE '' END)", x.sql)
	default:
		return "NULL"
	}
}

func (c *compiler) datatype(x sqlExpr) string {
	if x.term != nil {
		if lit, ok := x.term.(rdf.Literal); ok {
			return c.arg(lit.Datatype)
		}
		return "NULL"
	}
	switch x.typ {
	case typeTerm:
		return termColumn(x.sql, "datatype", fmt.Sprintf("kind = %d", rdf.KindLiteral))
	case typeString:
		return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE %s END)", x.sql, c.arg(rdf.XSDString))
	case typeBool:
		return fmt.Sprintf("(CASE WHEN %s IS NULL THEN NULL ELSE %s END)", x.sql, c.arg(rdf.XSDBoolean))
	default:
		return "NULL"
	}
}

// orderKeys returns the sort keys for one ORDER BY condition. Terms sort by
// kind (blank nodes, IRIs, literals), then numeric value, then lexical form.
// Unbound values sort first.
func (c *compiler) orderKeys(cond sparql.OrderCondition, vars map[sparql.Var]binding) ([]string, error) {
	x, err := c.expr(cond.Expr, vars)
	if err != nil {
		return nil, err
	}

	var keys []string
	switch {
	case x.term != nil:
		// A constant key does not order anything.
		return nil, nil
	case x.typ == typeTerm:
		keys = []string{
			termColumn(x.sql, "kind", ""),
			termColumn(x.sql, "num", ""),
			termColumn(x.sql, "value", ""),
		}
	default:
		keys = []string{x.sql}
	}

	if cond.Descending {
		for i := range keys {
			keys[i] += " DESC"
		}
	}
	return keys, nil
}

// idSQL returns the term id of x. Constants are looked up in the dictionary.
func (c *compiler) idSQL(x sqlExpr) string {
	if x.term != nil {
		return c.arg(c.termID(x.term))
	}
	return x.sql
}

// termColumn selects a dictionary column of the term whose id is idExpr.
func termColumn(idExpr, column, cond string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "(SELECT %s FROM terms WHERE id = %s", column, idExpr)
	if cond != "" {
		sb.WriteString(" AND " + cond)
	}
	sb.WriteString(")")
	return sb.String()
}

func isNumericConst(x sqlExpr) bool {
	if x.term == nil {
		return false
	}
	_, ok := rdf.NumericValue(x.term)
	return ok
}

func boolSQL(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

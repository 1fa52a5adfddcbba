package sparqlsql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/sparqlmd/internal/rdf"
	"github.com/roach88/sparqlmd/internal/sparql"
)

// TermResolver maps constant terms of a query to dictionary ids.
type TermResolver interface {
	TermID(t rdf.Term) (int64, bool)
}

// missingTerm is the id used for constants absent from the dictionary.
// No triple references it, so patterns using it match nothing.
const missingTerm int64 = -1

// Plan is a compiled query.
//
// The SQL selects one column per entry of Columns, each holding a term id
// or NULL for an unbound variable. A query without columns selects a single
// NULL column so that it stays valid SQL; Width reports how many columns
// to scan.
type Plan struct {
	SQL     string
	Args    []any
	Columns []string
}

// Width returns the number of columns the SQL selects.
func (p *Plan) Width() int {
	if len(p.Columns) == 0 {
		return 1
	}
	return len(p.Columns)
}

// UnsupportedError reports a construct the compiler cannot translate.
type UnsupportedError struct {
	Feature string
}

func (e *UnsupportedError) Error() string {
	return "unsupported feature: " + e.Feature
}

// Compile translates q to parameterized SQLite SQL over the graph schema.
//
// MANDATORY: the SQL always orders by the sequence numbers of every matched
// triple after the query's own ORDER BY keys, so identical inputs give
// identical row order.
// MANDATORY: constants are always bound as parameters.
func Compile(q *sparql.Query, terms TermResolver) (*Plan, error) {
	if q == nil || q.Where == nil {
		return nil, fmt.Errorf("cannot compile nil query")
	}
	c := &compiler{terms: terms}
	return c.compileSelect(q)
}

type compiler struct {
	terms TermResolver
	args  []any
	alias int
}

// arg binds v as the next numbered parameter. Numbered parameters keep
// placeholders and arguments aligned regardless of where the fragment ends
// up in the statement.
func (c *compiler) arg(v any) string {
	c.args = append(c.args, v)
	return "?" + strconv.Itoa(len(c.args))
}

func (c *compiler) newAlias(prefix string) string {
	c.alias++
	return prefix + strconv.Itoa(c.alias)
}

func (c *compiler) termID(t rdf.Term) int64 {
	if id, ok := c.terms.TermID(t); ok {
		return id
	}
	return missingTerm
}

// binding is the SQL expression holding a variable's term id.
type binding struct {
	expr     string
	nullable bool
}

// scope is a compiled group graph pattern.
type scope struct {
	from  strings.Builder
	vars  map[sparql.Var]binding
	order []sparql.Var
	seqs  []string
}

func (s *scope) bind(v sparql.Var, b binding) {
	if _, ok := s.vars[v]; !ok {
		s.order = append(s.order, v)
	}
	s.vars[v] = b
}

func (c *compiler) compileSelect(q *sparql.Query) (*Plan, error) {
	s, err := c.compileGroup(q.Where)
	if err != nil {
		return nil, err
	}

	var where []string
	for _, f := range q.Where.Filters {
		cond, err := c.filter(f, s.vars)
		if err != nil {
			return nil, err
		}
		where = append(where, cond)
	}

	columns := make([]string, 0, len(q.Projection))
	var proj []string
	for i, v := range q.Projection {
		columns = append(columns, string(v))
		expr := "NULL"
		if b, ok := s.vars[v]; ok {
			expr = b.expr
		}
		proj = append(proj, fmt.Sprintf("%s AS c%d", expr, i))
	}
	if len(proj) == 0 {
		proj = append(proj, "NULL AS c0")
	}

	var orderKeys []string
	for _, cond := range q.OrderBy {
		keys, err := c.orderKeys(cond, s.vars)
		if err != nil {
			return nil, err
		}
		orderKeys = append(orderKeys, keys...)
	}
	orderKeys = append(orderKeys, s.seqs...)

	var sb strings.Builder
	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	if q.Distinct {
		outer := make([]string, 0, len(proj))
		for i := range proj {
			outer = append(outer, "c"+strconv.Itoa(i))
		}
		fmt.Fprintf(&sb, "SELECT %s FROM (SELECT %s, ROW_NUMBER() OVER (%s) AS rn FROM %s%s) GROUP BY %s ORDER BY MIN(rn)",
			strings.Join(outer, ", "),
			strings.Join(proj, ", "),
			orderClause(orderKeys),
			s.from.String(),
			whereClause,
			strings.Join(outer, ", "))
	} else {
		fmt.Fprintf(&sb, "SELECT %s FROM %s%s", strings.Join(proj, ", "), s.from.String(), whereClause)
		if len(orderKeys) > 0 {
			sb.WriteString(" " + orderClause(orderKeys))
		}
	}
	fmt.Fprintf(&sb, " LIMIT %s OFFSET %s", c.arg(q.Limit), c.arg(q.Offset))

	return &Plan{SQL: sb.String(), Args: c.args, Columns: columns}, nil
}

func orderClause(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	return "ORDER BY " + strings.Join(keys, ", ")
}

// compileGroup joins the patterns of g left to right. Filters of g are not
// applied; the caller places them in WHERE or in a left join condition.
func (c *compiler) compileGroup(g *sparql.Group) (*scope, error) {
	s := &scope{vars: make(map[sparql.Var]binding)}
	s.from.WriteString("(SELECT 1) AS " + c.newAlias("u"))

	for _, p := range g.Patterns {
		switch pat := p.(type) {
		case sparql.TriplePattern:
			c.triple(s, pat)
		case sparql.Optional:
			if err := c.optional(s, pat); err != nil {
				return nil, err
			}
		default:
			return nil, &UnsupportedError{Feature: fmt.Sprintf("pattern %T", p)}
		}
	}
	return s, nil
}

func (c *compiler) triple(s *scope, tp sparql.TriplePattern) {
	alias := c.newAlias("t")
	var conds []string

	positions := []struct {
		node  sparql.Node
		field string
	}{{tp.S, "s"}, {tp.P, "p"}, {tp.O, "o"}}

	for _, pos := range positions {
		col := alias + "." + pos.field
		switch n := pos.node.(type) {
		case sparql.TermNode:
			conds = append(conds, col+" = "+c.arg(c.termID(n.Term)))
		case sparql.Var:
			b, ok := s.vars[n]
			switch {
			case !ok:
				s.bind(n, binding{expr: col})
			case b.nullable:
				conds = append(conds, fmt.Sprintf("(%s IS NULL OR %s = %s)", b.expr, b.expr, col))
				s.bind(n, binding{expr: fmt.Sprintf("COALESCE(%s, %s)", b.expr, col)})
			default:
				conds = append(conds, b.expr+" = "+col)
			}
		}
	}

	fmt.Fprintf(&s.from, " JOIN triples AS %s ON %s", alias, joinConds(conds))
	s.seqs = append(s.seqs, alias+".seq")
}

func (c *compiler) optional(s *scope, opt sparql.Optional) error {
	inner, err := c.compileGroup(opt.Group)
	if err != nil {
		return err
	}
	alias := c.newAlias("o")

	var cols []string
	innerCol := make(map[sparql.Var]string, len(inner.order))
	for i, v := range inner.order {
		name := "v" + strconv.Itoa(i)
		cols = append(cols, inner.vars[v].expr+" AS "+name)
		innerCol[v] = alias + "." + name
	}
	var seqs []string
	for i, seq := range inner.seqs {
		name := "s" + strconv.Itoa(i)
		cols = append(cols, seq+" AS "+name)
		seqs = append(seqs, alias+"."+name)
	}
	if len(cols) == 0 {
		cols = append(cols, "1 AS one")
	}

	merged := make(map[sparql.Var]binding, len(s.vars)+len(inner.vars))
	for v, b := range s.vars {
		merged[v] = b
	}
	var conds []string
	var added []sparql.Var
	for _, v := range inner.order {
		ic := innerCol[v]
		ob, shared := s.vars[v]
		if !shared {
			merged[v] = binding{expr: ic, nullable: true}
			added = append(added, v)
			continue
		}

		var nullChecks []string
		if ob.nullable {
			nullChecks = append(nullChecks, ob.expr+" IS NULL")
		}
		if inner.vars[v].nullable {
			nullChecks = append(nullChecks, ic+" IS NULL")
		}
		eq := ob.expr + " = " + ic
		if len(nullChecks) > 0 {
			eq = "(" + strings.Join(append(nullChecks, eq), " OR ") + ")"
		}
		conds = append(conds, eq)
		if ob.nullable {
			merged[v] = binding{expr: fmt.Sprintf("COALESCE(%s, %s)", ob.expr, ic), nullable: true}
		}
	}

	for _, f := range opt.Group.Filters {
		cond, err := c.filter(f, merged)
		if err != nil {
			return err
		}
		conds = append(conds, cond)
	}

	fmt.Fprintf(&s.from, " LEFT JOIN (SELECT %s FROM %s) AS %s ON %s",
		strings.Join(cols, ", "), inner.from.String(), alias, joinConds(conds))

	for _, v := range added {
		s.order = append(s.order, v)
	}
	s.vars = merged
	s.seqs = append(s.seqs, seqs...)
	return nil
}

func joinConds(conds []string) string {
	if len(conds) == 0 {
		return "1"
	}
	return strings.Join(conds, " AND ")
}

package sparql

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/sparqlmd/internal/rdf"
)

// Options configures Parse.
type Options struct {
	// Prefixes are visible to the query unless it redeclares them.
	Prefixes map[string]string

	// Base resolves relative IRIs when the query has no BASE.
	Base string
}

// builtins lists the supported functions with their arities.
var builtins = map[string][2]int{
	"BOUND":     {1, 1},
	"ISIRI":     {1, 1},
	"ISURI":     {1, 1},
	"ISLITERAL": {1, 1},
	"ISBLANK":   {1, 1},
	"STR":       {1, 1},
	"LANG":      {1, 1},
	"DATATYPE":  {1, 1},
	"CONTAINS":  {2, 2},
	"STRSTARTS": {2, 2},
	"STRENDS":   {2, 2},
	"REGEX":     {2, 3},
	"LCASE":     {1, 1},
	"UCASE":     {1, 1},
}

// unsupportedWords are SPARQL keywords and built-ins outside the subset.
var unsupportedWords = map[string]string{
	"CONSTRUCT": "CONSTRUCT queries", "ASK": "ASK queries", "DESCRIBE": "DESCRIBE queries",
	"INSERT": "SPARQL Update", "DELETE": "SPARQL Update", "LOAD": "SPARQL Update",
	"CLEAR": "SPARQL Update", "DROP": "SPARQL Update", "CREATE": "SPARQL Update",
	"FROM": "dataset clauses", "GRAPH": "GRAPH patterns", "SERVICE": "SERVICE patterns",
	"UNION": "UNION", "MINUS": "MINUS", "BIND": "BIND", "VALUES": "VALUES",
	"GROUP": "GROUP BY", "HAVING": "HAVING", "EXISTS": "EXISTS", "NOT": "NOT EXISTS / NOT IN",
	"IN": "IN", "COUNT": "aggregates", "SUM": "aggregates", "MIN": "aggregates",
	"MAX": "aggregates", "AVG": "aggregates", "SAMPLE": "aggregates", "GROUP_CONCAT": "aggregates",
	"STRLEN": "STRLEN", "SUBSTR": "SUBSTR", "CONCAT": "CONCAT", "REPLACE": "REPLACE",
	"STRBEFORE": "STRBEFORE", "STRAFTER": "STRAFTER", "ENCODE_FOR_URI": "ENCODE_FOR_URI",
	"LANGMATCHES": "LANGMATCHES", "SAMETERM": "SAMETERM", "ISNUMERIC": "ISNUMERIC",
	"COALESCE": "COALESCE", "IF": "IF", "STRLANG": "STRLANG", "STRDT": "STRDT",
	"IRI": "IRI", "URI": "URI", "BNODE": "BNODE", "RAND": "RAND", "ABS": "ABS",
	"CEIL": "CEIL", "FLOOR": "FLOOR", "ROUND": "ROUND", "NOW": "NOW", "YEAR": "YEAR",
	"MONTH": "MONTH", "DAY": "DAY", "HOURS": "HOURS", "MINUTES": "MINUTES",
	"SECONDS": "SECONDS", "TIMEZONE": "TIMEZONE", "TZ": "TZ", "UUID": "UUID",
	"STRUUID": "STRUUID", "MD5": "MD5", "SHA1": "SHA1", "SHA256": "SHA256",
	"SHA384": "SHA384", "SHA512": "SHA512",
}

// Parse parses a SPARQL SELECT query.
//
// Errors are *ParseError for malformed input and *UnsupportedError for
// valid SPARQL outside the supported subset.
func Parse(text string, opts Options) (*Query, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}

	p := &parser{
		input:    text,
		toks:     toks,
		prefixes: make(map[string]string, len(opts.Prefixes)),
		seen:     make(map[Var]bool),
	}
	for k, v := range opts.Prefixes {
		p.prefixes[k] = v
	}
	if opts.Base != "" {
		if u, err := url.Parse(opts.Base); err == nil {
			p.base = u
		}
	}
	return p.query()
}

type parser struct {
	input    string
	toks     []token
	pos      int
	prefixes map[string]string
	base     *url.URL

	// in-scope variables in order of first appearance
	vars []Var
	seen map[Var]bool
	anon int
}

func (p *parser) query() (*Query, error) {
	if err := p.prologue(); err != nil {
		return nil, err
	}

	if !p.isWord("SELECT") {
		if t := p.peek(); t.kind == tokWord {
			if feature, ok := unsupportedWords[strings.ToUpper(t.text)]; ok {
				return nil, p.unsupported(t, feature)
			}
		}
		return nil, p.expected("SELECT")
	}
	p.advance()

	q := &Query{Limit: -1}
	switch {
	case p.isWord("DISTINCT"):
		q.Distinct = true
		p.advance()
	case p.isWord("REDUCED"):
		// REDUCED permits but does not require duplicate elimination.
		p.advance()
	}

	if err := p.projection(q); err != nil {
		return nil, err
	}

	if p.isWord("FROM") {
		return nil, p.unsupported(p.peek(), "dataset clauses")
	}
	if p.isWord("WHERE") {
		p.advance()
	}
	where, err := p.group()
	if err != nil {
		return nil, err
	}
	q.Where = where
	if q.Star {
		for _, v := range p.vars {
			if !v.IsBlank() {
				q.Projection = append(q.Projection, v)
			}
		}
	}

	if err := p.solutionModifiers(q); err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		if t.kind == tokWord {
			if feature, ok := unsupportedWords[strings.ToUpper(t.text)]; ok {
				return nil, p.unsupported(t, feature)
			}
		}
		return nil, p.errorf(t, "unexpected %s after end of query", describe(t))
	}
	return q, nil
}

func (p *parser) prologue() error {
	for {
		switch {
		case p.isWord("BASE"):
			p.advance()
			t := p.peek()
			if t.kind != tokIRI {
				return p.expected("IRI after BASE")
			}
			p.advance()
			u, err := url.Parse(p.resolve(t.text))
			if err != nil {
				return p.errorf(t, "invalid base IRI: %v", err)
			}
			p.base = u
		case p.isWord("PREFIX"):
			p.advance()
			name := p.peek()
			if name.kind != tokPName || name.value != "" {
				return p.expected("prefix name (e.g. ex:) after PREFIX")
			}
			p.advance()
			iri := p.peek()
			if iri.kind != tokIRI {
				return p.expected("IRI after PREFIX " + name.text + ":")
			}
			p.advance()
			p.prefixes[name.text] = p.resolve(iri.text)
		default:
			return nil
		}
	}
}

func (p *parser) projection(q *Query) error {
	if p.isPunct("*") {
		p.advance()
		q.Star = true
		return nil
	}
	for {
		t := p.peek()
		switch {
		case t.kind == tokVar:
			p.advance()
			q.Projection = append(q.Projection, Var(t.text))
			continue
		case p.isPunct("("):
			return p.unsupported(t, "expressions in SELECT")
		}
		break
	}
	if len(q.Projection) == 0 {
		return p.expected("variable or '*' after SELECT")
	}
	return nil
}

func (p *parser) solutionModifiers(q *Query) error {
	if p.isWord("GROUP") {
		return p.unsupported(p.peek(), "GROUP BY")
	}
	if p.isWord("HAVING") {
		return p.unsupported(p.peek(), "HAVING")
	}
	if p.isWord("ORDER") {
		p.advance()
		if !p.isWord("BY") {
			return p.expected("BY after ORDER")
		}
		p.advance()
		for {
			cond, ok, err := p.orderCondition()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			q.OrderBy = append(q.OrderBy, cond)
		}
		if len(q.OrderBy) == 0 {
			return p.expected("order condition after ORDER BY")
		}
	}

	for range 2 {
		switch {
		case p.isWord("LIMIT"):
			p.advance()
			n, err := p.integer("LIMIT")
			if err != nil {
				return err
			}
			q.Limit = n
		case p.isWord("OFFSET"):
			p.advance()
			n, err := p.integer("OFFSET")
			if err != nil {
				return err
			}
			q.Offset = n
		}
	}
	return nil
}

func (p *parser) orderCondition() (OrderCondition, bool, error) {
	t := p.peek()
	switch {
	case p.isWord("ASC") || p.isWord("DESC"):
		desc := p.isWord("DESC")
		p.advance()
		if !p.isPunct("(") {
			return OrderCondition{}, false, p.expected("'(' after " + strings.ToUpper(t.text))
		}
		e, err := p.bracketted()
		if err != nil {
			return OrderCondition{}, false, err
		}
		return OrderCondition{Expr: e, Descending: desc}, true, nil
	case t.kind == tokVar:
		p.advance()
		return OrderCondition{Expr: VarExpr{Var: Var(t.text)}}, true, nil
	case p.isPunct("("):
		e, err := p.bracketted()
		if err != nil {
			return OrderCondition{}, false, err
		}
		return OrderCondition{Expr: e}, true, nil
	case t.kind == tokWord && p.isBuiltinCall():
		e, err := p.primary()
		if err != nil {
			return OrderCondition{}, false, err
		}
		return OrderCondition{Expr: e}, true, nil
	}
	return OrderCondition{}, false, nil
}

func (p *parser) integer(clause string) (int64, error) {
	t := p.peek()
	if t.kind != tokInteger || strings.HasPrefix(t.text, "-") {
		return 0, p.expected("non-negative integer after " + clause)
	}
	p.advance()
	n, err := strconv.ParseInt(strings.TrimPrefix(t.text, "+"), 10, 64)
	if err != nil {
		return 0, p.errorf(t, "invalid %s: %v", clause, err)
	}
	return n, nil
}

// group parses { ... }.
func (p *parser) group() (*Group, error) {
	if !p.isPunct("{") {
		return nil, p.expected("'{'")
	}
	p.advance()
	if p.isWord("SELECT") {
		return nil, p.unsupported(p.peek(), "subqueries")
	}

	g := &Group{}
	for {
		t := p.peek()
		switch {
		case p.isPunct("}"):
			p.advance()
			return g, nil
		case t.kind == tokEOF:
			return nil, p.expected("'}'")
		case p.isPunct("."):
			p.advance()
		case p.isWord("FILTER"):
			p.advance()
			e, err := p.constraint()
			if err != nil {
				return nil, err
			}
			g.Filters = append(g.Filters, e)
		case p.isWord("OPTIONAL"):
			p.advance()
			inner, err := p.group()
			if err != nil {
				return nil, err
			}
			g.Patterns = append(g.Patterns, Optional{Group: inner})
		case p.isPunct("{"):
			return nil, p.unsupported(t, "nested group patterns")
		case t.kind == tokWord && unsupportedWords[strings.ToUpper(t.text)] != "":
			return nil, p.unsupported(t, unsupportedWords[strings.ToUpper(t.text)])
		default:
			patterns, err := p.triplesSameSubject()
			if err != nil {
				return nil, err
			}
			g.Patterns = append(g.Patterns, patterns...)
			if !p.isPunct(".") && !p.isPunct("}") && !p.atGraphPatternNotTriples() {
				return nil, p.expected("'.' or '}' after triple pattern")
			}
		}
	}
}

// atGraphPatternNotTriples reports whether the next token starts a group
// element that may directly follow a triples block.
func (p *parser) atGraphPatternNotTriples() bool {
	if p.isPunct("{") {
		return true
	}
	for _, w := range []string{"FILTER", "OPTIONAL", "MINUS", "GRAPH", "SERVICE", "BIND", "VALUES"} {
		if p.isWord(w) {
			return true
		}
	}
	return false
}

func (p *parser) triplesSameSubject() ([]Pattern, error) {
	var out []Pattern
	var subj Node
	if p.isPunct("[") {
		p.advance()
		subj = p.freshVar()
		if !p.isPunct("]") {
			nested, err := p.propertyList(subj)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		}
		if !p.isPunct("]") {
			return nil, p.expected("']'")
		}
		p.advance()
		// [ ... ] alone is a complete triples block.
		if p.isPunct(".") || p.isPunct("}") {
			return out, nil
		}
	} else {
		n, err := p.varOrTerm()
		if err != nil {
			return nil, err
		}
		subj = n
	}

	rest, err := p.propertyList(subj)
	if err != nil {
		return nil, err
	}
	return append(out, rest...), nil
}

// propertyList parses Verb ObjectList ( ';' ( Verb ObjectList )? )*.
func (p *parser) propertyList(subj Node) ([]Pattern, error) {
	var out []Pattern
	for {
		verb, err := p.verb()
		if err != nil {
			return nil, err
		}
		p.track(subj, verb)
		for {
			patterns, obj, err := p.object()
			if err != nil {
				return nil, err
			}
			out = append(out, patterns...)
			out = append(out, TriplePattern{S: subj, P: verb, O: obj})
			p.track(obj)
			if !p.isPunct(",") {
				break
			}
			p.advance()
		}

		if !p.isPunct(";") {
			return out, nil
		}
		for p.isPunct(";") {
			p.advance()
		}
		if p.isPunct(".") || p.isPunct("]") || p.isPunct("}") || p.atGraphPatternNotTriples() {
			return out, nil
		}
	}
}

func (p *parser) verb() (Node, error) {
	t := p.peek()
	if p.isPunct("^") || p.isPunct("!") || p.isPunct("(") {
		return nil, p.unsupported(t, "property paths")
	}

	var verb Node
	switch {
	case t.kind == tokVar:
		p.advance()
		verb = Var(t.text)
	case t.kind == tokWord && t.text == "a":
		p.advance()
		verb = TermNode{Term: rdf.IRI(rdf.RDFType)}
	case t.kind == tokIRI || t.kind == tokPName:
		iri, err := p.iri()
		if err != nil {
			return nil, err
		}
		verb = TermNode{Term: iri}
	default:
		return nil, p.expected("predicate")
	}

	if p.peek().kind == tokPunct && strings.Contains("/|*+?^", p.peek().text) {
		return nil, p.unsupported(p.peek(), "property paths")
	}
	return verb, nil
}

// object parses one object. Nested [ ... ] property lists contribute
// their own patterns, which are returned before the object itself.
func (p *parser) object() ([]Pattern, Node, error) {
	if p.isPunct("[") {
		p.advance()
		v := p.freshVar()
		var nested []Pattern
		if !p.isPunct("]") {
			var err error
			nested, err = p.propertyList(v)
			if err != nil {
				return nil, nil, err
			}
		}
		if !p.isPunct("]") {
			return nil, nil, p.expected("']'")
		}
		p.advance()
		return nested, v, nil
	}
	n, err := p.varOrTerm()
	return nil, n, err
}

func (p *parser) varOrTerm() (Node, error) {
	t := p.peek()
	switch t.kind {
	case tokVar:
		p.advance()
		return Var(t.text), nil
	case tokBlank:
		p.advance()
		return Var("_:" + t.text), nil
	}
	if p.isPunct("(") {
		return nil, p.unsupported(t, "collections in patterns")
	}
	term, err := p.term()
	if err != nil {
		return nil, err
	}
	return TermNode{Term: term}, nil
}

// term parses an IRI or a literal.
func (p *parser) term() (rdf.Term, error) {
	t := p.peek()
	switch t.kind {
	case tokIRI, tokPName:
		return p.iri()
	case tokString:
		p.advance()
		switch next := p.peek(); {
		case next.kind == tokLangTag:
			p.advance()
			return rdf.NewLangLiteral(t.text, next.text), nil
		case p.isPunct("^^"):
			p.advance()
			dt, err := p.iri()
			if err != nil {
				return nil, err
			}
			return rdf.NewTypedLiteral(t.text, string(dt)), nil
		}
		return rdf.NewLiteral(t.text), nil
	case tokInteger:
		p.advance()
		return rdf.NewTypedLiteral(t.text, rdf.XSDInteger), nil
	case tokDecimal:
		p.advance()
		return rdf.NewTypedLiteral(t.text, rdf.XSDDecimal), nil
	case tokDouble:
		p.advance()
		return rdf.NewTypedLiteral(t.text, rdf.XSDDouble), nil
	case tokWord:
		if t.text == "true" || t.text == "false" {
			p.advance()
			return rdf.NewTypedLiteral(t.text, rdf.XSDBoolean), nil
		}
	}
	return nil, p.expected("term")
}

func (p *parser) iri() (rdf.IRI, error) {
	t := p.peek()
	switch t.kind {
	case tokIRI:
		p.advance()
		return rdf.IRI(p.resolve(t.text)), nil
	case tokPName:
		ns, ok := p.prefixes[t.text]
		if !ok {
			return "", p.errorf(t, "undefined prefix %q", t.text+":")
		}
		p.advance()
		return rdf.IRI(ns + t.value), nil
	}
	return "", p.expected("IRI")
}

func (p *parser) resolve(ref string) string {
	if p.base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return p.base.ResolveReference(u).String()
}

func (p *parser) freshVar() Var {
	p.anon++
	return Var("_:#" + strconv.Itoa(p.anon))
}

func (p *parser) track(nodes ...Node) {
	for _, n := range nodes {
		if v, ok := n.(Var); ok && !p.seen[v] {
			p.seen[v] = true
			p.vars = append(p.vars, v)
		}
	}
}

// constraint parses the expression after FILTER.
func (p *parser) constraint() (Expr, error) {
	t := p.peek()
	switch {
	case p.isPunct("("):
		return p.bracketted()
	case t.kind == tokWord:
		return p.primary()
	case t.kind == tokIRI || t.kind == tokPName:
		return nil, p.unsupported(t, "extension functions")
	}
	return nil, p.expected("'(' after FILTER")
}

func (p *parser) bracketted() (Expr, error) {
	if !p.isPunct("(") {
		return nil, p.expected("'('")
	}
	p.advance()
	e, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	if !p.isPunct(")") {
		return nil, p.expected("')'")
	}
	p.advance()
	return e, nil
}

func (p *parser) orExpr() (Expr, error) {
	left, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.isPunct("||") {
		p.advance()
		right, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: "||", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) andExpr() (Expr, error) {
	left, err := p.relational()
	if err != nil {
		return nil, err
	}
	for p.isPunct("&&") {
		p.advance()
		right, err := p.relational()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: "&&", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) relational() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind == tokPunct {
		switch t.text {
		case "=", "!=", "<", ">", "<=", ">=":
			p.advance()
			right, err := p.unary()
			if err != nil {
				return nil, err
			}
			return BinaryExpr{Op: t.text, Left: left, Right: right}, nil
		case "+", "-", "*", "/":
			return nil, p.unsupported(t, "arithmetic")
		}
	}
	if t.kind == tokInteger || t.kind == tokDecimal || t.kind == tokDouble {
		if strings.HasPrefix(t.text, "-") || strings.HasPrefix(t.text, "+") {
			return nil, p.unsupported(t, "arithmetic")
		}
	}
	if p.isWord("IN") || p.isWord("NOT") {
		return nil, p.unsupported(t, "IN / NOT IN")
	}
	return left, nil
}

func (p *parser) unary() (Expr, error) {
	t := p.peek()
	if p.isPunct("!") {
		p.advance()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: "!", X: x}, nil
	}
	if p.isPunct("+") || p.isPunct("-") {
		return nil, p.unsupported(t, "arithmetic")
	}
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	if next := p.peek(); next.kind == tokPunct && (next.text == "*" || next.text == "/") {
		return nil, p.unsupported(next, "arithmetic")
	}
	return e, nil
}

func (p *parser) primary() (Expr, error) {
	t := p.peek()
	switch {
	case p.isPunct("("):
		return p.bracketted()
	case t.kind == tokVar:
		p.advance()
		return VarExpr{Var: Var(t.text)}, nil
	case t.kind == tokIRI || t.kind == tokPName:
		iri, err := p.iri()
		if err != nil {
			return nil, err
		}
		if p.isPunct("(") {
			return nil, p.unsupported(t, "extension functions")
		}
		return TermExpr{Term: iri}, nil
	case t.kind == tokWord && t.text != "true" && t.text != "false":
		return p.call()
	}
	term, err := p.term()
	if err != nil {
		return nil, p.expected("expression")
	}
	return TermExpr{Term: term}, nil
}

func (p *parser) isBuiltinCall() bool {
	t := p.peek()
	if t.kind != tokWord {
		return false
	}
	name := strings.ToUpper(t.text)
	_, ok := builtins[name]
	return ok || unsupportedWords[name] != ""
}

func (p *parser) call() (Expr, error) {
	t := p.peek()
	name := strings.ToUpper(t.text)
	arity, ok := builtins[name]
	if !ok {
		if feature, known := unsupportedWords[name]; known {
			return nil, p.unsupported(t, feature)
		}
		return nil, p.errorf(t, "unknown function %s", t.text)
	}
	p.advance()
	if name == "ISURI" {
		name = "ISIRI"
	}

	if !p.isPunct("(") {
		return nil, p.expected("'(' after " + name)
	}
	p.advance()
	var args []Expr
	for !p.isPunct(")") {
		if len(args) > 0 {
			if !p.isPunct(",") {
				return nil, p.expected("',' or ')'")
			}
			p.advance()
		}
		arg, err := p.orExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	p.advance()

	if len(args) < arity[0] || len(args) > arity[1] {
		return nil, p.errorf(t, "%s takes %s, got %d", name, arityText(arity), len(args))
	}
	if name == "BOUND" {
		if _, ok := args[0].(VarExpr); !ok {
			return nil, p.errorf(t, "BOUND takes a variable")
		}
	}
	return CallExpr{Name: name, Args: args}, nil
}

func arityText(a [2]int) string {
	if a[0] == a[1] {
		if a[0] == 1 {
			return "1 argument"
		}
		return strconv.Itoa(a[0]) + " arguments"
	}
	return strconv.Itoa(a[0]) + " or " + strconv.Itoa(a[1]) + " arguments"
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) advance() {
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
}

func (p *parser) isWord(word string) bool {
	t := p.peek()
	return t.kind == tokWord && strings.EqualFold(t.text, word)
}

func (p *parser) isPunct(s string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == s
}

func (p *parser) expected(what string) error {
	t := p.peek()
	return p.errorf(t, "expected %s, found %s", what, describe(t))
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return newParseError(p.input, t.offset, format, args...)
}

func (p *parser) unsupported(t token, feature string) error {
	return newUnsupportedError(p.input, t.offset, feature)
}

func describe(t token) string {
	switch t.kind {
	case tokEOF:
		return "end of query"
	case tokIRI:
		return "<" + t.text + ">"
	case tokPName:
		return t.text + ":" + t.value
	case tokVar:
		return "?" + t.text
	case tokBlank:
		return "_:" + t.text
	case tokString:
		return strconv.Quote(t.text)
	case tokLangTag:
		return "@" + t.text
	case tokPunct:
		return "'" + t.text + "'"
	default:
		return t.text
	}
}

package rdf

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SyntaxError reports a parse failure and its position in the input.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// ParseOptions configures the parsers.
type ParseOptions struct {
	// Base is the base IRI relative references are resolved against.
	Base string

	// BlankScope is prepended to every blank node label so that equal
	// labels from different files stay distinct after merging.
	BlankScope string
}

// ParseTurtle parses a Turtle document. N-Triples is a subset of Turtle
// and parses with the same function.
func ParseTurtle(input string, opts ParseOptions) (*Graph, error) {
	p := &turtleParser{
		input:    input,
		prefixes: make(map[string]string),
		scope:    opts.BlankScope,
		graph:    &Graph{},
	}
	if opts.Base != "" {
		base, err := url.Parse(opts.Base)
		if err != nil {
			return nil, fmt.Errorf("invalid base IRI %q: %w", opts.Base, err)
		}
		p.base = base
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.graph, nil
}

type turtleParser struct {
	input    string
	pos      int
	base     *url.URL
	prefixes map[string]string
	scope    string
	bnodes   int
	graph    *Graph
}

func (p *turtleParser) parse() error {
	for {
		p.skipWS()
		if p.eof() {
			return nil
		}

		switch {
		case strings.HasPrefix(p.input[p.pos:], "@prefix"):
			p.pos += len("@prefix")
			if err := p.prefixDirective(true); err != nil {
				return err
			}
		case strings.HasPrefix(p.input[p.pos:], "@base"):
			p.pos += len("@base")
			if err := p.baseDirective(true); err != nil {
				return err
			}
		case p.matchWord("PREFIX"):
			if err := p.prefixDirective(false); err != nil {
				return err
			}
		case p.matchWord("BASE"):
			if err := p.baseDirective(false); err != nil {
				return err
			}
		default:
			if err := p.triples(); err != nil {
				return err
			}
			p.skipWS()
			if err := p.expect('.'); err != nil {
				return err
			}
		}
	}
}

// prefixDirective parses the remainder of "@prefix" or "PREFIX".
func (p *turtleParser) prefixDirective(turtleStyle bool) error {
	p.skipWS()
	start := p.pos
	for !p.eof() && p.peek() != ':' {
		r, size := p.peekRune()
		if !isPNChar(r) && r != '.' {
			return p.errorf("invalid character %q in prefix name", r)
		}
		p.pos += size
	}
	prefix := p.input[start:p.pos]
	if err := p.expect(':'); err != nil {
		return err
	}
	p.skipWS()
	iri, err := p.iriRef()
	if err != nil {
		return err
	}
	p.prefixes[prefix] = iri
	p.graph.declare(prefix, iri)
	if turtleStyle {
		p.skipWS()
		return p.expect('.')
	}
	return nil
}

func (p *turtleParser) baseDirective(turtleStyle bool) error {
	p.skipWS()
	iri, err := p.iriRef()
	if err != nil {
		return err
	}
	base, err := url.Parse(iri)
	if err != nil {
		return p.errorf("invalid base IRI %q", iri)
	}
	p.base = base
	if turtleStyle {
		p.skipWS()
		return p.expect('.')
	}
	return nil
}

func (p *turtleParser) triples() error {
	if p.peek() == '[' {
		subj, err := p.blankNodePropertyList()
		if err != nil {
			return err
		}
		p.skipWS()
		if p.peek() == '.' {
			return nil
		}
		return p.predicateObjectList(subj)
	}

	subj, err := p.subject()
	if err != nil {
		return err
	}
	return p.predicateObjectList(subj)
}

func (p *turtleParser) subject() (Term, error) {
	switch c := p.peek(); {
	case c == '<':
		iri, err := p.iriRef()
		if err != nil {
			return nil, err
		}
		return IRI(iri), nil
	case c == '_' && p.peekAt(1) == ':':
		return p.blankLabel()
	case c == '(':
		return p.collection()
	default:
		iri, err := p.prefixedName()
		if err != nil {
			return nil, err
		}
		return IRI(iri), nil
	}
}

func (p *turtleParser) predicateObjectList(subj Term) error {
	for {
		p.skipWS()
		pred, err := p.verb()
		if err != nil {
			return err
		}
		if err := p.objectList(subj, pred); err != nil {
			return err
		}

		p.skipWS()
		if p.peek() != ';' {
			return nil
		}
		for p.peek() == ';' {
			p.pos++
			p.skipWS()
		}
		if c := p.peek(); p.eof() || c == '.' || c == ']' {
			return nil
		}
	}
}

func (p *turtleParser) verb() (IRI, error) {
	if p.peek() == 'a' {
		next, _ := utf8.DecodeRuneInString(p.input[min(p.pos+1, len(p.input)):])
		if p.pos+1 >= len(p.input) || !isPNChar(next) && next != ':' {
			p.pos++
			return IRI(RDFType), nil
		}
	}
	if p.peek() == '<' {
		iri, err := p.iriRef()
		return IRI(iri), err
	}
	iri, err := p.prefixedName()
	return IRI(iri), err
}

func (p *turtleParser) objectList(subj Term, pred IRI) error {
	for {
		p.skipWS()
		obj, err := p.object()
		if err != nil {
			return err
		}
		p.graph.add(subj, pred, obj)

		p.skipWS()
		if p.peek() != ',' {
			return nil
		}
		p.pos++
	}
}

func (p *turtleParser) object() (Term, error) {
	if p.eof() {
		return nil, p.errorf("unexpected end of input, expected object")
	}

	c := p.peek()
	switch {
	case c == '<':
		iri, err := p.iriRef()
		if err != nil {
			return nil, err
		}
		return IRI(iri), nil
	case c == '_' && p.peekAt(1) == ':':
		return p.blankLabel()
	case c == '(':
		return p.collection()
	case c == '[':
		return p.blankNodePropertyList()
	case c == '"' || c == '\'':
		return p.literal()
	case isDigit(c) || c == '+' || c == '-' || c == '.' && isDigit(p.peekAt(1)):
		return p.number()
	case p.matchBareWord("true"):
		return NewTypedLiteral("true", XSDBoolean), nil
	case p.matchBareWord("false"):
		return NewTypedLiteral("false", XSDBoolean), nil
	default:
		iri, err := p.prefixedName()
		if err != nil {
			return nil, err
		}
		return IRI(iri), nil
	}
}

func (p *turtleParser) blankNodePropertyList() (Term, error) {
	if err := p.expect('['); err != nil {
		return nil, err
	}
	node := p.freshBlank()
	p.skipWS()
	if p.peek() == ']' {
		p.pos++
		return node, nil
	}
	if err := p.predicateObjectList(node); err != nil {
		return nil, err
	}
	p.skipWS()
	if err := p.expect(']'); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *turtleParser) collection() (Term, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	var items []Term
	for {
		p.skipWS()
		if p.eof() {
			return nil, p.errorf("unterminated collection")
		}
		if p.peek() == ')' {
			p.pos++
			break
		}
		item, err := p.object()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return IRI(RDFNil), nil
	}
	head := p.freshBlank()
	cur := head
	for i, item := range items {
		p.graph.add(cur, RDFFirst, item)
		if i == len(items)-1 {
			p.graph.add(cur, RDFRest, IRI(RDFNil))
			break
		}
		next := p.freshBlank()
		p.graph.add(cur, RDFRest, next)
		cur = next
	}
	return head, nil
}

func (p *turtleParser) blankLabel() (Term, error) {
	p.pos += 2 // skip "_:"
	start := p.pos
	for !p.eof() {
		r, size := p.peekRune()
		if !isPNChar(r) && r != '.' {
			break
		}
		p.pos += size
	}
	for p.pos > start && p.input[p.pos-1] == '.' {
		p.pos--
	}
	if p.pos == start {
		return nil, p.errorf("empty blank node label")
	}
	return Blank(p.scope + p.input[start:p.pos]), nil
}

// freshBlank allocates a blank node that cannot collide with a labelled
// one: labels never start with '.'.
func (p *turtleParser) freshBlank() Blank {
	p.bnodes++
	return Blank(p.scope + ".g" + strconv.Itoa(p.bnodes))
}

func (p *turtleParser) literal() (Term, error) {
	value, err := p.quotedString()
	if err != nil {
		return nil, err
	}

	if p.peek() == '@' {
		p.pos++
		start := p.pos
		for !p.eof() {
			c := p.peek()
			if !isLetter(c) && !isDigit(c) && c != '-' {
				break
			}
			p.pos++
		}
		if p.pos == start {
			return nil, p.errorf("empty language tag")
		}
		return NewLangLiteral(value, p.input[start:p.pos]), nil
	}

	if strings.HasPrefix(p.input[p.pos:], "^^") {
		p.pos += 2
		var dt string
		if p.peek() == '<' {
			dt, err = p.iriRef()
		} else {
			dt, err = p.prefixedName()
		}
		if err != nil {
			return nil, err
		}
		return NewTypedLiteral(value, dt), nil
	}

	return NewLiteral(value), nil
}

// quotedString reads a short or long string in either quote style.
func (p *turtleParser) quotedString() (string, error) {
	q := p.peek()
	long := strings.HasPrefix(p.input[p.pos:], strings.Repeat(string(q), 3))
	if long {
		p.pos += 3
	} else {
		p.pos++
	}

	var sb strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated string literal")
		}
		c := p.peek()
		switch {
		case long && strings.HasPrefix(p.input[p.pos:], strings.Repeat(string(q), 3)):
			p.pos += 3
			// A long string may end with up to two extra quotes.
			for p.peek() == q {
				sb.WriteByte(q)
				p.pos++
			}
			return sb.String(), nil
		case !long && c == q:
			p.pos++
			return sb.String(), nil
		case !long && (c == '\n' || c == '\r'):
			return "", p.errorf("line break in short string literal")
		case c == '\\':
			r, err := p.escape(true)
			if err != nil {
				return "", err
			}
			sb.WriteRune(r)
		default:
			r, size := p.peekRune()
			sb.WriteRune(r)
			p.pos += size
		}
	}
}

// escape decodes an escape sequence starting at a backslash.
func (p *turtleParser) escape(allowEchar bool) (rune, error) {
	p.pos++ // skip '\'
	if p.eof() {
		return 0, p.errorf("incomplete escape sequence")
	}
	c := p.peek()
	p.pos++
	switch c {
	case 'u':
		return p.hexRune(4)
	case 'U':
		return p.hexRune(8)
	}
	if !allowEchar {
		return 0, p.errorf("invalid escape sequence \\%c", c)
	}
	switch c {
	case 't':
		return '\t', nil
	case 'b':
		return '\b', nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 'f':
		return '\f', nil
	case '"', '\'', '\\':
		return rune(c), nil
	default:
		return 0, p.errorf("invalid escape sequence \\%c", c)
	}
}

func (p *turtleParser) hexRune(n int) (rune, error) {
	if p.pos+n > len(p.input) {
		return 0, p.errorf("incomplete unicode escape")
	}
	v, err := strconv.ParseUint(p.input[p.pos:p.pos+n], 16, 32)
	if err != nil {
		return 0, p.errorf("invalid unicode escape %q", p.input[p.pos:p.pos+n])
	}
	p.pos += n
	return rune(v), nil
}

func (p *turtleParser) number() (Term, error) {
	start := p.pos
	if c := p.peek(); c == '+' || c == '-' {
		p.pos++
	}
	digits := p.skipDigits()
	dt := XSDInteger
	if p.peek() == '.' && isDigit(p.peekAt(1)) {
		p.pos++
		digits += p.skipDigits()
		dt = XSDDecimal
	}
	if digits == 0 {
		return nil, p.errorf("invalid numeric literal")
	}
	if c := p.peek(); c == 'e' || c == 'E' {
		p.pos++
		if c := p.peek(); c == '+' || c == '-' {
			p.pos++
		}
		if p.skipDigits() == 0 {
			return nil, p.errorf("invalid exponent in numeric literal")
		}
		dt = XSDDouble
	}
	return NewTypedLiteral(p.input[start:p.pos], dt), nil
}

func (p *turtleParser) skipDigits() int {
	n := 0
	for !p.eof() && isDigit(p.peek()) {
		p.pos++
		n++
	}
	return n
}

func (p *turtleParser) iriRef() (string, error) {
	if err := p.expect('<'); err != nil {
		return "", err
	}
	var sb strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated IRI")
		}
		c := p.peek()
		switch {
		case c == '>':
			p.pos++
			return p.resolve(sb.String()), nil
		case c == '\\':
			r, err := p.escape(false)
			if err != nil {
				return "", err
			}
			sb.WriteRune(r)
		case c <= ' ' || c == '<' || c == '"' || c == '{' || c == '}' || c == '|' || c == '^' || c == '`':
			return "", p.errorf("invalid character %q in IRI", c)
		default:
			r, size := p.peekRune()
			sb.WriteRune(r)
			p.pos += size
		}
	}
}

func (p *turtleParser) resolve(ref string) string {
	if p.base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return p.base.ResolveReference(u).String()
}

func (p *turtleParser) prefixedName() (string, error) {
	start := p.pos
	for !p.eof() && p.peek() != ':' {
		r, size := p.peekRune()
		if !isPNChar(r) && r != '.' {
			break
		}
		p.pos += size
	}
	if p.peek() != ':' {
		p.pos = start
		if p.eof() {
			return "", p.errorf("unexpected end of input")
		}
		r, _ := p.peekRune()
		return "", p.errorf("unexpected character %q", r)
	}
	prefix := p.input[start:p.pos]
	ns, ok := p.prefixes[prefix]
	if !ok {
		p.pos = start
		return "", p.errorf("undefined prefix %q", prefix)
	}
	p.pos++ // skip ':'

	local, err := p.localName()
	if err != nil {
		return "", err
	}
	return ns + local, nil
}

func (p *turtleParser) localName() (string, error) {
	var sb strings.Builder
	for !p.eof() {
		c := p.peek()
		switch {
		case c == '\\':
			p.pos++
			if p.eof() || !strings.ContainsRune("_~.-!$&'()*+,;=/?#@%", rune(p.peek())) {
				return "", p.errorf("invalid escape in local name")
			}
			sb.WriteByte(p.peek())
			p.pos++
			continue
		case c == '%':
			if p.pos+2 >= len(p.input) || !isHex(p.input[p.pos+1]) || !isHex(p.input[p.pos+2]) {
				return "", p.errorf("invalid percent encoding in local name")
			}
			sb.WriteString(p.input[p.pos : p.pos+3])
			p.pos += 3
			continue
		}
		r, size := p.peekRune()
		if !isPNChar(r) && r != ':' && r != '.' {
			break
		}
		sb.WriteRune(r)
		p.pos += size
	}

	local := sb.String()
	for strings.HasSuffix(local, ".") {
		local = local[:len(local)-1]
		p.pos--
	}
	return local, nil
}

func (p *turtleParser) skipWS() {
	for !p.eof() {
		c := p.peek()
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			p.pos++
			continue
		}
		if c == '#' {
			for !p.eof() && p.peek() != '\n' {
				p.pos++
			}
			continue
		}
		return
	}
}

// matchWord consumes a case-insensitive SPARQL-style directive keyword.
func (p *turtleParser) matchWord(word string) bool {
	end := p.pos + len(word)
	if end >= len(p.input) || !strings.EqualFold(p.input[p.pos:end], word) {
		return false
	}
	if c := p.input[end]; c != ' ' && c != '\t' && c != '\n' && c != '\r' {
		return false
	}
	p.pos = end
	return true
}

// matchBareWord consumes a case-sensitive keyword not followed by a name character.
func (p *turtleParser) matchBareWord(word string) bool {
	if !strings.HasPrefix(p.input[p.pos:], word) {
		return false
	}
	end := p.pos + len(word)
	if end < len(p.input) {
		r, _ := utf8.DecodeRuneInString(p.input[end:])
		if isPNChar(r) || r == ':' {
			return false
		}
	}
	p.pos = end
	return true
}

func (p *turtleParser) expect(c byte) error {
	if p.eof() {
		return p.errorf("unexpected end of input, expected %q", c)
	}
	if p.peek() != c {
		r, _ := p.peekRune()
		return p.errorf("expected %q, found %q", c, r)
	}
	p.pos++
	return nil
}

func (p *turtleParser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *turtleParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

func (p *turtleParser) peekAt(offset int) byte {
	if p.pos+offset >= len(p.input) {
		return 0
	}
	return p.input[p.pos+offset]
}

func (p *turtleParser) peekRune() (rune, int) {
	return utf8.DecodeRuneInString(p.input[p.pos:])
}

func (p *turtleParser) errorf(format string, args ...any) error {
	line, col := position(p.input, p.pos)
	return &SyntaxError{Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

// position converts a byte offset into a 1-based line and rune column.
func position(input string, offset int) (int, int) {
	offset = min(offset, len(input))
	before := input[:offset]
	line := strings.Count(before, "\n") + 1
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return line, utf8.RuneCountInString(before[lineStart:]) + 1
}

func isPNChar(r rune) bool {
	return r == '_' || r == '-' || r == 0xB7 || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isHex(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

package sparql

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF     tokenKind = iota
	tokIRI               // <...>, text is the raw reference
	tokPName             // prefix:local, text is the prefix, value the local part
	tokVar               // ?name or $name, text is the name
	tokBlank             // _:label, text is the label
	tokString            // text is the decoded string
	tokLangTag           // @tag, text is the tag
	tokInteger           // text is the lexical form
	tokDecimal           // text is the lexical form
	tokDouble            // text is the lexical form
	tokWord              // bare identifier: keyword, function name, a, true, false
	tokPunct             // operators and delimiters
)

type token struct {
	kind   tokenKind
	text   string
	value  string
	offset int
}

// punctuation, longest first.
var puncts = []string{
	"^^", "&&", "||", "!=", "<=", ">=",
	"{", "}", "(", ")", "[", "]", ".", ";", ",", "*",
	"=", "<", ">", "!", "^", "|", "/", "+", "-", "?",
}

type lexer struct {
	input string
	pos   int
	toks  []token
}

// lex splits input into tokens, always ending with tokEOF.
func lex(input string) ([]token, error) {
	l := &lexer{input: input}
	for {
		l.skipSpace()
		if l.pos >= len(l.input) {
			l.toks = append(l.toks, token{kind: tokEOF, offset: l.pos})
			return l.toks, nil
		}
		if err := l.next(); err != nil {
			return nil, err
		}
	}
}

func (l *lexer) emit(kind tokenKind, text, value string, start int) {
	l.toks = append(l.toks, token{kind: kind, text: text, value: value, offset: start})
}

func (l *lexer) next() error {
	start := l.pos
	c := l.input[l.pos]

	switch {
	case c == '<':
		if ref, ok := l.scanIRIRef(); ok {
			l.emit(tokIRI, ref, "", start)
			return nil
		}
	case c == '?' || c == '$':
		if name := l.scanName(l.pos + 1); name != "" {
			l.pos += 1 + len(name)
			l.emit(tokVar, name, "", start)
			return nil
		}
	case c == '"' || c == '\'':
		s, err := l.scanString()
		if err != nil {
			return err
		}
		l.emit(tokString, s, "", start)
		return nil
	case c == '@':
		l.pos++
		tag := l.scanWhile(func(r rune) bool {
			return r < utf8.RuneSelf && (isASCIILetter(byte(r)) || isASCIIDigit(byte(r)) || r == '-')
		})
		if tag == "" || !isASCIILetter(tag[0]) {
			return l.errorAt(start, "invalid language tag")
		}
		l.emit(tokLangTag, tag, "", start)
		return nil
	case c == '_' && l.peekAt(1) == ':':
		l.pos += 2
		label := l.scanWhile(isLocalNameRune)
		label = strings.TrimRight(label, ".")
		l.pos = start + 2 + len(label)
		if label == "" {
			return l.errorAt(start, "empty blank node label")
		}
		l.emit(tokBlank, label, "", start)
		return nil
	case isASCIIDigit(c) ||
		(c == '.' && isASCIIDigit(l.peekAt(1))) ||
		((c == '+' || c == '-') && (isASCIIDigit(l.peekAt(1)) || (l.peekAt(1) == '.' && isASCIIDigit(l.peekAt(2))))):
		l.scanNumber()
		return nil
	case c == ':' || isNameStart(l.input[l.pos:]):
		return l.scanWordOrPName()
	}

	for _, p := range puncts {
		if strings.HasPrefix(l.input[l.pos:], p) {
			l.pos += len(p)
			l.emit(tokPunct, p, "", start)
			return nil
		}
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return l.errorAt(start, "unexpected character %q", r)
}

// scanIRIRef reads <...> when the text looks like an IRI reference. A '<'
// that is followed by whitespace or a character illegal in IRIs is the
// less-than operator.
func (l *lexer) scanIRIRef() (string, bool) {
	i := l.pos + 1
	var sb strings.Builder
	for i < len(l.input) {
		c := l.input[i]
		switch {
		case c == '>':
			l.pos = i + 1
			return sb.String(), true
		case c <= ' ' || strings.IndexByte("<\"{}|^`", c) >= 0:
			return "", false
		case c == '\\':
			if i+1 >= len(l.input) || (l.input[i+1] != 'u' && l.input[i+1] != 'U') {
				return "", false
			}
			n := 4
			if l.input[i+1] == 'U' {
				n = 8
			}
			if i+2+n > len(l.input) {
				return "", false
			}
			v, err := strconv.ParseUint(l.input[i+2:i+2+n], 16, 32)
			if err != nil {
				return "", false
			}
			sb.WriteRune(rune(v))
			i += 2 + n
			continue
		}
		sb.WriteByte(c)
		i++
	}
	return "", false
}

// scanName reads a variable name starting at from without consuming it.
func (l *lexer) scanName(from int) string {
	i := from
	for i < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[i:])
		if !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || r == '·') {
			break
		}
		i += size
	}
	return l.input[from:i]
}

func (l *lexer) scanWhile(pred func(rune) bool) string {
	start := l.pos
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !pred(r) {
			break
		}
		l.pos += size
	}
	return l.input[start:l.pos]
}

func (l *lexer) scanWordOrPName() error {
	start := l.pos
	prefix := l.scanWhile(func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
	})
	if l.pos < len(l.input) && l.input[l.pos] == ':' && !strings.HasSuffix(prefix, ".") {
		l.pos++
		local, err := l.scanLocalName()
		if err != nil {
			return err
		}
		l.emit(tokPName, prefix, local, start)
		return nil
	}

	// Not a prefixed name: keep only the identifier part.
	l.pos = start
	word := l.scanWhile(func(r rune) bool {
		return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
	})
	if word == "" {
		return l.errorAt(start, "unexpected character %q", l.input[start])
	}
	l.emit(tokWord, word, "", start)
	return nil
}

// scanLocalName reads the local part of a prefixed name, decoding
// backslash escapes. Percent escapes are kept as written. A trailing '.'
// belongs to the enclosing triple, not the name.
func (l *lexer) scanLocalName() (string, error) {
	var sb strings.Builder
	trailingDots := 0
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == '\\':
			if l.pos+1 >= len(l.input) || strings.IndexByte("_~.-!$&'()*+,;=/?#@%", l.input[l.pos+1]) < 0 {
				return "", l.errorAt(l.pos, "invalid escape in local name")
			}
			sb.WriteByte(l.input[l.pos+1])
			l.pos += 2
			trailingDots = 0
			continue
		case c == '%':
			if l.pos+2 >= len(l.input) || !isHexDigit(l.input[l.pos+1]) || !isHexDigit(l.input[l.pos+2]) {
				return "", l.errorAt(l.pos, "invalid percent escape in local name")
			}
			sb.WriteString(l.input[l.pos : l.pos+3])
			l.pos += 3
			trailingDots = 0
			continue
		}
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !isLocalNameRune(r) {
			break
		}
		if r == '.' {
			trailingDots++
		} else {
			trailingDots = 0
		}
		sb.WriteRune(r)
		l.pos += size
	}

	local := sb.String()
	l.pos -= trailingDots
	return local[:len(local)-trailingDots], nil
}

func (l *lexer) scanString() (string, error) {
	start := l.pos
	quote := l.input[l.pos]
	long := strings.HasPrefix(l.input[l.pos:], strings.Repeat(string(quote), 3))
	if long {
		l.pos += 3
	} else {
		l.pos++
	}

	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			return "", l.errorAt(start, "unterminated string")
		}
		c := l.input[l.pos]
		switch {
		case long && strings.HasPrefix(l.input[l.pos:], strings.Repeat(string(quote), 3)):
			l.pos += 3
			// Quotes directly before the closing delimiter belong to the string.
			for l.pos < len(l.input) && l.input[l.pos] == quote {
				sb.WriteByte(quote)
				l.pos++
			}
			return sb.String(), nil
		case !long && c == quote:
			l.pos++
			return sb.String(), nil
		case !long && (c == '\n' || c == '\r'):
			return "", l.errorAt(l.pos, "newline in string")
		case c == '\\':
			r, err := l.scanEscape()
			if err != nil {
				return "", err
			}
			sb.WriteRune(r)
			continue
		}
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		sb.WriteRune(r)
		l.pos += size
	}
}

func (l *lexer) scanEscape() (rune, error) {
	at := l.pos
	if l.pos+1 >= len(l.input) {
		return 0, l.errorAt(at, "unterminated escape")
	}
	c := l.input[l.pos+1]
	l.pos += 2
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
	case 'u', 'U':
		n := 4
		if c == 'U' {
			n = 8
		}
		if l.pos+n > len(l.input) {
			return 0, l.errorAt(at, "short unicode escape")
		}
		v, err := strconv.ParseUint(l.input[l.pos:l.pos+n], 16, 32)
		if err != nil {
			return 0, l.errorAt(at, "invalid unicode escape")
		}
		l.pos += n
		return rune(v), nil
	}
	return 0, l.errorAt(at, "invalid escape \\%c", c)
}

func (l *lexer) scanNumber() {
	start := l.pos
	if c := l.input[l.pos]; c == '+' || c == '-' {
		l.pos++
	}
	kind := tokInteger
	l.skipDigits()
	if l.pos+1 < len(l.input) && l.input[l.pos] == '.' && isASCIIDigit(l.input[l.pos+1]) {
		kind = tokDecimal
		l.pos++
		l.skipDigits()
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		save := l.pos
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
			l.pos++
		}
		if l.skipDigits() > 0 {
			kind = tokDouble
		} else {
			l.pos = save
		}
	}
	l.emit(kind, l.input[start:l.pos], "", start)
}

func (l *lexer) skipDigits() int {
	n := 0
	for l.pos < len(l.input) && isASCIIDigit(l.input[l.pos]) {
		l.pos++
		n++
	}
	return n
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) {
		switch c := l.input[l.pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '#':
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *lexer) errorAt(offset int, format string, args ...any) error {
	return newParseError(l.input, offset, format, args...)
}

func isNameStart(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == '_' || unicode.IsLetter(r)
}

func isLocalNameRune(r rune) bool {
	return r == '_' || r == '-' || r == '.' || r == ':' || r == '·' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isASCIIDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isASCIIDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

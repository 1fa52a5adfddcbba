package annotate

// Scanner is a pull-based cursor over document lines.
type Scanner struct {
	lines []string
	pos   int
}

// NewScanner returns a scanner positioned before the first line.
func NewScanner(lines []string) *Scanner {
	return &Scanner{lines: lines}
}

// Peek returns the next line without consuming it. ok is false at the end.
func (s *Scanner) Peek() (line string, ok bool) {
	if s.Done() {
		return "", false
	}
	return s.lines[s.pos], true
}

// Next consumes and returns the next line. ok is false at the end.
func (s *Scanner) Next() (line string, ok bool) {
	line, ok = s.Peek()
	if ok {
		s.pos++
	}
	return line, ok
}

// Done reports whether every line has been consumed.
func (s *Scanner) Done() bool {
	return s.pos >= len(s.lines)
}

// Line returns the 1-based number of the most recently consumed line.
func (s *Scanner) Line() int {
	return s.pos
}

package annotate

import (
	"regexp"
	"strings"
)

// Result region markers. The engine writes them verbatim and recognizes
// them with surrounding whitespace.
const (
	ResultOpen  = "<!-- start of sparql result -->"
	ResultClose = "<!-- end of sparql result -->"
)

var (
	blockOpenRe  = regexp.MustCompile("^\\s*```\\s*sparql\\s*$")
	blockCloseRe = regexp.MustCompile("^\\s*```\\s*$")
)

func isBlockOpen(line string) bool   { return blockOpenRe.MatchString(line) }
func isBlockClose(line string) bool  { return blockCloseRe.MatchString(line) }
func isResultOpen(line string) bool  { return strings.TrimSpace(line) == ResultOpen }
func isResultClose(line string) bool { return strings.TrimSpace(line) == ResultClose }
func isBlank(line string) bool       { return strings.TrimSpace(line) == "" }

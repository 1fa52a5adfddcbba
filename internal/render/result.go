package render

import (
	"strings"

	"github.com/roach88/sparqlmd/internal/query"
)

// Result renders the outcome of a query: the table on success, the error
// block when Execute failed or the rows failed mid-iteration.
func Result(res *query.Result, err error, c *Compactor) []string {
	if err == nil {
		var lines []string
		lines, err = Table(res.Columns, res.Rows, c)
		if err == nil {
			return lines
		}
	}
	qe := query.AsError(err)
	return Error(string(qe.Kind), qe.Message)
}

// Error renders a fenced block naming the error kind, followed by every
// line of the message.
func Error(kind, message string) []string {
	lines := []string{"```", "[Error: " + kind + "]", ""}
	for _, l := range strings.Split(strings.ReplaceAll(message, "\r\n", "\n"), "\n") {
		lines = append(lines, neutralize(l))
	}
	return append(lines, "```")
}

// neutralize keeps message lines from reading as HTML comments or code
// fences, so an echoed marker or fence cannot end the enclosing result
// region or error block early.
func neutralize(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	indent := line[:len(line)-len(trimmed)]
	switch {
	case strings.HasPrefix(trimmed, "<!--"):
		return indent + "&lt;" + trimmed[1:]
	case strings.HasPrefix(trimmed, "```"):
		return indent + "&#96;" + trimmed[1:]
	}
	return line
}

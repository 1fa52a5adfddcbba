package render

import (
	"iter"
	"strings"

	"github.com/roach88/sparqlmd/internal/query"
	"github.com/roach88/sparqlmd/internal/rdf"
)

// separatorCell is the cosmetic separator segment emitted per column.
const separatorCell = " ------------- |"

var cellEscaper = strings.NewReplacer(
	"|", `\|`,
	"\r\n", "<br>",
	"\n", "<br>",
	"\r", "<br>",
)

// Table renders a result as markdown table lines: a header, a separator
// and one line per row. Rows are consumed in order. If iteration fails the
// lines rendered so far are discarded and the error is returned.
func Table(columns []string, rows iter.Seq2[query.Row, error], c *Compactor) ([]string, error) {
	lines := []string{
		tableLine(escapeAll(columns)),
		"|" + strings.Repeat(separatorCell, len(columns)),
	}

	cells := make([]string, len(columns))
	for row, err := range rows {
		if err != nil {
			return nil, err
		}
		for i := range cells {
			cells[i] = ""
			if i < len(row) && row[i] != nil {
				cells[i] = Cell(row[i], c)
			}
		}
		lines = append(lines, tableLine(cells))
	}
	return lines, nil
}

// Cell renders one bound value. Literals show their lexical form with the
// language tag, if any; datatypes are not shown.
func Cell(t rdf.Term, c *Compactor) string {
	var s string
	switch v := t.(type) {
	case rdf.IRI:
		s = c.Compact(string(v))
	case rdf.Blank:
		s = v.String()
	case rdf.Literal:
		s = v.Value
		if v.Lang != "" {
			s += "@" + v.Lang
		}
	}
	return cellEscaper.Replace(s)
}

func tableLine(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}

func escapeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = cellEscaper.Replace(v)
	}
	return out
}

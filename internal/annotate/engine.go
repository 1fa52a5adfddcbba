package annotate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/sparqlmd/internal/query"
	"github.com/roach88/sparqlmd/internal/render"
)

// Mode selects what happens to result regions.
type Mode int

const (
	// ModeRender regenerates a result region after every query block.
	ModeRender Mode = iota

	// ModeClear removes result regions without regenerating them.
	ModeClear
)

func (m Mode) String() string {
	if m == ModeClear {
		return "clear"
	}
	return "render"
}

// ParseMode maps "render" and "clear" to a Mode. The empty string is
// ModeRender.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "render":
		return ModeRender, nil
	case "clear":
		return ModeClear, nil
	}
	return ModeRender, fmt.Errorf("unknown mode %q (want render or clear)", s)
}

// Block is a fenced query block.
type Block struct {
	// Open and Close are the delimiter lines, verbatim. Close is empty when
	// the block is unterminated.
	Open, Close string

	// Body holds the lines between the delimiters; Query is Body joined
	// with newlines.
	Body  []string
	Query string

	// Line is the 1-based line number of Open.
	Line int

	Terminated bool
}

// Engine rewrites documents, regenerating the result region of every
// query block.
//
// MANDATORY: lines outside query blocks and result regions are copied
// unchanged, except for blank lines adjacent to a result region, which
// collapse to exactly one. Annotating the output again with the same graph
// yields the same lines.
type Engine struct {
	executor  query.Executor
	compactor *render.Compactor
	logger    *slog.Logger
}

// NewEngine returns an engine that runs blocks with exec and compacts
// IRIs with c. A nil logger discards diagnostics.
func NewEngine(exec query.Executor, c *render.Compactor, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{executor: exec, compactor: c, logger: logger}
}

// Annotate returns the rewritten lines of a document. Query failures are
// rendered in place; the only error is cancellation of ctx.
func (e *Engine) Annotate(ctx context.Context, lines []string, mode Mode) ([]string, error) {
	return e.annotate(ctx, lines, mode, e.logger)
}

func (e *Engine) annotate(ctx context.Context, lines []string, mode Mode, logger *slog.Logger) ([]string, error) {
	out := make([]string, 0, len(lines))
	sc := NewScanner(lines)
	justFinishedResult := false

	for !sc.Done() {
		line, _ := sc.Next()

		if isResultOpen(line) {
			skipRegion(sc)
			continue
		}

		if justFinishedResult {
			if isBlank(line) {
				continue
			}
			justFinishedResult = false
		}
		out = append(out, line)

		if !isBlockOpen(line) {
			continue
		}

		block := collectBlock(sc, line)
		out = append(out, block.Body...)
		if !block.Terminated {
			logger.Warn("unterminated query block, no result rendered", "line", block.Line)
			break
		}
		out = append(out, block.Close)

		if mode == ModeRender {
			result, err := e.render(ctx, block, logger)
			if err != nil {
				return nil, err
			}
			out = append(out, "", ResultOpen, "")
			out = append(out, result...)
			out = append(out, "", ResultClose)
		}
		out = append(out, "")
		justFinishedResult = true
	}
	return out, nil
}

func (e *Engine) render(ctx context.Context, b Block, logger *slog.Logger) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := e.executor.Execute(ctx, b.Query)
	lines := render.Result(res, err, e.compactor)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if err != nil {
		logger.Debug("query block failed", "line", b.Line, "error", err)
	} else {
		logger.Debug("query block rendered", "line", b.Line, "lines", len(lines), "duration", time.Since(start))
	}
	return lines, nil
}

// skipRegion consumes lines through the first result close marker, or to
// the end of the document if there is none.
func skipRegion(sc *Scanner) {
	for !sc.Done() {
		line, _ := sc.Next()
		if isResultClose(line) {
			return
		}
	}
}

// collectBlock consumes the body and close marker of a query block whose
// open line has just been read.
func collectBlock(sc *Scanner, open string) Block {
	b := Block{Open: open, Line: sc.Line()}
	for !sc.Done() {
		line, _ := sc.Next()
		if isBlockClose(line) {
			b.Close = line
			b.Terminated = true
			break
		}
		b.Body = append(b.Body, line)
	}
	b.Query = strings.Join(b.Body, "\n")
	return b
}

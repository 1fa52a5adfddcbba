package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/sparqlmd/internal/annotate"
	"github.com/roach88/sparqlmd/internal/graph"
	"github.com/roach88/sparqlmd/internal/query"
	"github.com/roach88/sparqlmd/internal/render"
)

// Harness annotates documents against one loaded graph.
type Harness struct {
	store  *graph.Store
	engine *annotate.Engine
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario loads its graph into a fresh temporary directory and a
// fresh in-memory store. An error is returned only if the scenario could
// not be executed; failed assertions are reported in the result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	mode, err := annotate.ParseMode(scenario.Mode)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "sparqlmd-scenario-")
	if err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	defer os.RemoveAll(dir)

	for name, content := range scenario.Data {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write data file %s: %w", name, err)
		}
	}

	logger := slog.New(slog.DiscardHandler)
	st, err := graph.Load(ctx, dir, graph.LoadOptions{
		SkipInvalid: scenario.SkipInvalid,
		Prefixes:    scenario.Prefixes,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	defer st.Close()

	h := New(st, logger)

	input := annotate.ParseDocument(scenario.Name+".md", []byte(scenario.Document))
	output, err := h.Annotate(ctx, input, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to annotate document: %w", err)
	}

	result := NewResult()
	result.Output = string(output.Bytes())
	result.Regions = countRegions(output.Lines)

	actx := &AssertionContext{
		Ctx:     ctx,
		Harness: h,
		Input:   input,
		Output:  output,
		Mode:    mode,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// New returns a harness over st. Query results are memoized for the
// harness's lifetime, as they are for one CLI run.
func New(st *graph.Store, logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	exec := query.NewMemo(query.NewEngine(st, logger))
	return &Harness{
		store:  st,
		engine: annotate.NewEngine(exec, render.NewCompactor(st.Prefixes()), logger),
		logger: logger,
	}
}

// Annotate returns doc annotated in mode.
func (h *Harness) Annotate(ctx context.Context, doc *annotate.Document, mode annotate.Mode) (*annotate.Document, error) {
	lines, err := h.engine.Annotate(ctx, doc.Lines, mode)
	if err != nil {
		return nil, err
	}
	return doc.WithLines(lines), nil
}

func countRegions(lines []string) int {
	n := 0
	for _, l := range lines {
		if strings.TrimSpace(l) == annotate.ResultOpen {
			n++
		}
	}
	return n
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sparqlmd/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (r TestResult) String() string {
	return fmt.Sprintf("Test Summary: %d passed, %d failed, %d total", r.Passed, r.Failed, r.Total)
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run annotation scenarios and compare their output with golden files.

Each YAML scenario describes data files, a document and a mode. The
document is annotated against the scenario's graph, the scenario's
assertions are evaluated, and the output is compared with
golden/<name>.golden next to the scenario file. Scenarios without a golden
file are checked by their assertions only.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  sparqlmd test ./scenarios
  sparqlmd test ./scenarios --filter "clear_*"
  sparqlmd test ./scenarios --update
  sparqlmd test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(cmd *cobra.Command, opts *TestOptions, scenariosDir string) error {
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	if info, err := os.Stat(scenariosDir); err != nil || !info.IsDir() {
		return NewExitError(ExitUsage, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := harness.FindScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitUsage, "failed to find scenarios", err)
	}

	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}

	for _, file := range files {
		if ctx.Err() != nil {
			return WrapExitError(ExitFailure, "interrupted", ctx.Err())
		}
		sr := runScenario(ctx, cmd, opts, file)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		logger.Debug("scenario finished", "file", file, "pass", sr.Pass)
	}

	if result.Failed > 0 {
		msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
		if err := out.Failure(result, ErrCodeTestFailed, msg); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return out.Success(result)
}

// runScenario executes a single scenario and returns the result. In text
// mode a line per scenario is printed as it finishes.
func runScenario(ctx context.Context, cmd *cobra.Command, opts *TestOptions, file string) ScenarioResult {
	sr := evalScenario(ctx, opts, file)
	if opts.Format == "json" {
		return sr
	}

	w := cmd.OutOrStdout()
	if sr.Pass {
		fmt.Fprintf(w, "✓ %s\n", sr.Name)
		return sr
	}
	fmt.Fprintf(w, "✗ %s\n", sr.Name)
	for _, e := range sr.Errors {
		fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(strings.TrimRight(e, "\n"), "\n", "\n  "))
	}
	return sr
}

func evalScenario(ctx context.Context, opts *TestOptions, file string) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{
			Name:   filepath.Base(file),
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	result, err := harness.Run(ctx, scenario)
	if err != nil {
		return ScenarioResult{
			Name:   scenario.Name,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}
	sr := ScenarioResult{Name: scenario.Name, Pass: result.Pass, Errors: result.Errors}

	goldenPath := harness.GoldenPath(file, scenario.Name)
	if opts.Update {
		if err := harness.UpdateGolden(goldenPath, result.Output); err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, fmt.Sprintf("failed to update golden file: %v", err))
		}
		return sr
	}

	if _, err := os.Stat(goldenPath); errors.Is(err, os.ErrNotExist) {
		// No golden file - use assertion-based validation only
		return sr
	}
	if err := harness.CompareGolden(goldenPath, result.Output); err != nil {
		sr.Pass = false
		var mismatch *harness.MismatchError
		if errors.As(err, &mismatch) {
			sr.Errors = append(sr.Errors, "golden file mismatch (run with --update to regenerate):\n"+mismatch.Diff)
		} else {
			sr.Errors = append(sr.Errors, fmt.Sprintf("golden comparison failed: %v", err))
		}
	}
	return sr
}

package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// RunWithGolden executes a scenario, reports failed assertions, and
// compares the output against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		t.Error(e)
	}

	AssertGolden(t, scenario.Name, result)
	return nil
}

// AssertGolden compares the result's output against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(result.Output))
}

// GoldenPath returns the golden file of the scenario named name that was
// loaded from scenarioFile.
func GoldenPath(scenarioFile, name string) string {
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

// MismatchError reports output that differs from its golden file.
type MismatchError struct {
	Path string
	Diff string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("output does not match %s:\n%s", e.Path, e.Diff)
}

// CompareGolden compares output with the golden file at path. It returns
// a *MismatchError if they differ.
func CompareGolden(path, output string) error {
	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}
	if string(want) == output {
		return nil
	}
	return &MismatchError{Path: path, Diff: LineDiff(string(want), output)}
}

// UpdateGolden writes output as the golden file at path.
func UpdateGolden(path, output string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(output), 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// LineDiff renders a line-oriented diff of want and got. Removed lines
// start with "-", added lines with "+", unchanged lines with " ".
func LineDiff(want, got string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(want, got)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var buf strings.Builder
	for _, d := range diffs {
		mark := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			mark = "-"
		case diffmatchpatch.DiffInsert:
			mark = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			buf.WriteString(mark + strings.TrimSuffix(line, "\n") + "\n")
		}
	}
	return buf.String()
}

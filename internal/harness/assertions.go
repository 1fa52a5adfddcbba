package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/sparqlmd/internal/annotate"
)

// AssertionError is returned when an assertion fails.
// It includes the output to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Output   string // Annotated document
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nOutput:\n")
	for i, line := range strings.Split(strings.TrimSuffix(e.Output, "\n"), "\n") {
		fmt.Fprintf(&buf, "  %3d %s\n", i+1, line)
	}

	return buf.String()
}

// AssertionContext provides what the re-annotating assertions need.
type AssertionContext struct {
	Ctx     context.Context
	Harness *Harness
	Input   *annotate.Document
	Output  *annotate.Document
	Mode    annotate.Mode
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertContains:
			err = assertContains(result, assertion, true)
		case AssertNotContains:
			err = assertContains(result, assertion, false)
		case AssertRegions:
			err = assertRegions(result, assertion)
		case AssertErrorKind:
			err = assertErrorKind(result, assertion)
		case AssertIdempotent, AssertClearRoundTrip:
			if actx == nil || actx.Harness == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a harness context", i, assertion.Type)
			} else if assertion.Type == AssertIdempotent {
				err = assertIdempotent(result, actx)
			} else {
				err = assertClearRoundTrip(result, actx)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func assertContains(result *Result, assertion Assertion, want bool) error {
	if strings.Contains(result.Output, assertion.Text) == want {
		return nil
	}
	expected, actual := "output contains", "not found"
	if !want {
		expected, actual = "output does not contain", "found"
	}
	return &AssertionError{
		Type:     assertion.Type,
		Expected: fmt.Sprintf("%s %q", expected, assertion.Text),
		Actual:   actual,
		Output:   result.Output,
	}
}

func assertRegions(result *Result, assertion Assertion) error {
	if result.Regions == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertRegions,
		Expected: fmt.Sprintf("%d result region(s)", assertion.Count),
		Actual:   fmt.Sprintf("%d result region(s)", result.Regions),
		Output:   result.Output,
	}
}

func assertErrorKind(result *Result, assertion Assertion) error {
	marker := "[Error: " + assertion.Kind + "]"
	for _, line := range strings.Split(result.Output, "\n") {
		if line == marker {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertErrorKind,
		Expected: "error block " + marker,
		Actual:   "not found",
		Output:   result.Output,
	}
}

// assertIdempotent annotates the output again in the same mode.
func assertIdempotent(result *Result, actx *AssertionContext) error {
	again, err := actx.Harness.Annotate(actx.Ctx, actx.Output, actx.Mode)
	if err != nil {
		return err
	}
	if got := string(again.Bytes()); got != result.Output {
		return &AssertionError{
			Type:     AssertIdempotent,
			Expected: "second annotation leaves the output unchanged",
			Actual:   fmt.Sprintf("changed:\n%s", got),
			Output:   result.Output,
		}
	}
	return nil
}

// assertClearRoundTrip clears both the input and the output.
func assertClearRoundTrip(result *Result, actx *AssertionContext) error {
	fromOutput, err := actx.Harness.Annotate(actx.Ctx, actx.Output, annotate.ModeClear)
	if err != nil {
		return err
	}
	fromInput, err := actx.Harness.Annotate(actx.Ctx, actx.Input, annotate.ModeClear)
	if err != nil {
		return err
	}
	want, got := string(fromInput.Bytes()), string(fromOutput.Bytes())
	if want != got {
		return &AssertionError{
			Type:     AssertClearRoundTrip,
			Expected: fmt.Sprintf("clearing the output gives:\n%s", want),
			Actual:   fmt.Sprintf("got:\n%s", got),
			Output:   result.Output,
		}
	}
	return nil
}

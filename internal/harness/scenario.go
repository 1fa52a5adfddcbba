package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sparqlmd/internal/annotate"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Data maps data file names to their content. The files make up the
	// graph the document is annotated against.
	Data map[string]string `yaml:"data"`

	// Document is the markdown input.
	Document string `yaml:"document"`

	// Mode is "render" (the default) or "clear".
	Mode string `yaml:"mode,omitempty"`

	// Prefixes are declared on top of the data files' own prefixes.
	Prefixes map[string]string `yaml:"prefixes,omitempty"`

	// SkipInvalid skips data files that fail to parse.
	SkipInvalid bool `yaml:"skip_invalid,omitempty"`

	// Assertions validate the output.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the annotated output.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Text is the substring checked by contains and not_contains.
	Text string `yaml:"text,omitempty"`

	// Count is the expected number of result regions.
	Count int `yaml:"count,omitempty"`

	// Kind is the error kind expected by error_kind.
	Kind string `yaml:"kind,omitempty"`
}

// Assertion type constants.
const (
	AssertContains       = "contains"
	AssertNotContains    = "not_contains"
	AssertRegions        = "regions"
	AssertErrorKind      = "error_kind"
	AssertIdempotent     = "idempotent"
	AssertClearRoundTrip = "clear_roundtrip"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarioFiles returns the YAML files under dir, sorted by path.
// A non-empty filter is a filepath.Match pattern applied to the file name
// without its extension.
func FindScenarioFiles(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s.Name, `/\`) {
		return fmt.Errorf("name must not contain path separators")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if _, err := annotate.ParseMode(s.Mode); err != nil {
		return err
	}

	for name := range s.Data {
		if name == "" || filepath.Base(name) != name {
			return fmt.Errorf("data: invalid file name %q", name)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertContains, AssertNotContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertRegions:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for regions", index)
		}
	case AssertErrorKind:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for error_kind", index)
		}
	case AssertIdempotent, AssertClearRoundTrip:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Output is the annotated document, exactly as it would be written.
	Output string `json:"output"`

	// Errors contains one message per failed assertion.
	Errors []string `json:"errors,omitempty"`

	// Regions is the number of result regions in Output.
	Regions int `json:"regions"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

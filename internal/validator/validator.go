package validator

import "context"

// Diagnostic describes one validation finding.
type Diagnostic struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return d.Code + ": " + d.Message
}

// Report is the outcome of validating a candidate artifact. A failed report
// is a normal result, not an error; errors are reserved for the validator
// itself being unable to run.
type Report struct {
	Passed      bool         `json:"passed"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Validator checks a candidate code artifact against static and structural
// rules.
type Validator interface {
	Validate(ctx context.Context, artifact string) (*Report, error)
}

package agent

import (
	"context"

	"github.com/taskforge-ai/taskforge/internal/validator"
)

// Tester runs deterministic validation over an artifact. It consumes no model
// tokens; the validator does the work.
type Tester struct {
	validator validator.Validator
}

func NewTester(v validator.Validator) *Tester {
	return &Tester{validator: v}
}

func (t *Tester) Test(ctx context.Context, artifact string) (*validator.Report, error) {
	return t.validator.Validate(ctx, artifact)
}

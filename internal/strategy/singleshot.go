package strategy

import (
	"context"
	"time"

	"github.com/taskforge-ai/taskforge/internal/agent"
	"github.com/taskforge-ai/taskforge/internal/execution"
	"github.com/taskforge-ai/taskforge/internal/task"
	"github.com/taskforge-ai/taskforge/internal/validator"
)

// SingleShot runs one coder pass and one validation pass. It is the cheapest
// strategy and makes exactly one model call per execution.
type SingleShot struct {
	coder     *agent.Coder
	validator validator.Validator
}

func NewSingleShot(coder *agent.Coder, v validator.Validator) *SingleShot {
	return &SingleShot{coder: coder, validator: v}
}

func (s *SingleShot) Type() Type {
	return TypeSingleShot
}

func (s *SingleShot) Execute(ctx context.Context, t *task.Task) (*Outcome, error) {
	out := &Outcome{}
	start := time.Now()
	res, err := s.coder.Implement(ctx, t.Description, "", "")
	if err != nil {
		return out, err
	}
	out.Artifact = res.Content
	out.TokensUsed = res.Usage.TotalTokens
	out.CostUSD = res.Usage.CostUSD

	report, err := s.validator.Validate(ctx, res.Content)
	if err != nil {
		return out, err
	}

	out.Succeeded = report.Passed
	out.Steps = []execution.AgentStep{{
		Role:       string(agent.RoleCoder),
		Input:      t.Description,
		Output:     res.Content,
		Passed:     report.Passed,
		DurationMS: time.Since(start).Milliseconds(),
	}}
	for _, d := range report.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, d.String())
	}
	if !report.Passed {
		out.FailureReason = "artifact failed validation"
	}
	return out, nil
}

package strategy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taskforge-ai/taskforge/internal/agent"
	"github.com/taskforge-ai/taskforge/internal/execution"
	"github.com/taskforge-ai/taskforge/internal/task"
	"github.com/taskforge-ai/taskforge/internal/validator"
)

// Iterative runs up to MaxIterations coder/validator cycles, feeding each
// round's diagnostics back into the next coder prompt. It stops early on the
// first passing artifact.
type Iterative struct {
	coder         *agent.Coder
	validator     validator.Validator
	maxIterations int
}

func NewIterative(coder *agent.Coder, v validator.Validator, maxIterations int) *Iterative {
	if maxIterations < 1 {
		maxIterations = 1
	}
	return &Iterative{coder: coder, validator: v, maxIterations: maxIterations}
}

func (s *Iterative) Type() Type {
	return TypeIterative
}

func (s *Iterative) Execute(ctx context.Context, t *task.Task) (*Outcome, error) {
	out := &Outcome{}
	feedback := ""
	for i := 0; i < s.maxIterations; i++ {
		start := time.Now()
		res, err := s.coder.Implement(ctx, t.Description, "", feedback)
		if err != nil {
			return out, err
		}
		out.TokensUsed += res.Usage.TotalTokens
		out.CostUSD += res.Usage.CostUSD
		out.Artifact = res.Content

		report, err := s.validator.Validate(ctx, res.Content)
		if err != nil {
			return out, err
		}
		out.Steps = append(out.Steps, execution.AgentStep{
			Role:       string(agent.RoleCoder),
			Input:      fmt.Sprintf("iteration %d", i+1),
			Output:     res.Content,
			Passed:     report.Passed,
			DurationMS: time.Since(start).Milliseconds(),
		})

		out.Diagnostics = out.Diagnostics[:0]
		for _, d := range report.Diagnostics {
			out.Diagnostics = append(out.Diagnostics, d.String())
		}
		if report.Passed {
			out.Succeeded = true
			return out, nil
		}
		feedback = strings.Join(out.Diagnostics, "\n")
	}

	out.FailureReason = fmt.Sprintf("validation still failing after %d iterations", s.maxIterations)
	if len(out.Diagnostics) > 0 {
		out.FailureReason = out.Diagnostics[len(out.Diagnostics)-1]
	}
	return out, nil
}

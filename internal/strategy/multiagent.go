package strategy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/taskforge-ai/taskforge/internal/agent"
	"github.com/taskforge-ai/taskforge/internal/execution"
	"github.com/taskforge-ai/taskforge/internal/task"
	"github.com/taskforge-ai/taskforge/internal/validator"
)

// MultiAgent runs the full pipeline: a planner decomposes the task, coders
// implement the steps in parallel, a reviewer gates the assembled artifact
// with bounded rework cycles, and a tester validates the approved result.
type MultiAgent struct {
	planner         *agent.Planner
	coder           *agent.Coder
	reviewer        *agent.Reviewer
	tester          *agent.Tester
	maxParallel     int
	maxReviewCycles int
}

func NewMultiAgent(planner *agent.Planner, coder *agent.Coder, reviewer *agent.Reviewer, v validator.Validator, maxParallel, maxReviewCycles int) *MultiAgent {
	if maxParallel < 1 {
		maxParallel = 1
	}
	if maxReviewCycles < 0 {
		maxReviewCycles = 0
	}
	return &MultiAgent{
		planner:         planner,
		coder:           coder,
		reviewer:        reviewer,
		tester:          agent.NewTester(v),
		maxParallel:     maxParallel,
		maxReviewCycles: maxReviewCycles,
	}
}

func (s *MultiAgent) Type() Type {
	return TypeMultiAgent
}

func (s *MultiAgent) Execute(ctx context.Context, t *task.Task) (*Outcome, error) {
	out := &Outcome{}

	planStart := time.Now()
	plan, err := s.planner.Plan(ctx, t.Description)
	if err != nil {
		return out, err
	}
	out.TokensUsed += plan.Usage.TotalTokens
	out.CostUSD += plan.Usage.CostUSD
	out.Steps = append(out.Steps, execution.AgentStep{
		Role:       string(agent.RolePlanner),
		Input:      t.Description,
		Output:     strings.Join(plan.Steps, "\n"),
		Passed:     true,
		DurationMS: time.Since(planStart).Milliseconds(),
	})

	// Fan out one coder per plan step, bounded by maxParallel. Results land
	// in a slice indexed by step so the assembled artifact keeps plan order
	// regardless of completion order.
	results := make([]*agent.Result, len(plan.Steps))
	durations := make([]time.Duration, len(plan.Steps))
	p := pool.New().WithContext(ctx).WithMaxGoroutines(s.maxParallel)
	for i, step := range plan.Steps {
		i, step := i, step
		p.Go(func(ctx context.Context) error {
			start := time.Now()
			res, err := s.coder.Implement(ctx, t.Description, step, "")
			if err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
			results[i] = res
			durations[i] = time.Since(start)
			return nil
		})
	}
	waitErr := p.Wait()
	for i, res := range results {
		if res == nil {
			continue
		}
		out.TokensUsed += res.Usage.TotalTokens
		out.CostUSD += res.Usage.CostUSD
		out.Steps = append(out.Steps, execution.AgentStep{
			Role:       string(agent.RoleCoder),
			Input:      plan.Steps[i],
			Output:     res.Content,
			Passed:     true,
			DurationMS: durations[i].Milliseconds(),
		})
	}
	out.Artifact = assemble(results)
	if waitErr != nil {
		// Whatever the finished coders produced is kept so a failed run
		// still surfaces partial work.
		return out, waitErr
	}

	// Review gate with bounded rework. Each rejection triggers one full-
	// artifact rework pass before the next review.
	for cycle := 0; ; cycle++ {
		reviewStart := time.Now()
		review, err := s.reviewer.Review(ctx, t.Description, out.Artifact)
		if err != nil {
			return out, err
		}
		out.TokensUsed += review.Usage.TotalTokens
		out.CostUSD += review.Usage.CostUSD
		out.Steps = append(out.Steps, execution.AgentStep{
			Role:       string(agent.RoleReviewer),
			Input:      out.Artifact,
			Output:     review.Feedback,
			Passed:     review.Approved,
			DurationMS: time.Since(reviewStart).Milliseconds(),
		})
		if review.Approved {
			break
		}
		if cycle >= s.maxReviewCycles {
			out.FailureReason = "reviewer did not approve within rework budget"
			out.Diagnostics = append(out.Diagnostics, review.Feedback)
			return out, nil
		}

		reworkStart := time.Now()
		res, err := s.coder.Implement(ctx, t.Description, "", review.Feedback)
		if err != nil {
			return out, err
		}
		out.TokensUsed += res.Usage.TotalTokens
		out.CostUSD += res.Usage.CostUSD
		out.Artifact = res.Content
		out.Steps = append(out.Steps, execution.AgentStep{
			Role:       string(agent.RoleCoder),
			Input:      review.Feedback,
			Output:     res.Content,
			Passed:     true,
			DurationMS: time.Since(reworkStart).Milliseconds(),
		})
	}

	testStart := time.Now()
	report, err := s.tester.Test(ctx, out.Artifact)
	if err != nil {
		return out, err
	}
	out.Steps = append(out.Steps, execution.AgentStep{
		Role:       string(agent.RoleTester),
		Input:      out.Artifact,
		Output:     testSummary(report),
		Passed:     report.Passed,
		DurationMS: time.Since(testStart).Milliseconds(),
	})
	for _, d := range report.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, d.String())
	}
	out.Succeeded = report.Passed
	if !report.Passed {
		out.FailureReason = "approved artifact failed validation"
	}
	return out, nil
}

func assemble(results []*agent.Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if r != nil {
			parts = append(parts, strings.TrimSpace(r.Content))
		}
	}
	return strings.Join(parts, "\n\n")
}

func testSummary(r *validator.Report) string {
	if r.Passed {
		return "passed"
	}
	msgs := make([]string, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		msgs[i] = d.String()
	}
	return strings.Join(msgs, "; ")
}

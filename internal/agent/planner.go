package agent

import (
	"context"
	"regexp"
	"strings"

	"github.com/taskforge-ai/taskforge/internal/llm"
	"github.com/taskforge-ai/taskforge/pkg/cerr"
)

const plannerSystemPrompt = `You are a planning agent. Decompose the task into a short list of
independent implementation steps. Respond with a numbered list, one step per
line. Do not include commentary before or after the list.`

// Plan is a decomposition of a task into independently implementable steps.
type Plan struct {
	Steps []string
	Usage llm.Usage
}

type Planner struct {
	client llm.Client
}

func NewPlanner(client llm.Client) *Planner {
	return &Planner{client: client}
}

var planStepRe = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*])\s+(.+)$`)

// Plan asks the model to decompose the task description. A response with no
// parseable steps degrades to a single step covering the whole task, so a
// sloppy model never stalls the pipeline.
func (p *Planner) Plan(ctx context.Context, description string) (*Plan, error) {
	resp, err := p.client.Complete(ctx, &llm.CompletionRequest{
		SystemPrompt: plannerSystemPrompt,
		Prompt:       description,
	})
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "planner completion failed", err)
	}

	plan := &Plan{Usage: resp.Usage}
	for _, line := range strings.Split(resp.Content, "\n") {
		if m := planStepRe.FindStringSubmatch(line); m != nil {
			plan.Steps = append(plan.Steps, strings.TrimSpace(m[1]))
		}
	}
	if len(plan.Steps) == 0 {
		plan.Steps = []string{strings.TrimSpace(description)}
	}
	return plan, nil
}

package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskforge-ai/taskforge/internal/llm"
	"github.com/taskforge-ai/taskforge/pkg/cerr"
)

const coderSystemPrompt = `You are an implementation agent. Produce the complete artifact for the
requested work. Respond with the artifact only, no surrounding commentary.`

type Coder struct {
	client llm.Client
}

func NewCoder(client llm.Client) *Coder {
	return &Coder{client: client}
}

// Implement produces an artifact for the task. step narrows the work to one
// plan step and feedback carries reviewer or validator findings from a prior
// attempt; both may be empty.
func (c *Coder) Implement(ctx context.Context, description, step, feedback string) (*Result, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Task:\n%s\n", description)
	if step != "" {
		fmt.Fprintf(&b, "\nImplement exactly this step:\n%s\n", step)
	}
	if feedback != "" {
		fmt.Fprintf(&b, "\nAddress the following findings from the previous attempt:\n%s\n", feedback)
	}

	resp, err := c.client.Complete(ctx, &llm.CompletionRequest{
		SystemPrompt: coderSystemPrompt,
		Prompt:       b.String(),
	})
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "coder completion failed", err)
	}
	return &Result{Content: resp.Content, Usage: resp.Usage}, nil
}

package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskforge-ai/taskforge/internal/llm"
	"github.com/taskforge-ai/taskforge/pkg/cerr"
)

const reviewerSystemPrompt = `You are a review agent. Assess whether the artifact satisfies the task.
Respond with a first line of either APPROVED or CHANGES_REQUESTED, followed by
your findings on subsequent lines.`

// Review is a reviewer verdict over an assembled artifact.
type Review struct {
	Approved bool
	Feedback string
	Usage    llm.Usage
}

type Reviewer struct {
	client llm.Client
}

func NewReviewer(client llm.Client) *Reviewer {
	return &Reviewer{client: client}
}

// Review asks the model for a verdict. A response without a recognizable
// verdict line is treated as a change request so unreviewed work never ships.
func (r *Reviewer) Review(ctx context.Context, description, artifact string) (*Review, error) {
	prompt := fmt.Sprintf("Task:\n%s\n\nArtifact:\n%s\n", description, artifact)
	resp, err := r.client.Complete(ctx, &llm.CompletionRequest{
		SystemPrompt: reviewerSystemPrompt,
		Prompt:       prompt,
	})
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "reviewer completion failed", err)
	}

	content := strings.TrimSpace(resp.Content)
	verdict, feedback, _ := strings.Cut(content, "\n")
	return &Review{
		Approved: strings.HasPrefix(strings.ToUpper(strings.TrimSpace(verdict)), "APPROVED"),
		Feedback: strings.TrimSpace(feedback),
		Usage:    resp.Usage,
	}, nil
}

package classifier

import (
	"context"

	"github.com/taskforge-ai/taskforge/internal/task"
)

// Request carries the task text handed to the classifier.
type Request struct {
	TaskDescription string            `json:"task_description"`
	Context         map[string]string `json:"context,omitempty"`
	FilesChanged    []string          `json:"files_changed,omitempty"`
}

// Result labels a task with a type and complexity. Confidence is 0.0-1.0;
// consumers treat low-confidence results the same as no result.
type Result struct {
	TaskType          task.Type       `json:"task_type"`
	Complexity        task.Complexity `json:"complexity"`
	Confidence        float64         `json:"confidence"`
	Reasoning         string          `json:"reasoning"`
	SuggestedStrategy string          `json:"suggested_strategy"`
	EstimatedTokens   int             `json:"estimated_tokens"`
	ClassifierUsed    string          `json:"classifier_used,omitempty"`
}

// Client labels tasks. Classification is a best-effort pre-step: callers must
// tolerate errors and treat them as "no hint".
type Client interface {
	Classify(ctx context.Context, req *Request) (*Result, error)
}

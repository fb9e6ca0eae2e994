package llm

import "context"

// CompletionRequest carries a prompt plus generation constraints.
type CompletionRequest struct {
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Temperature  float64
}

// Usage reports token consumption and the approximate cost of one call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CostUSD          float64
}

type CompletionResponse struct {
	Content string
	Model   string
	Usage   Usage
}

// Client produces text completions. Implementations must honor ctx
// cancellation; callers treat every call as a blocking boundary.
type Client interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	Model() string
}

package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockClient implements Client for tests. Responses can be scripted either as
// a fixed queue or with a handler function; calls are counted.
type MockClient struct {
	mu        sync.Mutex
	model     string
	responses []*CompletionResponse
	errs      []error
	handler   func(req *CompletionRequest, call int) (*CompletionResponse, error)
	calls     int
	requests  []*CompletionRequest
}

func NewMockClient(model string) *MockClient {
	return &MockClient{model: model}
}

// Enqueue appends a scripted response (or error when err is non-nil) to be
// served in FIFO order.
func (m *MockClient) Enqueue(resp *CompletionResponse, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
	m.errs = append(m.errs, err)
}

// EnqueueContent is a shortcut for a successful response with fixed usage.
func (m *MockClient) EnqueueContent(content string) {
	m.Enqueue(&CompletionResponse{
		Content: content,
		Model:   m.model,
		Usage:   Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150, CostUSD: 0.001},
	}, nil)
}

// SetHandler installs a function called for every request. Takes precedence
// over the queue.
func (m *MockClient) SetHandler(fn func(req *CompletionRequest, call int) (*CompletionResponse, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = fn
}

func (m *MockClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	call := m.calls
	m.calls++
	m.requests = append(m.requests, req)
	handler := m.handler
	var resp *CompletionResponse
	var err error
	if handler == nil {
		if len(m.responses) == 0 {
			m.mu.Unlock()
			return nil, fmt.Errorf("mock llm: no scripted response for call %d", call+1)
		}
		resp, err = m.responses[0], m.errs[0]
		m.responses, m.errs = m.responses[1:], m.errs[1:]
	}
	m.mu.Unlock()

	if handler != nil {
		return handler(req, call)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (m *MockClient) Model() string {
	return m.model
}

func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns a copy of every request seen so far.
func (m *MockClient) Requests() []*CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

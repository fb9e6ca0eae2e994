package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-ai/taskforge/internal/config"
)

func testLLMEnv(baseURL string) *config.LLMEnv {
	return &config.LLMEnv{
		BaseURL:             baseURL,
		APIKey:              "test-key",
		Model:               "gpt-4o-mini",
		MaxTokens:           1024,
		Temperature:         0.2,
		PromptCostPer1K:     0.00015,
		CompletionCostPer1K: 0.0006,
	}
}

func TestHTTPClientComplete(t *testing.T) {
	var gotReq chatRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "gpt-4o-mini",
			"choices": [{"message": {"role": "assistant", "content": "func fixed() {}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 1000, "completion_tokens": 500, "total_tokens": 1500}
		}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(testLLMEnv(srv.URL))
	resp, err := c.Complete(context.Background(), &CompletionRequest{
		SystemPrompt: "You are an implementation agent.",
		Prompt:       "fix the login crash",
	})
	require.NoError(t, err)

	assert.Equal(t, "func fixed() {}", resp.Content)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
	assert.Equal(t, 1500, resp.Usage.TotalTokens)
	assert.InDelta(t, 0.00015+0.0003, resp.Usage.CostUSD, 1e-9)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, 1024, gotReq.MaxTokens)
}

func TestHTTPClientUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited", "type": "rate_limit"}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(testLLMEnv(srv.URL))
	_, err := c.Complete(context.Background(), &CompletionRequest{Prompt: "fix"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestHTTPClientNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model": "gpt-4o-mini", "choices": []}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(testLLMEnv(srv.URL))
	_, err := c.Complete(context.Background(), &CompletionRequest{Prompt: "fix"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

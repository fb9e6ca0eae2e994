package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/taskforge-ai/taskforge/internal/config"
)

// HTTPClient speaks the OpenAI-compatible chat completions API.
type HTTPClient struct {
	model               string
	apiKey              string
	baseURL             string
	maxTokens           int
	temperature         float64
	promptCostPer1K     float64
	completionCostPer1K float64
	httpClient          *http.Client
}

func NewHTTPClient(env *config.LLMEnv) *HTTPClient {
	timeout := env.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &HTTPClient{
		model:               env.Model,
		apiKey:              env.APIKey,
		baseURL:             strings.TrimRight(env.BaseURL, "/"),
		maxTokens:           env.MaxTokens,
		temperature:         env.Temperature,
		promptCostPer1K:     env.PromptCostPer1K,
		completionCostPer1K: env.CompletionCostPer1K,
		httpClient:          &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Model() string {
	return c.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *HTTPClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}

	var messages []chatMessage
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completion request returned %d: %s", resp.StatusCode, truncate(string(respBody), 512))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode completion response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("completion error from upstream: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("completion response has no choices")
	}

	usage := Usage{
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
		TotalTokens:      parsed.Usage.TotalTokens,
	}
	usage.CostUSD = float64(usage.PromptTokens)/1000*c.promptCostPer1K +
		float64(usage.CompletionTokens)/1000*c.completionCostPer1K

	model := parsed.Model
	if model == "" {
		model = c.model
	}

	slog.DebugContext(ctx, "llm completion",
		"model", model,
		"total_tokens", usage.TotalTokens,
		"duration", time.Since(start),
	)

	return &CompletionResponse{
		Content: parsed.Choices[0].Message.Content,
		Model:   model,
		Usage:   usage,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

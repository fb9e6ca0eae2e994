package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryRecoversFromTransientError(t *testing.T) {
	mock := NewMockClient("test-model")
	mock.Enqueue(nil, errors.New("connection reset"))
	mock.EnqueueContent("func fixed() {}")

	r := NewRetry(mock, 3, time.Millisecond)
	resp, err := r.Complete(context.Background(), &CompletionRequest{Prompt: "fix it"})
	require.NoError(t, err)

	assert.Equal(t, "func fixed() {}", resp.Content)
	assert.Equal(t, 2, mock.CallCount(), "first failure is retried once")
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	mock := NewMockClient("test-model")
	mock.SetHandler(func(*CompletionRequest, int) (*CompletionResponse, error) {
		return nil, errors.New("model unreachable")
	})

	r := NewRetry(mock, 2, time.Millisecond)
	_, err := r.Complete(context.Background(), &CompletionRequest{Prompt: "fix it"})
	require.Error(t, err)
	assert.Equal(t, 2, mock.CallCount(), "retries stop at the attempt budget")
}

func TestRetryDoesNotRetryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := NewMockClient("test-model")
	mock.SetHandler(func(*CompletionRequest, int) (*CompletionResponse, error) {
		cancel()
		return nil, context.Canceled
	})

	r := NewRetry(mock, 5, time.Millisecond)
	_, err := r.Complete(ctx, &CompletionRequest{Prompt: "fix it"})
	require.Error(t, err)
	assert.Equal(t, 1, mock.CallCount(), "a cancelled caller never retries")
}

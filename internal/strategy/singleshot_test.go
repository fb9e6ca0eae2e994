package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-ai/taskforge/internal/agent"
	"github.com/taskforge-ai/taskforge/internal/llm"
	"github.com/taskforge-ai/taskforge/internal/validator"
)

func TestSingleShotSuccess(t *testing.T) {
	mock := llm.NewMockClient("test-model")
	mock.EnqueueContent("func fixed() {}")

	s := NewSingleShot(agent.NewCoder(mock), &scriptedValidator{})
	out, err := s.Execute(context.Background(), testTask())
	require.NoError(t, err)

	assert.True(t, out.Succeeded)
	assert.Equal(t, "func fixed() {}", out.Artifact)
	assert.Equal(t, 150, out.TokensUsed)
	assert.InDelta(t, 0.001, out.CostUSD, 1e-9)
	assert.Equal(t, 1, mock.CallCount(), "single shot makes exactly one model call")
	require.Len(t, out.Steps, 1)
	assert.Equal(t, "coder", out.Steps[0].Role)
	assert.True(t, out.Steps[0].Passed)
}

func TestSingleShotValidationFailure(t *testing.T) {
	mock := llm.NewMockClient("test-model")
	mock.EnqueueContent("func broken() {")

	s := NewSingleShot(agent.NewCoder(mock), validator.NewStructural())
	out, err := s.Execute(context.Background(), testTask())
	require.NoError(t, err)

	assert.False(t, out.Succeeded)
	assert.NotEmpty(t, out.FailureReason)
	assert.NotEmpty(t, out.Diagnostics)
	assert.Equal(t, "func broken() {", out.Artifact, "failed artifact is retained")
	assert.Equal(t, 1, mock.CallCount(), "no retry on validation failure")
}

func TestSingleShotModelError(t *testing.T) {
	mock := llm.NewMockClient("test-model")
	mock.Enqueue(nil, context.DeadlineExceeded)

	s := NewSingleShot(agent.NewCoder(mock), &scriptedValidator{})
	out, err := s.Execute(context.Background(), testTask())
	require.Error(t, err)
	require.NotNil(t, out)
	assert.Empty(t, out.Artifact)
}

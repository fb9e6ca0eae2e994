package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-ai/taskforge/internal/execution"
	"github.com/taskforge-ai/taskforge/pkg/cerr"
	"github.com/taskforge-ai/taskforge/pkg/storage"
)

func newExecution(id, taskID string, attempt int) *execution.Execution {
	return &execution.Execution{
		ID:        id,
		TaskID:    taskID,
		Strategy:  "ITERATIVE",
		Attempt:   attempt,
		Status:    execution.StatusPending,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestYAMLRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewYAMLRepository(storage.NewMemoryStorage())

	e := newExecution("01EXEC", "01TASK", 1)
	e.Result = &execution.Result{
		Artifact: "package main",
		Steps: []execution.AgentStep{
			{Role: "coder", Input: "iteration 1", Output: "package main", Passed: true, DurationMS: 12},
		},
		Decision: &execution.Decision{Strategy: "ITERATIVE", Source: "default", Rationale: "classifier unavailable"},
	}
	require.NoError(t, repo.Create(ctx, e))

	got, err := repo.Get(ctx, "01EXEC")
	require.NoError(t, err)
	assert.Equal(t, "01TASK", got.TaskID)
	require.NotNil(t, got.Result)
	assert.Equal(t, "package main", got.Result.Artifact)
	require.Len(t, got.Result.Steps, 1)
	assert.Equal(t, "coder", got.Result.Steps[0].Role)
	require.NotNil(t, got.Result.Decision)
	assert.Equal(t, "default", got.Result.Decision.Source)

	got.Status = execution.StatusCompleted
	require.NoError(t, repo.Update(ctx, got))
	updated, err := repo.Get(ctx, "01EXEC")
	require.NoError(t, err)
	assert.Equal(t, execution.StatusCompleted, updated.Status)
}

func TestYAMLRepositoryListByTask(t *testing.T) {
	ctx := context.Background()
	repo := NewYAMLRepository(storage.NewMemoryStorage())

	require.NoError(t, repo.Create(ctx, newExecution("01AAA", "task-1", 1)))
	require.NoError(t, repo.Create(ctx, newExecution("01BBB", "task-1", 2)))
	require.NoError(t, repo.Create(ctx, newExecution("01CCC", "task-2", 1)))

	execs, err := repo.ListByTask(ctx, "task-1")
	require.NoError(t, err)
	require.Len(t, execs, 2)
	assert.Equal(t, "01AAA", execs[0].ID)
	assert.Equal(t, "01BBB", execs[1].ID)

	require.NoError(t, repo.DeleteByTask(ctx, "task-1"))
	execs, err = repo.ListByTask(ctx, "task-1")
	require.NoError(t, err)
	assert.Empty(t, execs)

	// Executions of other tasks survive the cascade.
	_, err = repo.Get(ctx, "01CCC")
	require.NoError(t, err)
}

func TestYAMLRepositoryGetMissing(t *testing.T) {
	repo := NewYAMLRepository(storage.NewMemoryStorage())
	_, err := repo.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

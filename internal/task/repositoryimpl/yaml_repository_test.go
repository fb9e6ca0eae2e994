package repositoryimpl

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-ai/taskforge/internal/task"
	"github.com/taskforge-ai/taskforge/pkg/cerr"
	"github.com/taskforge-ai/taskforge/pkg/storage"
)

func newTask(id, ownerID string, status task.Status) *task.Task {
	now := time.Now().UTC().Truncate(time.Second)
	return &task.Task{
		ID:          id,
		OwnerID:     ownerID,
		Description: "fix the login crash",
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestYAMLRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewYAMLRepository(storage.NewMemoryStorage())

	created := newTask("01TEST", "owner-1", task.StatusPending)
	require.NoError(t, repo.Create(ctx, created))

	got, err := repo.Get(ctx, "01TEST")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Description, got.Description)
	assert.Equal(t, task.StatusPending, got.Status)

	got.Status = task.StatusClassifying
	require.NoError(t, repo.Update(ctx, got))
	updated, err := repo.Get(ctx, "01TEST")
	require.NoError(t, err)
	assert.Equal(t, task.StatusClassifying, updated.Status)

	require.NoError(t, repo.Delete(ctx, "01TEST"))
	_, err = repo.Get(ctx, "01TEST")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestYAMLRepositoryCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewYAMLRepository(storage.NewMemoryStorage())

	require.NoError(t, repo.Create(ctx, newTask("01DUP", "owner-1", task.StatusPending)))
	err := repo.Create(ctx, newTask("01DUP", "owner-1", task.StatusPending))
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))
}

func TestYAMLRepositoryUpdateMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewYAMLRepository(storage.NewMemoryStorage())

	err := repo.Update(ctx, newTask("01MISSING", "owner-1", task.StatusPending))
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestYAMLRepositoryList(t *testing.T) {
	ctx := context.Background()
	repo := NewYAMLRepository(storage.NewMemoryStorage())

	for i := 0; i < 5; i++ {
		owner := "owner-a"
		status := task.StatusPending
		if i >= 3 {
			owner = "owner-b"
			status = task.StatusCompleted
		}
		require.NoError(t, repo.Create(ctx, newTask(fmt.Sprintf("01LIST%02d", i), owner, status)))
	}

	all, total, err := repo.List(ctx, "", "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, all, 5)

	byOwner, total, err := repo.List(ctx, "owner-a", "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, byOwner, 3)

	byStatus, total, err := repo.List(ctx, "", task.StatusCompleted, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, byStatus, 2)

	page, total, err := repo.List(ctx, "", "", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "01LIST01", page[0].ID)
	assert.Equal(t, "01LIST02", page[1].ID)

	past, total, err := repo.List(ctx, "", "", 10, 99)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, past)
}

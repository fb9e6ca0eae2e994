package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/taskforge-ai/taskforge/internal/execution"
	"github.com/taskforge-ai/taskforge/pkg/cerr"
	"github.com/taskforge-ai/taskforge/pkg/storage"
)

const executionsPrefix = "executions"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", executionsPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, e *execution.Execution) error {
	exists, err := r.storage.Exists(ctx, path(e.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("execution", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "execution already exists", nil)
	}
	data, err := yaml.Marshal(e)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal execution: %w", err))
	}
	if err := r.storage.Write(ctx, path(e.ID), data); err != nil {
		return cerr.WrapStorageWriteError("execution", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*execution.Execution, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("execution", err)
	}
	var e execution.Execution
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal execution: %w", err))
	}
	return &e, nil
}

func (r *YAMLRepository) ListByTask(ctx context.Context, taskID string) ([]*execution.Execution, error) {
	paths, err := r.storage.List(ctx, executionsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("executions", err)
	}

	// ULID ids sort lexicographically in creation order.
	sort.Strings(paths)

	var all []*execution.Execution
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var e execution.Execution
		if err := yaml.Unmarshal(data, &e); err != nil {
			continue
		}
		if e.TaskID != taskID {
			continue
		}
		all = append(all, &e)
	}
	return all, nil
}

func (r *YAMLRepository) Update(ctx context.Context, e *execution.Execution) error {
	exists, err := r.storage.Exists(ctx, path(e.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("execution", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "execution not found", nil)
	}
	data, err := yaml.Marshal(e)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal execution: %w", err))
	}
	if err := r.storage.Write(ctx, path(e.ID), data); err != nil {
		return cerr.WrapStorageWriteError("execution", err)
	}
	return nil
}

func (r *YAMLRepository) DeleteByTask(ctx context.Context, taskID string) error {
	execs, err := r.ListByTask(ctx, taskID)
	if err != nil {
		return err
	}
	for _, e := range execs {
		if err := r.storage.Delete(ctx, path(e.ID)); err != nil {
			return cerr.WrapStorageDeleteError("execution", err)
		}
	}
	return nil
}

package execution

import "context"

type Repository interface {
	Create(ctx context.Context, e *Execution) error
	Get(ctx context.Context, id string) (*Execution, error)
	ListByTask(ctx context.Context, taskID string) ([]*Execution, error)
	Update(ctx context.Context, e *Execution) error
	// DeleteByTask removes all executions owned by a task. Used for the
	// cascade when a task is deleted.
	DeleteByTask(ctx context.Context, taskID string) error
}

// Package orchestrator owns the task lifecycle: creation, strategy selection,
// asynchronous execution, escalation and cancellation.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sourcegraph/conc"

	"github.com/taskforge-ai/taskforge/internal/classifier"
	"github.com/taskforge-ai/taskforge/internal/eventbus"
	"github.com/taskforge-ai/taskforge/internal/execution"
	"github.com/taskforge-ai/taskforge/internal/strategy"
	"github.com/taskforge-ai/taskforge/internal/task"
	"github.com/taskforge-ai/taskforge/pkg/cerr"
)

type Config struct {
	DefaultStrategy      strategy.Type
	MaxIterations        int
	MaxReviewCycles      int
	MaxParallelSubagents int
	ExecutionTimeout     time.Duration
	ConfidenceThreshold  float64
	EnableEscalation     bool
	Model                string
}

type Service struct {
	tasks      task.Repository
	executions execution.Repository
	classifier classifier.Client
	selector   *strategy.Selector
	registry   *strategy.Registry
	bus        *eventbus.Bus
	cfg        Config

	wg conc.WaitGroup

	mu       sync.Mutex
	inflight map[string]context.CancelFunc // task ID -> cancel for the running execution
}

func NewService(
	tasks task.Repository,
	executions execution.Repository,
	cls classifier.Client,
	selector *strategy.Selector,
	registry *strategy.Registry,
	bus *eventbus.Bus,
	cfg Config,
) *Service {
	if cfg.ExecutionTimeout <= 0 {
		cfg.ExecutionTimeout = 10 * time.Minute
	}
	return &Service{
		tasks:      tasks,
		executions: executions,
		classifier: cls,
		selector:   selector,
		registry:   registry,
		bus:        bus,
		cfg:        cfg,
		inflight:   make(map[string]context.CancelFunc),
	}
}

// Shutdown waits for in-flight executions to drain.
func (s *Service) Shutdown() {
	s.wg.Wait()
}

func (s *Service) CreateTask(ctx context.Context, ownerID, description string, metadata map[string]string) (*task.Task, error) {
	if description == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "description is required", nil)
	}

	now := time.Now()
	t := &task.Task{
		ID:          ulid.Make().String(),
		OwnerID:     ownerID,
		Description: description,
		Status:      task.StatusPending,
		Metadata:    metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, err
	}
	s.bus.PublishNew(eventbus.EventTaskCreated, t.ID, t.Description, nil)
	return t, nil
}

func (s *Service) GetTask(ctx context.Context, id string) (*task.Task, error) {
	return s.tasks.Get(ctx, id)
}

func (s *Service) ListTasks(ctx context.Context, ownerID string, status task.Status, limit, offset int) ([]*task.Task, int, error) {
	return s.tasks.List(ctx, ownerID, status, limit, offset)
}

// DeleteTask removes a task and all of its executions. A task with a running
// execution cannot be deleted; cancel it first.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	_, running := s.inflight[id]
	s.mu.Unlock()
	if running {
		return cerr.NewError(cerr.FailedPrecondition, "task has a running execution", nil)
	}
	if err := s.executions.DeleteByTask(ctx, id); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, id)
}

func (s *Service) GetExecution(ctx context.Context, id string) (*execution.Execution, error) {
	return s.executions.Get(ctx, id)
}

func (s *Service) ListExecutions(ctx context.Context, taskID string) ([]*execution.Execution, error) {
	if _, err := s.tasks.Get(ctx, taskID); err != nil {
		return nil, err
	}
	return s.executions.ListByTask(ctx, taskID)
}

// ExecuteTask classifies the task, selects a strategy and launches the
// execution asynchronously. The returned execution is in status PENDING; its
// progress is observable through GetExecution and the event bus. Only a
// PENDING task can be started, and at most one execution per task runs at a
// time.
func (s *Service) ExecuteTask(ctx context.Context, taskID string, override strategy.Type) (*execution.Execution, error) {
	if override != "" && !override.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, "unknown strategy "+string(override), nil)
	}

	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.Status != task.StatusPending {
		return nil, cerr.NewError(cerr.FailedPrecondition, "task is not startable from status "+string(t.Status), nil)
	}

	s.mu.Lock()
	if _, busy := s.inflight[taskID]; busy {
		s.mu.Unlock()
		return nil, cerr.NewError(cerr.FailedPrecondition, "task already has a running execution", nil)
	}
	// Reserve the slot before the first status write so a concurrent call
	// cannot start a second execution.
	runCtx, cancel := context.WithCancel(context.Background())
	s.inflight[taskID] = cancel
	s.mu.Unlock()

	if err := s.transitionTask(ctx, t, task.StatusClassifying); err != nil {
		cancel()
		s.release(taskID)
		return nil, err
	}

	hint, err := s.classifier.Classify(ctx, &classifier.Request{TaskDescription: t.Description, Context: t.Metadata})
	if err != nil {
		slog.Info("orchestrator: classification unavailable, using fallback selection", "task_id", t.ID, "error", err)
		hint = nil
	}
	decision := s.selector.Select(override, hint)
	if hint != nil {
		t.Type = hint.TaskType
		t.Complexity = hint.Complexity
	}

	now := time.Now()
	t.StartedAt = &now
	if err := s.transitionTask(ctx, t, task.StatusInProgress); err != nil {
		s.abortStart(ctx, t)
		cancel()
		s.release(taskID)
		return nil, err
	}

	exec := &execution.Execution{
		ID:        ulid.Make().String(),
		TaskID:    t.ID,
		Strategy:  decision.Strategy,
		Model:     s.cfg.Model,
		Attempt:   1,
		Status:    execution.StatusPending,
		Result:    &execution.Result{Decision: &decision},
		CreatedAt: time.Now(),
	}
	if err := s.executions.Create(ctx, exec); err != nil {
		s.abortStart(ctx, t)
		cancel()
		s.release(taskID)
		return nil, err
	}
	s.bus.PublishNew(eventbus.EventTaskStarted, t.ID, decision.Strategy, map[string]string{"execution_id": exec.ID})

	// The worker owns its own copy so the caller can serialize the returned
	// record without racing the status writes.
	execCopy := *exec
	if exec.Result != nil {
		r := *exec.Result
		execCopy.Result = &r
	}
	s.wg.Go(func() {
		defer s.release(taskID)
		defer cancel()
		s.run(runCtx, t, &execCopy)
	})
	return exec, nil
}

// CancelExecution requests cancellation of a non-terminal execution. For a
// running execution the worker goroutine observes the cancelled context and
// performs the terminal writes itself; nothing else touches the records
// afterwards.
func (s *Service) CancelExecution(ctx context.Context, executionID string) (*execution.Execution, error) {
	exec, err := s.executions.Get(ctx, executionID)
	if err != nil {
		return nil, err
	}
	if exec.Status.IsTerminal() {
		return nil, cerr.NewError(cerr.FailedPrecondition, "execution already finished", nil)
	}

	s.mu.Lock()
	cancel, running := s.inflight[exec.TaskID]
	s.mu.Unlock()
	if running {
		cancel()
		return exec, nil
	}

	// No worker owns it (e.g. the process restarted); finalize directly.
	if err := s.finalizeExecution(ctx, exec, execution.StatusCancelled, "cancelled by request", nil); err != nil {
		return nil, err
	}
	if t, err := s.tasks.Get(ctx, exec.TaskID); err == nil && !t.Status.IsTerminal() {
		if err := s.transitionTask(ctx, t, task.StatusCancelled); err != nil {
			slog.Warn("orchestrator: failed to cancel task record", "task_id", exec.TaskID, "error", err)
		}
	}
	s.bus.PublishNew(eventbus.EventTaskCancelled, exec.TaskID, "", map[string]string{"execution_id": exec.ID})
	return exec, nil
}

// run drives one execution attempt to a terminal state, escalating to the
// next strategy tier at most once when the first attempt fails. An attempt
// that exhausts its timeout counts as a failure; each attempt runs under a
// fresh deadline. Only an explicit cancel request ends in CANCELLED.
func (s *Service) run(ctx context.Context, t *task.Task, exec *execution.Execution) {
	// Terminal writes must survive the cancelled run context.
	bg := context.WithoutCancel(ctx)

	for {
		attemptCtx, cancelAttempt := context.WithTimeout(ctx, s.cfg.ExecutionTimeout)
		outcome, runErr := s.runAttempt(attemptCtx, t, exec)
		timedOut := errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
		cancelAttempt()

		if ctx.Err() != nil {
			reason := "execution cancelled"
			if err := s.finalizeExecution(bg, exec, execution.StatusCancelled, reason, outcome); err != nil {
				slog.Error("orchestrator: failed to finalize cancelled execution", "execution_id", exec.ID, "error", err)
			}
			s.finishTask(bg, t, task.StatusCancelled, eventbus.EventTaskCancelled, reason, exec.ID)
			return
		}

		if runErr == nil && outcome.Succeeded {
			if err := s.finalizeExecution(bg, exec, execution.StatusCompleted, "", outcome); err != nil {
				slog.Error("orchestrator: failed to finalize completed execution", "execution_id", exec.ID, "error", err)
			}
			s.finishTask(bg, t, task.StatusCompleted, eventbus.EventTaskCompleted, "", exec.ID)
			return
		}

		reason := "strategy did not produce a passing artifact"
		switch {
		case timedOut:
			reason = "execution timed out"
		case runErr != nil:
			reason = runErr.Error()
		case outcome.FailureReason != "":
			reason = outcome.FailureReason
		}
		if err := s.finalizeExecution(bg, exec, execution.StatusFailed, reason, outcome); err != nil {
			slog.Error("orchestrator: failed to finalize failed execution", "execution_id", exec.ID, "error", err)
		}

		next, ok := strategy.Type(exec.Strategy).NextTier()
		if !s.cfg.EnableEscalation || exec.Attempt > 1 || !ok {
			s.finishTask(bg, t, task.StatusFailed, eventbus.EventTaskFailed, reason, exec.ID)
			return
		}

		// One step up the cost order, as a fresh attempt on the same task.
		nextExec := &execution.Execution{
			ID:       ulid.Make().String(),
			TaskID:   t.ID,
			Strategy: string(next),
			Model:    exec.Model,
			Attempt:  exec.Attempt + 1,
			Status:   execution.StatusPending,
			Result: &execution.Result{Decision: &execution.Decision{
				Strategy:  string(next),
				Source:    "escalation",
				Rationale: "previous attempt failed: " + reason,
			}},
			CreatedAt: time.Now(),
		}
		if err := s.executions.Create(bg, nextExec); err != nil {
			slog.Error("orchestrator: failed to create escalated execution", "task_id", t.ID, "error", err)
			s.finishTask(bg, t, task.StatusFailed, eventbus.EventTaskFailed, reason, exec.ID)
			return
		}
		slog.Info("orchestrator: escalating execution", "task_id", t.ID, "from", exec.Strategy, "to", string(next))
		s.bus.PublishNew(eventbus.EventExecutionEscalated, t.ID, string(next), map[string]string{
			"execution_id": nextExec.ID,
			"from":         exec.Strategy,
		})
		exec = nextExec
	}
}

func (s *Service) runAttempt(ctx context.Context, t *task.Task, exec *execution.Execution) (*strategy.Outcome, error) {
	strat, err := s.registry.Get(strategy.Type(exec.Strategy))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	exec.Status = execution.StatusRunning
	exec.StartedAt = &now
	if err := s.executions.Update(ctx, exec); err != nil {
		return nil, err
	}
	return strat.Execute(ctx, t)
}

func (s *Service) finalizeExecution(ctx context.Context, exec *execution.Execution, status execution.Status, errorMessage string, outcome *strategy.Outcome) error {
	now := time.Now()
	exec.Status = status
	exec.ErrorMessage = errorMessage
	exec.CompletedAt = &now
	if outcome != nil {
		exec.TokensUsed = outcome.TokensUsed
		exec.CostUSD = outcome.CostUSD
		if exec.Result == nil {
			exec.Result = &execution.Result{}
		}
		exec.Result.Artifact = outcome.Artifact
		exec.Result.Steps = outcome.Steps
	}
	return s.executions.Update(ctx, exec)
}

func (s *Service) finishTask(ctx context.Context, t *task.Task, status task.Status, event eventbus.EventType, payload, executionID string) {
	now := time.Now()
	t.CompletedAt = &now
	if err := s.transitionTask(ctx, t, status); err != nil {
		slog.Error("orchestrator: failed to finalize task", "task_id", t.ID, "error", err)
	}
	s.bus.PublishNew(event, t.ID, payload, map[string]string{"execution_id": executionID})
}

func (s *Service) transitionTask(ctx context.Context, t *task.Task, target task.Status) error {
	if !t.Status.CanTransitionTo(target) {
		return cerr.NewError(cerr.FailedPrecondition, "illegal transition "+string(t.Status)+" -> "+string(target), nil)
	}
	prev := t.Status
	t.Status = target
	t.UpdatedAt = time.Now()
	if err := s.tasks.Update(ctx, t); err != nil {
		t.Status = prev
		return err
	}
	return nil
}

// abortStart marks a task FAILED when its execution could not be launched
// after the lifecycle already left PENDING. Without this the task would be
// stuck in a status that is neither startable nor terminal.
func (s *Service) abortStart(ctx context.Context, t *task.Task) {
	now := time.Now()
	t.CompletedAt = &now
	if err := s.transitionTask(ctx, t, task.StatusFailed); err != nil {
		slog.Error("orchestrator: failed to mark task failed after aborted start", "task_id", t.ID, "error", err)
		return
	}
	s.bus.PublishNew(eventbus.EventTaskFailed, t.ID, "execution could not be started", nil)
}

func (s *Service) release(taskID string) {
	s.mu.Lock()
	delete(s.inflight, taskID)
	s.mu.Unlock()
}

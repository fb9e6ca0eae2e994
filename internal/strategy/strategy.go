// Package strategy implements the execution strategies a task can run under
// and the selector that picks between them.
package strategy

import (
	"context"

	"github.com/taskforge-ai/taskforge/internal/execution"
	"github.com/taskforge-ai/taskforge/internal/task"
	"github.com/taskforge-ai/taskforge/pkg/cerr"
)

// Type identifies an execution strategy. The declared order is the cost
// order: each successive strategy spends more tokens than the one before it.
type Type string

const (
	TypeSingleShot Type = "SINGLE_SHOT"
	TypeIterative  Type = "ITERATIVE"
	TypeMultiAgent Type = "MULTI_AGENT"
)

var costOrder = []Type{TypeSingleShot, TypeIterative, TypeMultiAgent}

func (t Type) Valid() bool {
	for _, v := range costOrder {
		if t == v {
			return true
		}
	}
	return false
}

// NextTier returns the next more capable strategy, or ("", false) when t is
// already the most capable one.
func (t Type) NextTier() (Type, bool) {
	for i, v := range costOrder[:len(costOrder)-1] {
		if t == v {
			return costOrder[i+1], true
		}
	}
	return "", false
}

// Outcome is the result of running a strategy to completion. A strategy that
// runs without infrastructure failure returns Succeeded=false with a
// FailureReason rather than an error; errors are reserved for faults that
// prevented the strategy from running at all.
type Outcome struct {
	Succeeded     bool
	FailureReason string
	Artifact      string
	TokensUsed    int
	CostUSD       float64
	Steps         []execution.AgentStep
	Diagnostics   []string
}

type Strategy interface {
	Type() Type
	Execute(ctx context.Context, t *task.Task) (*Outcome, error)
}

// Registry resolves strategy types to implementations.
type Registry struct {
	strategies map[Type]Strategy
}

func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[Type]Strategy, len(strategies))}
	for _, s := range strategies {
		r.strategies[s.Type()] = s
	}
	return r
}

func (r *Registry) Get(t Type) (Strategy, error) {
	s, ok := r.strategies[t]
	if !ok {
		return nil, cerr.NewError(cerr.Unimplemented, "no strategy registered for "+string(t), nil)
	}
	return s, nil
}

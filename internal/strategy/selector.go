package strategy

import (
	"fmt"

	"github.com/taskforge-ai/taskforge/internal/classifier"
	"github.com/taskforge-ai/taskforge/internal/execution"
	"github.com/taskforge-ai/taskforge/internal/task"
)

const (
	DecisionSourceOverride   = "override"
	DecisionSourceClassifier = "classifier"
	DecisionSourceDefault    = "default"
)

var complexityStrategy = map[task.Complexity]Type{
	task.ComplexitySimple:  TypeSingleShot,
	task.ComplexityMedium:  TypeIterative,
	task.ComplexityComplex: TypeMultiAgent,
}

// Selector decides which strategy a task runs under. Selection never fails:
// an explicit override wins outright, a confident classifier hint maps
// through the complexity table, and everything else falls back to the
// configured default.
type Selector struct {
	defaultStrategy     Type
	confidenceThreshold float64
}

func NewSelector(defaultStrategy Type, confidenceThreshold float64) *Selector {
	if !defaultStrategy.Valid() {
		defaultStrategy = TypeIterative
	}
	return &Selector{defaultStrategy: defaultStrategy, confidenceThreshold: confidenceThreshold}
}

// Select picks a strategy for the task. hint is the classifier result and may
// be nil when classification was unavailable; override may be empty.
func (s *Selector) Select(override Type, hint *classifier.Result) execution.Decision {
	if override != "" && override.Valid() {
		return execution.Decision{
			Strategy:  string(override),
			Source:    DecisionSourceOverride,
			Rationale: "strategy pinned by request",
		}
	}

	if hint != nil && hint.Confidence >= s.confidenceThreshold {
		if st, ok := complexityStrategy[hint.Complexity]; ok {
			return execution.Decision{
				Strategy:   string(st),
				Source:     DecisionSourceClassifier,
				Rationale:  fmt.Sprintf("classified as %s/%s: %s", hint.TaskType, hint.Complexity, hint.Reasoning),
				Confidence: hint.Confidence,
			}
		}
	}

	rationale := "classifier unavailable"
	switch {
	case hint != nil && hint.Confidence < s.confidenceThreshold:
		rationale = fmt.Sprintf("classifier confidence %.2f below threshold %.2f", hint.Confidence, s.confidenceThreshold)
	case hint != nil:
		rationale = fmt.Sprintf("unrecognized complexity %q", hint.Complexity)
	}
	return execution.Decision{
		Strategy:  string(s.defaultStrategy),
		Source:    DecisionSourceDefault,
		Rationale: rationale,
	}
}

package task

import "time"

// Status is the lifecycle state of a Task. Transitions are monotonic:
// PENDING → CLASSIFYING → IN_PROGRESS → {COMPLETED, FAILED, CANCELLED}.
// A terminal status never transitions again.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusClassifying Status = "CLASSIFYING"
	StatusInProgress  Status = "IN_PROGRESS"
	StatusCompleted   Status = "COMPLETED"
	StatusFailed      Status = "FAILED"
	StatusCancelled   Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusPending:     {StatusClassifying, StatusCancelled},
	StatusClassifying: {StatusInProgress, StatusFailed, StatusCancelled},
	StatusInProgress:  {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted:   {},
	StatusFailed:      {},
	StatusCancelled:   {},
}

// CanTransitionTo reports whether moving from s to target is a legal
// lifecycle transition.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s is a final lifecycle state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Type categorizes the kind of coding work a task represents.
type Type string

const (
	TypeBugFix        Type = "bug_fix"
	TypeFeature       Type = "feature"
	TypeRefactor      Type = "refactor"
	TypeDocumentation Type = "documentation"
	TypeTest          Type = "test"
	TypeDeployment    Type = "deployment"
)

// Complexity estimates the scale of a task.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

type Task struct {
	ID          string            `yaml:"id"`
	OwnerID     string            `yaml:"owner_id"`
	Description string            `yaml:"description"`
	Type        Type              `yaml:"type,omitempty"`
	Complexity  Complexity        `yaml:"complexity,omitempty"`
	Status      Status            `yaml:"status"`
	Metadata    map[string]string `yaml:"metadata,omitempty"`
	CreatedAt   time.Time         `yaml:"created_at"`
	StartedAt   *time.Time        `yaml:"started_at,omitempty"`
	CompletedAt *time.Time        `yaml:"completed_at,omitempty"`
	UpdatedAt   time.Time         `yaml:"updated_at"`
}

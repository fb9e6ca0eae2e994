package execution

import "time"

// Status is the lifecycle state of an Execution:
// PENDING → RUNNING → {COMPLETED, FAILED, CANCELLED}.
// The terminal status is set exactly once; a finished execution row is never
// mutated afterwards.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// AgentStep records one agent invocation inside a multi-agent execution.
// Steps are folded into the execution result payload, not persisted on their
// own.
type AgentStep struct {
	Role       string `yaml:"role" json:"role"`
	Input      string `yaml:"input" json:"input"`
	Output     string `yaml:"output" json:"output"`
	Passed     bool   `yaml:"passed" json:"passed"`
	DurationMS int64  `yaml:"duration_ms" json:"duration_ms"`
}

// Decision records how the execution strategy was chosen, for auditability.
type Decision struct {
	Strategy   string  `yaml:"strategy" json:"strategy"`
	Source     string  `yaml:"source" json:"source"` // override | classifier | default
	Rationale  string  `yaml:"rationale" json:"rationale"`
	Confidence float64 `yaml:"confidence,omitempty" json:"confidence,omitempty"`
}

// Result is the payload attached to a finished execution. Partial artifacts
// from completed stages are retained even when the execution failed.
type Result struct {
	Artifact string      `yaml:"artifact,omitempty" json:"artifact,omitempty"`
	Steps    []AgentStep `yaml:"steps,omitempty" json:"steps,omitempty"`
	Decision *Decision   `yaml:"decision,omitempty" json:"decision,omitempty"`
}

type Execution struct {
	ID           string     `yaml:"id"`
	TaskID       string     `yaml:"task_id"`
	Strategy     string     `yaml:"strategy"`
	Model        string     `yaml:"model"`
	Attempt      int        `yaml:"attempt"`
	Status       Status     `yaml:"status"`
	ErrorMessage string     `yaml:"error_message,omitempty"`
	TokensUsed   int        `yaml:"tokens_used"`
	CostUSD      float64    `yaml:"cost_usd"`
	Result       *Result    `yaml:"result,omitempty"`
	CreatedAt    time.Time  `yaml:"created_at"`
	StartedAt    *time.Time `yaml:"started_at,omitempty"`
	CompletedAt  *time.Time `yaml:"completed_at,omitempty"`
}

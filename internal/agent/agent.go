// Package agent provides the role-specific capability providers used by the
// multi-agent execution pipeline. Each role is a stateless wrapper around a
// language-model client with a role-specific prompt contract.
package agent

import "github.com/taskforge-ai/taskforge/internal/llm"

type Role string

const (
	RolePlanner  Role = "planner"
	RoleCoder    Role = "coder"
	RoleReviewer Role = "reviewer"
	RoleTester   Role = "tester"
)

// Result is the raw outcome of one agent invocation.
type Result struct {
	Content string
	Usage   llm.Usage
}

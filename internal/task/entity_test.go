package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pending to classifying", StatusPending, StatusClassifying, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"pending skips classifying", StatusPending, StatusInProgress, false},
		{"classifying to in_progress", StatusClassifying, StatusInProgress, true},
		{"classifying to failed", StatusClassifying, StatusFailed, true},
		{"in_progress to completed", StatusInProgress, StatusCompleted, true},
		{"in_progress to failed", StatusInProgress, StatusFailed, true},
		{"in_progress to cancelled", StatusInProgress, StatusCancelled, true},
		{"in_progress back to pending", StatusInProgress, StatusPending, false},
		{"completed is terminal", StatusCompleted, StatusFailed, false},
		{"failed is terminal", StatusFailed, StatusPending, false},
		{"cancelled is terminal", StatusCancelled, StatusInProgress, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusClassifying.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

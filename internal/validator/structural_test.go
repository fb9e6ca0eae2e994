package validator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diagnosticCodes(r *Report) []string {
	codes := make([]string, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		codes[i] = d.Code
	}
	return codes
}

func TestStructuralValidArtifact(t *testing.T) {
	v := NewStructural()
	report, err := v.Validate(context.Background(), `
func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
`)
	require.NoError(t, err)
	assert.True(t, report.Passed)
	assert.Empty(t, report.Diagnostics)
}

func TestStructuralEmptyArtifact(t *testing.T) {
	v := NewStructural()
	for _, artifact := range []string{"", "   \n\t"} {
		report, err := v.Validate(context.Background(), artifact)
		require.NoError(t, err)
		assert.False(t, report.Passed)
		assert.Contains(t, diagnosticCodes(report), "empty")
	}
}

func TestStructuralUnbalancedBrackets(t *testing.T) {
	v := NewStructural()
	tests := []struct {
		name     string
		artifact string
	}{
		{"unclosed brace", "func main() {"},
		{"stray closer", "func main() }"},
		{"unclosed paren", "sum(1, 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := v.Validate(context.Background(), tt.artifact)
			require.NoError(t, err)
			assert.False(t, report.Passed)
			assert.Contains(t, diagnosticCodes(report), "unbalanced_brackets")
		})
	}
}

func TestStructuralBracketsInsideLiteralsIgnored(t *testing.T) {
	v := NewStructural()
	tests := []struct {
		name     string
		artifact string
	}{
		{"string literal", `msg := "unmatched ) and } inside"`},
		{"char literal", `c := '('`},
		{"line comment", "x := 1 // see handler(\ny := 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := v.Validate(context.Background(), tt.artifact)
			require.NoError(t, err)
			assert.True(t, report.Passed, "diagnostics: %v", report.Diagnostics)
		})
	}
}

func TestStructuralConflictMarker(t *testing.T) {
	v := NewStructural()
	report, err := v.Validate(context.Background(), "x := 1\n<<<<<<< HEAD\ny := 2\n")
	require.NoError(t, err)
	assert.False(t, report.Passed)
	assert.Contains(t, diagnosticCodes(report), "conflict_marker")
}

func TestStructuralTruncationHeuristic(t *testing.T) {
	v := NewStructural()
	report, err := v.Validate(context.Background(), "func a() {}\n// ... rest of the file unchanged\n")
	require.NoError(t, err)
	assert.False(t, report.Passed)
	assert.Contains(t, diagnosticCodes(report), "truncated")
}

func TestStructuralSizeCap(t *testing.T) {
	v := &Structural{MaxBytes: 64}
	report, err := v.Validate(context.Background(), strings.Repeat("a", 65))
	require.NoError(t, err)
	assert.False(t, report.Passed)
	assert.Contains(t, diagnosticCodes(report), "too_large")
}

func TestStructuralCancelledContext(t *testing.T) {
	v := NewStructural()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := v.Validate(ctx, "x := 1")
	assert.ErrorIs(t, err, context.Canceled)
}

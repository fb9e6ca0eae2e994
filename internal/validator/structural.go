package validator

import (
	"context"
	"fmt"
	"strings"
)

const defaultMaxBytes = 1 << 20

// Structural performs fast, dependency-free checks on a candidate artifact:
// it must be non-empty, within the size cap, free of merge-conflict and
// truncation markers, and have balanced brackets outside of string literals.
type Structural struct {
	// MaxBytes caps the artifact size; 0 means the default of 1 MiB.
	MaxBytes int
}

func NewStructural() *Structural {
	return &Structural{}
}

func (v *Structural) Validate(ctx context.Context, artifact string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var diags []Diagnostic

	if strings.TrimSpace(artifact) == "" {
		diags = append(diags, Diagnostic{Code: "empty", Message: "artifact is empty"})
		return &Report{Passed: false, Diagnostics: diags}, nil
	}

	maxBytes := v.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	if len(artifact) > maxBytes {
		diags = append(diags, Diagnostic{
			Code:    "too_large",
			Message: fmt.Sprintf("artifact is %d bytes, cap is %d", len(artifact), maxBytes),
		})
	}

	for _, marker := range []string{"<<<<<<<", ">>>>>>>", "======="} {
		if strings.Contains(artifact, marker) {
			diags = append(diags, Diagnostic{
				Code:    "conflict_marker",
				Message: fmt.Sprintf("artifact contains merge conflict marker %q", marker),
			})
			break
		}
	}

	if strings.Contains(artifact, "...") && strings.Contains(strings.ToLower(artifact), "rest of") {
		diags = append(diags, Diagnostic{Code: "truncated", Message: "artifact appears truncated (elided content)"})
	}

	if diag := checkBrackets(artifact); diag != nil {
		diags = append(diags, *diag)
	}

	return &Report{Passed: len(diags) == 0, Diagnostics: diags}, nil
}

func checkBrackets(s string) *Diagnostic {
	var depthParen, depthBrace, depthBracket int
	var inString, inChar, inLineComment bool
	var prev rune

	for _, r := range s {
		switch {
		case inLineComment:
			if r == '\n' {
				inLineComment = false
			}
		case inString:
			if r == '"' && prev != '\\' {
				inString = false
			}
		case inChar:
			if r == '\'' && prev != '\\' {
				inChar = false
			}
		default:
			switch r {
			case '"':
				inString = true
			case '\'':
				inChar = true
			case '/':
				if prev == '/' {
					inLineComment = true
				}
			case '(':
				depthParen++
			case ')':
				depthParen--
			case '{':
				depthBrace++
			case '}':
				depthBrace--
			case '[':
				depthBracket++
			case ']':
				depthBracket--
			}
		}
		if depthParen < 0 || depthBrace < 0 || depthBracket < 0 {
			return &Diagnostic{Code: "unbalanced_brackets", Message: "closing bracket without matching opener"}
		}
		prev = r
	}

	if depthParen != 0 || depthBrace != 0 || depthBracket != 0 {
		return &Diagnostic{Code: "unbalanced_brackets", Message: "unclosed bracket at end of artifact"}
	}
	return nil
}

package classifier

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/taskforge-ai/taskforge/internal/task"
)

// HeuristicClassifier classifies tasks by keyword matching. It is the local
// fallback when no remote classifier service is configured, and fast enough
// to sit on the request path without a resilience wrapper.
type HeuristicClassifier struct {
	keywords   map[task.Type][]*regexp.Regexp
	complexity map[task.Complexity][]*regexp.Regexp
}

var keywordPatterns = map[task.Type][]string{
	task.TypeBugFix: {
		`\bbug\b`, `\berror\b`, `\bfix\b`, `\bcrash\b`,
		`\bissue\b`, `\bfail(s|ing|ed)?\b`, `\bbroken\b`,
		`\bdefect\b`, `\bproblem\b`, `\bincorrect\b`,
	},
	task.TypeFeature: {
		`\badd\b`, `\bimplement\b`, `\bcreate\b`, `\bnew\b`,
		`\bfeature\b`, `\benhance\b`, `\bsupport\b`,
		`\bintroduce\b`, `\bextend\b`, `\bbuild\b`,
	},
	task.TypeRefactor: {
		`\brefactor\b`, `\bclean\b`, `\boptimize\b`,
		`\bimprove\b`, `\breorganize\b`, `\brestructure\b`,
		`\bsimplify\b`, `\bmodernize\b`, `\bupgrade\b`,
	},
	task.TypeTest: {
		`\btest\b`, `\bunit test\b`, `\bintegration test\b`,
		`\bcoverage\b`, `\bspec\b`, `\bvalidate\b`,
		`\bverify\b`, `\bmock\b`, `\bassertion\b`,
	},
	task.TypeDocumentation: {
		`\bdoc(s|umentation)?\b`, `\breadme\b`, `\bcomment\b`,
		`\bexplain\b`, `\bdescribe\b`, `\bguide\b`,
		`\btutorial\b`, `\bexample\b`, `\bannotate\b`,
	},
	task.TypeDeployment: {
		`\bdeploy\b`, `\brelease\b`, `\bci/cd\b`, `\bpipeline\b`,
		`\bdocker\b`, `\bkubernetes\b`, `\bhelm\b`,
		`\bcontainer\b`, `\binfrastructure\b`,
	},
}

var complexityPatterns = map[task.Complexity][]string{
	task.ComplexitySimple: {
		`\bsmall\b`, `\bquick\b`, `\bminor\b`, `\btrivial\b`,
		`\btypo\b`, `\bone[ -]line\b`, `\bsimple\b`,
	},
	task.ComplexityComplex: {
		`\bcomplex\b`, `\bmajor\b`, `\barchitecture\b`,
		`\brewrite\b`, `\bmigration\b`, `\brefactor all\b`,
		`\blarge[ -]scale\b`, `\bentire\b`, `\bsystem[ -]wide\b`,
	},
}

func NewHeuristicClassifier() *HeuristicClassifier {
	c := &HeuristicClassifier{
		keywords:   make(map[task.Type][]*regexp.Regexp, len(keywordPatterns)),
		complexity: make(map[task.Complexity][]*regexp.Regexp, len(complexityPatterns)),
	}
	for taskType, patterns := range keywordPatterns {
		for _, p := range patterns {
			c.keywords[taskType] = append(c.keywords[taskType], regexp.MustCompile(`(?i)`+p))
		}
	}
	for level, patterns := range complexityPatterns {
		for _, p := range patterns {
			c.complexity[level] = append(c.complexity[level], regexp.MustCompile(`(?i)`+p))
		}
	}
	return c
}

func (c *HeuristicClassifier) Classify(_ context.Context, req *Request) (*Result, error) {
	description := req.TaskDescription

	matchCounts := make(map[task.Type]int)
	for taskType, patterns := range c.keywords {
		count := 0
		for _, p := range patterns {
			if p.MatchString(description) {
				count++
			}
		}
		if count > 0 {
			matchCounts[taskType] = count
		}
	}

	complexity := c.classifyComplexity(description)

	// No matches: default to feature with low confidence.
	if len(matchCounts) == 0 {
		return &Result{
			TaskType:          task.TypeFeature,
			Complexity:        complexity,
			Confidence:        0.3,
			Reasoning:         "no keyword matches found, defaulting to feature",
			SuggestedStrategy: suggestStrategy(complexity),
			EstimatedTokens:   estimateTokens(complexity),
			ClassifierUsed:    "heuristic",
		}, nil
	}

	var predicted task.Type
	maxMatches, totalMatches := 0, 0
	for taskType, count := range matchCounts {
		totalMatches += count
		// Break count ties deterministically by type name.
		if count > maxMatches || (count == maxMatches && taskType < predicted) {
			predicted = taskType
			maxMatches = count
		}
	}

	confidence := float64(maxMatches) / float64(totalMatches)
	if len(matchCounts) == 1 {
		confidence = min(0.95, confidence+0.2)
	} else {
		confidence = min(0.85, confidence)
	}

	var matched []string
	for _, p := range c.keywords[predicted] {
		if p.MatchString(description) {
			matched = append(matched, p.String())
		}
	}
	if len(matched) > 3 {
		matched = matched[:3]
	}

	return &Result{
		TaskType:          predicted,
		Complexity:        complexity,
		Confidence:        confidence,
		Reasoning:         fmt.Sprintf("matched %d keywords for %s: %s", maxMatches, predicted, strings.Join(matched, ", ")),
		SuggestedStrategy: suggestStrategy(complexity),
		EstimatedTokens:   estimateTokens(complexity),
		ClassifierUsed:    "heuristic",
	}, nil
}

func (c *HeuristicClassifier) classifyComplexity(description string) task.Complexity {
	simpleMatches, complexMatches := 0, 0
	for _, p := range c.complexity[task.ComplexitySimple] {
		if p.MatchString(description) {
			simpleMatches++
		}
	}
	for _, p := range c.complexity[task.ComplexityComplex] {
		if p.MatchString(description) {
			complexMatches++
		}
	}

	if complexMatches > 0 {
		return task.ComplexityComplex
	}
	if simpleMatches > 0 {
		return task.ComplexitySimple
	}

	// Fall back to description length.
	wordCount := len(strings.Fields(description))
	switch {
	case wordCount < 20:
		return task.ComplexitySimple
	case wordCount > 100:
		return task.ComplexityComplex
	default:
		return task.ComplexityMedium
	}
}

func suggestStrategy(complexity task.Complexity) string {
	switch complexity {
	case task.ComplexitySimple:
		return "SINGLE_SHOT"
	case task.ComplexityComplex:
		return "MULTI_AGENT"
	default:
		return "ITERATIVE"
	}
}

func estimateTokens(complexity task.Complexity) int {
	switch complexity {
	case task.ComplexitySimple:
		return 2000
	case task.ComplexityComplex:
		return 20000
	default:
		return 6000
	}
}

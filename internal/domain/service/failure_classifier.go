package service

import (
	"fmt"
	"regexp"

	"github.com/YoshitsuguKoike/evolve/internal/domain/model/script"
)

// DefaultErrorPatterns are scanned for in captured output. They are
// case-sensitive but accept a capitalized first letter.
var DefaultErrorPatterns = []string{"[Ee]rror", "[Ii]nvalid"}

// FailureClassifier decides whether a finished attempt succeeded
type FailureClassifier interface {
	Classify(exitCode int, output string) script.Outcome
}

// ExitCodeClassifier only looks at the exit status
type ExitCodeClassifier struct{}

// Classify returns success for exit code zero
func (ExitCodeClassifier) Classify(exitCode int, _ string) script.Outcome {
	if exitCode == 0 {
		return script.OutcomeSuccess
	}
	return script.OutcomeFailure
}

// PatternClassifier combines the exit status with a regex scan of the output.
// A zero exit with output matching any pattern still counts as a failure.
type PatternClassifier struct {
	patterns []*regexp.Regexp
}

// NewPatternClassifier compiles the patterns. Matching is case-sensitive
// unless ignoreCase is set.
func NewPatternClassifier(patterns []string, ignoreCase bool) (*PatternClassifier, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		expr := p
		if ignoreCase {
			expr = "(?i)" + p
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid error pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &PatternClassifier{patterns: compiled}, nil
}

// Classify implements FailureClassifier
func (c *PatternClassifier) Classify(exitCode int, output string) script.Outcome {
	if exitCode != 0 || c.Matches(output) {
		return script.OutcomeFailure
	}
	return script.OutcomeSuccess
}

// Matches reports whether output contains an error signature
func (c *PatternClassifier) Matches(output string) bool {
	for _, re := range c.patterns {
		if re.MatchString(output) {
			return true
		}
	}
	return false
}

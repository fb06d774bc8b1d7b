// Package md001headinglevels implements the MD001 rule: heading levels
// should only increase by one level at a time.
package md001headinglevels

import (
	"fmt"

	"github.com/rumdl-go/rumdl/internal/rules"
)

// Rule implements MD001.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             "MD001",
		Name:             "Heading levels should only increment by one level at a time",
		Description:      "Flags a heading that skips one or more levels from the preceding heading",
		DocURL:           "https://github.com/rumdl-go/rumdl/blob/main/docs/rules/MD001.md",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "headings",
		EnabledByDefault: true,
		Aliases:          []string{"heading-increment"},
	}
}

// Check runs the rule.
func (r *Rule) Check(input rules.LintInput) []rules.Violation {
	headings := input.Context.Headings()
	buf := input.Context.Buffer()

	var violations []rules.Violation
	prevLevel := 0
	for _, h := range headings {
		if prevLevel != 0 && h.Level > prevLevel+1 {
			violations = append(violations, rules.NewViolation(
				rules.NewLocationFromByteRange(input.File, buf, buf.LineStart(h.Line), buf.LineEnd(h.Line)),
				r.Metadata().Code,
				fmt.Sprintf("heading level jumps from %d to %d", prevLevel, h.Level),
				r.Metadata().DefaultSeverity,
			))
		}
		prevLevel = h.Level
	}
	return violations
}

// New creates a new MD001 rule instance.
func New() *Rule { return &Rule{} }

func init() { rules.Register(New()) }

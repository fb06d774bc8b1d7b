// Package md047filenewline implements MD047: files should end with exactly
// one trailing newline.
package md047filenewline

import (
	"github.com/rumdl-go/rumdl/internal/mdcontext"
	"github.com/rumdl-go/rumdl/internal/rules"
)

// Rule implements MD047.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             "MD047",
		Name:             "Files should end with a single newline character",
		Description:      "Flags a file missing its trailing newline, or ending with more than one",
		DocURL:           "https://github.com/rumdl-go/rumdl/blob/main/docs/rules/MD047.md",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "whitespace",
		EnabledByDefault: true,
		Aliases:          []string{"single-trailing-newline"},
	}
}

// Check runs the rule.
func (r *Rule) Check(input rules.LintInput) []rules.Violation {
	buf := input.Context.Buffer()
	content := buf.Bytes()
	if len(content) == 0 {
		return nil
	}

	trailing := 0
	for trailing < len(content) && content[len(content)-1-trailing] == '\n' {
		trailing++
	}

	if trailing == 1 {
		return nil
	}

	msg := "file should end with exactly one newline"
	end := len(content)
	start := end - trailing
	if trailing == 0 {
		msg = "file is missing a trailing newline"
		start = end
	}

	return []rules.Violation{
		rules.NewViolation(
			rules.NewLocationFromByteRange(input.File, buf, start, end),
			r.Metadata().Code,
			msg,
			r.Metadata().DefaultSeverity,
		).WithSuggestedFix(&rules.SuggestedFix{
			Description: "normalize trailing newline",
			Safety:      rules.FixSafe,
			Edits: []rules.TextEdit{{
				Range:    mdcontext.Range{Start: start, End: end},
				Location: rules.NewLocationFromByteRange(input.File, buf, start, end),
				NewText:  "\n",
			}},
		}),
	}
}

// Fix implements FixableRule.
func (r *Rule) Fix(input rules.LintInput, v rules.Violation) []rules.TextEdit {
	if v.SuggestedFix == nil {
		return nil
	}
	return v.SuggestedFix.Edits
}

// New creates a new MD047 rule instance.
func New() *Rule { return &Rule{} }

func init() { rules.Register(New()) }

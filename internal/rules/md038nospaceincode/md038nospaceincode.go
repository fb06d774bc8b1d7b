// Package md038nospaceincode implements MD038: code spans should not have
// leading or trailing spaces inside the backticks.
package md038nospaceincode

import (
	"github.com/rumdl-go/rumdl/internal/buffer"
	"github.com/rumdl-go/rumdl/internal/mdcontext"
	"github.com/rumdl-go/rumdl/internal/rules"
)

// Rule implements MD038.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             "MD038",
		Name:             "Spaces inside code span elements",
		Description:      "Flags a code span with unnecessary leading or trailing whitespace",
		DocURL:           "https://github.com/rumdl-go/rumdl/blob/main/docs/rules/MD038.md",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "code",
		EnabledByDefault: true,
		Aliases:          []string{"no-space-in-code"},
	}
}

// Check runs the rule.
func (r *Rule) Check(input rules.LintInput) []rules.Violation {
	if !input.Context.HasByte('`') {
		return nil
	}
	buf := input.Context.Buffer()

	var violations []rules.Violation
	for _, span := range input.Context.CodeSpans().All() {
		content := buf.Slice(span.Start, span.End)
		backticks := countLeadingBackticks(content)
		inner := content[backticks : len(content)-backticks]
		if len(inner) == 0 {
			continue
		}
		leading := inner[0] == ' ' || inner[0] == '\t'
		trailing := len(inner) > 1 && (inner[len(inner)-1] == ' ' || inner[len(inner)-1] == '\t')
		// A single space on both sides is CommonMark's documented escape for
		// a code span whose content itself starts or ends with a backtick;
		// only flag asymmetric or excessive padding.
		if leading && trailing && len(trimSpace(inner)) > 0 {
			continue
		}
		if !leading && !trailing {
			continue
		}
		violations = append(violations, rules.NewViolation(
			rules.NewLocationFromByteRange(input.File, buf, span.Start, span.End),
			r.Metadata().Code,
			"code span has unnecessary leading or trailing whitespace",
			r.Metadata().DefaultSeverity,
		).WithSuggestedFix(&rules.SuggestedFix{
			Description: "trim whitespace inside code span",
			Safety:      rules.FixSafe,
			Edits:       trimEdit(input.File, buf, span, content, backticks),
		}))
	}
	return violations
}

func countLeadingBackticks(content []byte) int {
	n := 0
	for n < len(content) && content[n] == '`' {
		n++
	}
	return n
}

func trimSpace(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && (b[start] == ' ' || b[start] == '\t') {
		start++
	}
	for end > start && (b[end-1] == ' ' || b[end-1] == '\t') {
		end--
	}
	return b[start:end]
}

func trimEdit(file string, buf *buffer.Buffer, span mdcontext.Range, content []byte, backticks int) []rules.TextEdit {
	inner := content[backticks : len(content)-backticks]
	trimmed := trimSpace(inner)
	delimiter := content[:backticks]
	newText := string(delimiter) + string(trimmed) + string(delimiter)
	return []rules.TextEdit{{
		Range:    span,
		Location: rules.NewLocationFromByteRange(file, buf, span.Start, span.End),
		NewText:  newText,
	}}
}

// Fix implements FixableRule.
func (r *Rule) Fix(input rules.LintInput, v rules.Violation) []rules.TextEdit {
	if v.SuggestedFix == nil {
		return nil
	}
	return v.SuggestedFix.Edits
}

// New creates a new MD038 rule instance.
func New() *Rule { return &Rule{} }

func init() { rules.Register(New()) }

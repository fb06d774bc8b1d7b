// Package md034barelinks implements MD034: bare URLs should be wrapped in
// angle brackets or proper link syntax.
package md034barelinks

import (
	"regexp"

	"github.com/rumdl-go/rumdl/internal/mdcontext"
	"github.com/rumdl-go/rumdl/internal/rules"
)

var bareURLPattern = regexp.MustCompile(`\bhttps?://[^\s<>()\[\]]+`)

// Rule implements MD034.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             "MD034",
		Name:             "Bare URL used",
		Description:      "Flags a URL that is not wrapped in angle brackets or markdown link syntax",
		DocURL:           "https://github.com/rumdl-go/rumdl/blob/main/docs/rules/MD034.md",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "links",
		EnabledByDefault: true,
		Aliases:          []string{"no-bare-urls"},
	}
}

// Check runs the rule.
func (r *Rule) Check(input rules.LintInput) []rules.Violation {
	if !input.Context.HasByte(':') {
		return nil
	}
	buf := input.Context.Buffer()
	codeSpans := input.Context.CodeSpans()

	var violations []rules.Violation
	for i, li := range input.Context.Lines() {
		if li.InFencedCode || li.InIndentedCode || li.InFrontMatter {
			continue
		}
		line := buf.Line(i)
		for _, m := range bareURLPattern.FindAllIndex(line, -1) {
			start := li.Range.Start + m[0]
			end := li.Range.Start + m[1]
			if codeSpans.Contains(start) {
				continue
			}
			if wrappedInAngles(line, m[0], m[1]) || wrappedInLinkSyntax(line, m[0], m[1]) {
				continue
			}
			violations = append(violations, rules.NewViolation(
				rules.NewLocationFromByteRange(input.File, buf, start, end),
				r.Metadata().Code,
				"bare URL should be wrapped in angle brackets or link syntax",
				r.Metadata().DefaultSeverity,
			).WithSuggestedFix(&rules.SuggestedFix{
				Description: "wrap URL in angle brackets",
				Safety:      rules.FixSafe,
				Edits: []rules.TextEdit{{
					Range:    mdcontext.Range{Start: start, End: end},
					Location: rules.NewLocationFromByteRange(input.File, buf, start, end),
					NewText:  "<" + string(line[m[0]:m[1]]) + ">",
				}},
			}))
		}
	}
	return violations
}

func wrappedInAngles(line []byte, start, end int) bool {
	return start > 0 && end < len(line) && line[start-1] == '<' && line[end] == '>'
}

// wrappedInLinkSyntax reports whether the match sits inside an inline link
// destination, e.g. "[text](https://example.com)".
func wrappedInLinkSyntax(line []byte, start, end int) bool {
	return start > 0 && end < len(line) && line[start-1] == '(' && line[end] == ')'
}

// Fix implements FixableRule.
func (r *Rule) Fix(input rules.LintInput, v rules.Violation) []rules.TextEdit {
	if v.SuggestedFix == nil {
		return nil
	}
	return v.SuggestedFix.Edits
}

// New creates a new MD034 rule instance.
func New() *Rule { return &Rule{} }

func init() { rules.Register(New()) }

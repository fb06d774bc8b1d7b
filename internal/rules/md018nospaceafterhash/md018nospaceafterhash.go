// Package md018nospaceafterhash implements MD018: ATX-style heading markers
// must be followed by a space, or CommonMark will not treat them as a
// heading at all.
package md018nospaceafterhash

import (
	"github.com/rumdl-go/rumdl/internal/buffer"
	"github.com/rumdl-go/rumdl/internal/mdcontext"
	"github.com/rumdl-go/rumdl/internal/rules"
)

// Rule implements MD018.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             "MD018",
		Name:             "No space after hash on atx style heading",
		Description:      "Flags '#'-prefixed lines missing the required space, so they render as plain text instead of a heading",
		DocURL:           "https://github.com/rumdl-go/rumdl/blob/main/docs/rules/MD018.md",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "headings",
		EnabledByDefault: true,
		Aliases:          []string{"no-missing-space-atx"},
	}
}

// Check runs the rule.
func (r *Rule) Check(input rules.LintInput) []rules.Violation {
	if !input.Context.HasByte('#') {
		return nil
	}
	buf := input.Context.Buffer()

	var violations []rules.Violation
	for i, li := range input.Context.Lines() {
		if li.InFencedCode || li.InIndentedCode || li.InHTMLBlock || li.IsHeadingATX {
			continue
		}
		line := buf.Line(i)
		if !looksLikeMalformedATX(line) {
			continue
		}
		violations = append(violations, rules.NewViolation(
			rules.NewLocationFromByteRange(input.File, buf, li.Range.Start, li.Range.End),
			r.Metadata().Code,
			"no space after '#' in heading marker",
			r.Metadata().DefaultSeverity,
		).WithSuggestedFix(&rules.SuggestedFix{
			Description: "insert a space after the heading marker",
			Safety:      rules.FixSafe,
			Edits:       insertSpaceEdit(input.File, buf, line, li.Range.Start),
		}))
	}
	return violations
}

// looksLikeMalformedATX reports whether line starts with 1-6 '#' characters
// immediately followed by a non-space, non-'#' byte (and isn't a closing
// ATX sequence or a pure run of hashes).
func looksLikeMalformedATX(line []byte) bool {
	n := 0
	for n < len(line) && n < 6 && line[n] == '#' {
		n++
	}
	if n == 0 || n >= len(line) {
		return false
	}
	next := line[n]
	return next != ' ' && next != '\t' && next != '#'
}

func insertSpaceEdit(file string, buf *buffer.Buffer, line []byte, lineStart int) []rules.TextEdit {
	n := 0
	for n < len(line) && n < 6 && line[n] == '#' {
		n++
	}
	off := lineStart + n
	return []rules.TextEdit{{
		Range:    mdcontext.Range{Start: off, End: off},
		Location: rules.NewLocationFromByteRange(file, buf, off, off),
		NewText:  " ",
	}}
}

// Fix implements FixableRule.
func (r *Rule) Fix(input rules.LintInput, v rules.Violation) []rules.TextEdit {
	if v.SuggestedFix == nil {
		return nil
	}
	return v.SuggestedFix.Edits
}

// New creates a new MD018 rule instance.
func New() *Rule { return &Rule{} }

func init() { rules.Register(New()) }

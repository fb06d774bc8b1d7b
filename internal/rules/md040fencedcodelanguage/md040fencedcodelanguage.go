// Package md040fencedcodelanguage implements MD040: fenced code blocks
// should declare a language for syntax highlighting.
package md040fencedcodelanguage

import (
	"github.com/rumdl-go/rumdl/internal/rules"
)

// Rule implements MD040.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             "MD040",
		Name:             "Fenced code blocks should have a language specified",
		Description:      "Flags a fenced code block whose opening fence has no language info string",
		DocURL:           "https://github.com/rumdl-go/rumdl/blob/main/docs/rules/MD040.md",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "code",
		EnabledByDefault: true,
		Aliases:          []string{"fenced-code-language"},
	}
}

// Check runs the rule.
func (r *Rule) Check(input rules.LintInput) []rules.Violation {
	buf := input.Context.Buffer()

	var violations []rules.Violation
	for _, span := range input.Context.FencedCodeRanges().All() {
		line := buf.LineAt(span.Start)
		text := buf.Line(line)
		info := fenceInfoString(text)
		if info != "" {
			continue
		}
		violations = append(violations, rules.NewViolation(
			rules.NewLocationFromByteRange(input.File, buf, buf.LineStart(line), buf.LineEnd(line)),
			r.Metadata().Code,
			"fenced code block has no language specified",
			r.Metadata().DefaultSeverity,
		))
	}
	return violations
}

// fenceInfoString extracts the info string following a fence's opening
// run of backticks or tildes, trimmed of surrounding whitespace.
func fenceInfoString(line []byte) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	if i >= len(line) || (line[i] != '`' && line[i] != '~') {
		return ""
	}
	fenceChar := line[i]
	for i < len(line) && line[i] == fenceChar {
		i++
	}
	start := i
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	start = i
	end := len(line)
	for end > start && (line[end-1] == ' ' || line[end-1] == '\t' || line[end-1] == '\r') {
		end--
	}
	return string(line[start:end])
}

// New creates a new MD040 rule instance.
func New() *Rule { return &Rule{} }

func init() { rules.Register(New()) }

// Package fencedshellsyntax parses fenced code blocks tagged as shell
// script languages and flags syntax errors, catching broken example
// commands before a reader copies and runs them.
package fencedshellsyntax

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/rumdl-go/rumdl/internal/rules"
)

var shellLanguages = map[string]syntax.LangVariant{
	"sh":      syntax.LangPOSIX,
	"posix":   syntax.LangPOSIX,
	"bash":    syntax.LangBash,
	"shell":   syntax.LangBash,
	"zsh":     syntax.LangBash,
	"console": syntax.LangBash,
	"mksh":    syntax.LangMirBSDKorn,
}

// Rule implements shell syntax checking for fenced code blocks.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             "fenced-shell-syntax",
		Name:             "Fenced shell script should parse",
		Description:      "Flags a fenced shell code block that fails to parse as valid shell syntax",
		DocURL:           "https://github.com/rumdl-go/rumdl/blob/main/docs/rules/fenced-shell-syntax.md",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "code",
		EnabledByDefault: true,
		IsExperimental:   true,
	}
}

// Check runs the rule.
func (r *Rule) Check(input rules.LintInput) []rules.Violation {
	buf := input.Context.Buffer()

	var violations []rules.Violation
	for _, span := range input.Context.FencedCodeRanges().All() {
		line := buf.LineAt(span.Start)
		lang := fenceLanguage(buf.Line(line))
		variant, ok := shellLanguages[strings.ToLower(lang)]
		if !ok {
			continue
		}

		content := buf.Slice(span.Start, span.End)
		parser := syntax.NewParser(syntax.Variant(variant))
		if _, err := parser.Parse(strings.NewReader(string(content)), ""); err != nil {
			violations = append(violations, rules.NewViolation(
				rules.NewLocationFromByteRange(input.File, buf, span.Start, span.End),
				r.Metadata().Code,
				"fenced "+lang+" block does not parse as valid shell: "+err.Error(),
				r.Metadata().DefaultSeverity,
			))
		}
	}
	return violations
}

// fenceLanguage extracts the info-string language token from a fence's
// opening line, e.g. "```bash" -> "bash".
func fenceLanguage(line []byte) string {
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
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	start := i
	for i < len(line) && line[i] != ' ' && line[i] != '\t' {
		i++
	}
	return string(line[start:i])
}

// New creates a new Rule instance.
func New() *Rule { return &Rule{} }

func init() { rules.Register(New()) }

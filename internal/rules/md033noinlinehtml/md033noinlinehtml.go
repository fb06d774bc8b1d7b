// Package md033noinlinehtml implements MD033: raw HTML should not be used
// in Markdown documents.
package md033noinlinehtml

import (
	"fmt"
	"regexp"

	"github.com/rumdl-go/rumdl/internal/rules"
)

var tagPattern = regexp.MustCompile(`</?([a-zA-Z][a-zA-Z0-9-]*)\b[^>]*>`)

// Config configures MD033.
type Config struct {
	// AllowedElements lists HTML tag names (lowercase, no brackets) that are
	// exempt, e.g. "br", "img".
	AllowedElements []string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config { return Config{} }

// Rule implements MD033.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             "MD033",
		Name:             "Inline HTML",
		Description:      "Flags raw HTML tags embedded in Markdown content",
		DocURL:           "https://github.com/rumdl-go/rumdl/blob/main/docs/rules/MD033.md",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "html",
		EnabledByDefault: true,
		Aliases:          []string{"no-inline-html"},
	}
}

func (r *Rule) resolveConfig(config any) Config {
	if cfg, ok := config.(Config); ok {
		return cfg
	}
	return DefaultConfig()
}

// DefaultConfig implements ConfigurableRule.
func (r *Rule) DefaultConfig() any { return DefaultConfig() }

// ValidateConfig implements ConfigurableRule.
func (r *Rule) ValidateConfig(any) error { return nil }

// Check runs the rule.
func (r *Rule) Check(input rules.LintInput) []rules.Violation {
	if !input.Context.HasByte('<') {
		return nil
	}
	cfg := r.resolveConfig(input.Config)
	allowed := make(map[string]bool, len(cfg.AllowedElements))
	for _, e := range cfg.AllowedElements {
		allowed[lower(e)] = true
	}
	buf := input.Context.Buffer()

	var violations []rules.Violation
	for i, li := range input.Context.Lines() {
		if li.InFencedCode || li.InIndentedCode || li.InFrontMatter || li.InHTMLComment {
			continue
		}
		line := buf.Line(i)
		for _, m := range tagPattern.FindAllSubmatchIndex(line, -1) {
			tag := lower(string(line[m[2]:m[3]]))
			if allowed[tag] {
				continue
			}
			start := li.Range.Start + m[0]
			end := li.Range.Start + m[1]
			violations = append(violations, rules.NewViolation(
				rules.NewLocationFromByteRange(input.File, buf, start, end),
				r.Metadata().Code,
				fmt.Sprintf("raw HTML element <%s> is not allowed", tag),
				r.Metadata().DefaultSeverity,
			))
		}
	}
	return violations
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// New creates a new MD033 rule instance.
func New() *Rule { return &Rule{} }

func init() { rules.Register(New()) }

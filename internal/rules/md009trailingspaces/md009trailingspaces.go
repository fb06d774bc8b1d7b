// Package md009trailingspaces implements MD009: trailing spaces at the end
// of a line, except the two-space hard-break convention.
package md009trailingspaces

import (
	"github.com/rumdl-go/rumdl/internal/mdcontext"
	"github.com/rumdl-go/rumdl/internal/rules"
)

// Config configures MD009.
type Config struct {
	// BRSpaces is the exact trailing-space count treated as an intentional
	// hard line break and left alone. markdownlint's default is 2.
	BRSpaces int
	// StrictMode, when true, also flags the BRSpaces exception.
	StrictMode bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config { return Config{BRSpaces: 2} }

// Rule implements MD009.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             "MD009",
		Name:             "Trailing spaces",
		Description:      "Flags trailing whitespace at the end of a line",
		DocURL:           "https://github.com/rumdl-go/rumdl/blob/main/docs/rules/MD009.md",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "whitespace",
		EnabledByDefault: true,
		Aliases:          []string{"no-trailing-spaces"},
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
	if !input.Context.HasByte(' ') && !input.Context.HasByte('\t') {
		return nil
	}
	cfg := r.resolveConfig(input.Config)
	buf := input.Context.Buffer()

	var violations []rules.Violation
	for i, li := range input.Context.Lines() {
		if li.InFencedCode || li.InIndentedCode {
			continue
		}
		line := buf.Line(i)
		trailing := trailingSpaceCount(line)
		if trailing == 0 {
			continue
		}
		if !cfg.StrictMode && trailing == cfg.BRSpaces {
			continue
		}
		start := li.Range.End - trailing
		violations = append(violations, rules.NewViolation(
			rules.NewLocationFromByteRange(input.File, buf, start, li.Range.End),
			r.Metadata().Code,
			"trailing spaces",
			r.Metadata().DefaultSeverity,
		).WithSuggestedFix(&rules.SuggestedFix{
			Description: "remove trailing whitespace",
			Safety:      rules.FixSafe,
			Edits: []rules.TextEdit{{
				Range:    mdcontext.Range{Start: start, End: li.Range.End},
				Location: rules.NewLocationFromByteRange(input.File, buf, start, li.Range.End),
				NewText:  "",
			}},
		}))
	}
	return violations
}

// Fix implements FixableRule.
func (r *Rule) Fix(input rules.LintInput, v rules.Violation) []rules.TextEdit {
	if v.SuggestedFix == nil {
		return nil
	}
	return v.SuggestedFix.Edits
}

func trailingSpaceCount(line []byte) int {
	n := 0
	for i := len(line) - 1; i >= 0; i-- {
		if line[i] != ' ' && line[i] != '\t' {
			break
		}
		n++
	}
	return n
}

// New creates a new MD009 rule instance.
func New() *Rule { return &Rule{} }

func init() { rules.Register(New()) }

// Package md012multipleblanks implements MD012: no multiple consecutive
// blank lines.
package md012multipleblanks

import (
	"fmt"

	"github.com/rumdl-go/rumdl/internal/mdcontext"
	"github.com/rumdl-go/rumdl/internal/rules"
)

// Config configures MD012.
type Config struct {
	// Maximum is the greatest number of consecutive blank lines allowed.
	Maximum int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config { return Config{Maximum: 1} }

// Rule implements MD012.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             "MD012",
		Name:             "Multiple consecutive blank lines",
		Description:      "Flags runs of blank lines longer than the configured maximum",
		DocURL:           "https://github.com/rumdl-go/rumdl/blob/main/docs/rules/MD012.md",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "whitespace",
		EnabledByDefault: true,
		Aliases:          []string{"no-multiple-blanks"},
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
	cfg := r.resolveConfig(input.Config)
	buf := input.Context.Buffer()
	lines := input.Context.Lines()

	var violations []rules.Violation
	runStart := -1
	flushRun := func(end int) {
		count := end - runStart
		if count <= cfg.Maximum {
			return
		}
		start := runStart + cfg.Maximum
		violations = append(violations, rules.NewViolation(
			rules.NewLocationFromByteRange(input.File, buf, buf.LineStart(start), buf.LineEnd(end-1)),
			r.Metadata().Code,
			fmt.Sprintf("%d consecutive blank lines, expected at most %d", count, cfg.Maximum),
			r.Metadata().DefaultSeverity,
		).WithSuggestedFix(&rules.SuggestedFix{
			Description: "collapse extra blank lines",
			Safety:      rules.FixSafe,
			Edits: []rules.TextEdit{{
				Range:    mdcontext.Range{Start: buf.LineStart(start), End: buf.LineEnd(end-1) + 1},
				Location: rules.NewLocationFromByteRange(input.File, buf, buf.LineStart(start), buf.LineEnd(end-1)),
				NewText:  "",
			}},
		}))
	}

	for i, li := range lines {
		if li.InFencedCode || li.InIndentedCode {
			if runStart >= 0 {
				flushRun(i)
				runStart = -1
			}
			continue
		}
		if li.IsBlank {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			flushRun(i)
			runStart = -1
		}
	}
	if runStart >= 0 {
		flushRun(len(lines))
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

// New creates a new MD012 rule instance.
func New() *Rule { return &Rule{} }

func init() { rules.Register(New()) }

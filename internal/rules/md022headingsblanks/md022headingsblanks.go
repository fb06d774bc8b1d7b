// Package md022headingsblanks implements MD022: headings should be
// surrounded by blank lines.
package md022headingsblanks

import (
	"github.com/rumdl-go/rumdl/internal/mdcontext"
	"github.com/rumdl-go/rumdl/internal/rules"
)

// Config configures MD022.
type Config struct {
	LinesAbove int
	LinesBelow int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config { return Config{LinesAbove: 1, LinesBelow: 1} }

// Rule implements MD022.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             "MD022",
		Name:             "Headings should be surrounded by blank lines",
		Description:      "Flags a heading line that is not preceded and followed by a blank line",
		DocURL:           "https://github.com/rumdl-go/rumdl/blob/main/docs/rules/MD022.md",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "headings",
		EnabledByDefault: true,
		Aliases:          []string{"blanks-around-headings"},
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
	lines := input.Context.Lines()
	buf := input.Context.Buffer()

	var violations []rules.Violation
	for _, h := range input.Context.Headings() {
		i := h.Line
		var edits []rules.TextEdit
		needsAbove := i > 0 && !blankWithin(lines, i-1, cfg.LinesAbove, -1)
		needsBelow := i < len(lines)-1 && !blankWithin(lines, i+1, cfg.LinesBelow, 1)
		if !needsAbove && !needsBelow {
			continue
		}
		if needsAbove {
			off := buf.LineStart(i)
			edits = append(edits, rules.TextEdit{
				Range:    mdcontext.Range{Start: off, End: off},
				Location: rules.NewLocationFromByteRange(input.File, buf, off, off),
				NewText:  "\n",
			})
		}
		if needsBelow {
			off := buf.LineEnd(i) + 1
			edits = append(edits, rules.TextEdit{
				Range:    mdcontext.Range{Start: off, End: off},
				Location: rules.NewLocationFromByteRange(input.File, buf, off, off),
				NewText:  "\n",
			})
		}
		violations = append(violations, rules.NewViolation(
			rules.NewLocationFromByteRange(input.File, buf, buf.LineStart(i), buf.LineEnd(i)),
			r.Metadata().Code,
			"heading must be surrounded by blank lines",
			r.Metadata().DefaultSeverity,
		).WithSuggestedFix(&rules.SuggestedFix{
			Description: "insert missing blank lines around heading",
			Safety:      rules.FixSafe,
			Edits:       edits,
		}))
	}
	return violations
}

// blankWithin reports whether, scanning step lines from start (inclusive),
// at least one blank line is found within count lines.
func blankWithin(lines []mdcontext.LineInfo, start, count, step int) bool {
	idx := start
	for n := 0; n < count && idx >= 0 && idx < len(lines); n++ {
		if lines[idx].IsBlank {
			return true
		}
		idx += step
	}
	return false
}

// Fix implements FixableRule.
func (r *Rule) Fix(input rules.LintInput, v rules.Violation) []rules.TextEdit {
	if v.SuggestedFix == nil {
		return nil
	}
	return v.SuggestedFix.Edits
}

// New creates a new MD022 rule instance.
func New() *Rule { return &Rule{} }

func init() { rules.Register(New()) }

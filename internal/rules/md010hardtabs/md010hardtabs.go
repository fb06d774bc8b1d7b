// Package md010hardtabs implements MD010: hard tabs should not be used.
package md010hardtabs

import (
	"strings"

	"github.com/rumdl-go/rumdl/internal/buffer"
	"github.com/rumdl-go/rumdl/internal/mdcontext"
	"github.com/rumdl-go/rumdl/internal/rules"
)

// Config configures MD010.
type Config struct {
	// CodeBlocks, when false, skips fenced/indented code blocks (tabs are
	// often intentional there).
	CodeBlocks bool
	// SpacesPerTab is used when generating the fix.
	SpacesPerTab int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config { return Config{CodeBlocks: true, SpacesPerTab: 4} }

// Rule implements MD010.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             "MD010",
		Name:             "Hard tabs",
		Description:      "Flags hard tab characters",
		DocURL:           "https://github.com/rumdl-go/rumdl/blob/main/docs/rules/MD010.md",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "whitespace",
		EnabledByDefault: true,
		Aliases:          []string{"no-hard-tabs"},
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
	if !input.Context.HasByte('\t') {
		return nil
	}
	cfg := r.resolveConfig(input.Config)
	buf := input.Context.Buffer()

	var violations []rules.Violation
	for i, li := range input.Context.Lines() {
		if !cfg.CodeBlocks && (li.InFencedCode || li.InIndentedCode) {
			continue
		}
		line := buf.Line(i)
		idx := strings.IndexByte(string(line), '\t')
		if idx < 0 {
			continue
		}
		offset := li.Range.Start + idx
		violations = append(violations, rules.NewViolation(
			rules.NewLocationFromByteRange(input.File, buf, offset, offset+1),
			r.Metadata().Code,
			"hard tab character",
			r.Metadata().DefaultSeverity,
		).WithSuggestedFix(&rules.SuggestedFix{
			Description: "replace tabs with spaces",
			Safety:      rules.FixSafe,
			Edits:       tabEdits(input.File, buf, line, li.Range.Start, cfg.SpacesPerTab),
		}))
	}
	return violations
}

func tabEdits(file string, buf *buffer.Buffer, line []byte, lineStart int, spacesPerTab int) []rules.TextEdit {
	var edits []rules.TextEdit
	for i, c := range line {
		if c != '\t' {
			continue
		}
		off := lineStart + i
		edits = append(edits, rules.TextEdit{
			Range:    mdcontext.Range{Start: off, End: off + 1},
			Location: rules.NewLocationFromByteRange(file, buf, off, off+1),
			NewText:  strings.Repeat(" ", spacesPerTab),
		})
	}
	return edits
}

// Fix implements FixableRule.
func (r *Rule) Fix(input rules.LintInput, v rules.Violation) []rules.TextEdit {
	if v.SuggestedFix == nil {
		return nil
	}
	return v.SuggestedFix.Edits
}

// New creates a new MD010 rule instance.
func New() *Rule { return &Rule{} }

func init() { rules.Register(New()) }

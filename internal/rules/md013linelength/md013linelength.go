// Package md013linelength implements MD013: lines should not exceed a
// configured maximum length.
package md013linelength

import (
	"fmt"

	"github.com/rumdl-go/rumdl/internal/rules"
)

// Config configures MD013.
type Config struct {
	// LineLength is the maximum number of characters allowed per line.
	LineLength int
	// CodeBlocks, when false, exempts fenced/indented code lines.
	CodeBlocks bool
	// Tables, when false, exempts table rows.
	Tables bool
	// Headings, when false, exempts heading lines.
	Headings bool
	// StrictMode disables the "no break point, no warning" exception used
	// by markdownlint for lines like a single long URL.
	StrictMode bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{LineLength: 80, CodeBlocks: true, Tables: false, Headings: true}
}

// Rule implements MD013.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             "MD013",
		Name:             "Line length",
		Description:      "Flags lines longer than the configured maximum",
		DocURL:           "https://github.com/rumdl-go/rumdl/blob/main/docs/rules/MD013.md",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "whitespace",
		EnabledByDefault: false,
		Aliases:          []string{"line-length"},
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
func (r *Rule) ValidateConfig(config any) error {
	cfg := r.resolveConfig(config)
	if cfg.LineLength <= 0 {
		return fmt.Errorf("md013: line-length must be positive, got %d", cfg.LineLength)
	}
	return nil
}

// Check runs the rule.
func (r *Rule) Check(input rules.LintInput) []rules.Violation {
	cfg := r.resolveConfig(input.Config)
	buf := input.Context.Buffer()

	var violations []rules.Violation
	for i, li := range input.Context.Lines() {
		if !cfg.CodeBlocks && (li.InFencedCode || li.InIndentedCode) {
			continue
		}
		if !cfg.Tables && (li.IsTableRow || li.IsTableSeparator) {
			continue
		}
		if !cfg.Headings && (li.IsHeadingATX || li.IsHeadingSetext) {
			continue
		}
		line := buf.Line(i)
		length := runeLen(line)
		if length <= cfg.LineLength {
			continue
		}
		if !cfg.StrictMode && !hasBreakPoint(line, cfg.LineLength) {
			continue
		}
		violations = append(violations, rules.NewViolation(
			rules.NewLocationFromByteRange(input.File, buf, li.Range.Start, li.Range.End),
			r.Metadata().Code,
			fmt.Sprintf("line length %d exceeds %d characters", length, cfg.LineLength),
			r.Metadata().DefaultSeverity,
		))
	}
	return violations
}

func runeLen(b []byte) int {
	n := 0
	for range string(b) {
		n++
	}
	return n
}

// hasBreakPoint reports whether the line contains a space past the limit,
// i.e. it could plausibly be wrapped rather than being one unbreakable
// token such as a bare URL.
func hasBreakPoint(line []byte, limit int) bool {
	count := 0
	for _, c := range string(line) {
		count++
		if count <= limit {
			continue
		}
		if c == ' ' {
			return true
		}
	}
	return false
}

// New creates a new MD013 rule instance.
func New() *Rule { return &Rule{} }

func init() { rules.Register(New()) }

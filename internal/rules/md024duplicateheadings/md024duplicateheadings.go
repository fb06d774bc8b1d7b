// Package md024duplicateheadings implements MD024: heading content should
// not be duplicated within the document.
package md024duplicateheadings

import (
	"fmt"

	"github.com/rumdl-go/rumdl/internal/buffer"
	"github.com/rumdl-go/rumdl/internal/rules"
)

// Config configures MD024.
type Config struct {
	// SiblingsOnly, when true, only flags duplicates among headings that
	// share the same parent heading rather than the whole document.
	SiblingsOnly bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config { return Config{} }

// Rule implements MD024.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             "MD024",
		Name:             "Multiple headings with the same content",
		Description:      "Flags a heading whose text duplicates an earlier heading",
		DocURL:           "https://github.com/rumdl-go/rumdl/blob/main/docs/rules/MD024.md",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "headings",
		EnabledByDefault: true,
		Aliases:          []string{"no-duplicate-heading"},
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
	headings := input.Context.Headings()

	var violations []rules.Violation
	seenGlobal := map[string]bool{}
	// path holds the current chain of ancestor heading texts, indexed by
	// level-1, so sibling scoping can key off path[level-2].
	path := make([]string, 0, 8)

	for _, h := range headings {
		key := h.Text
		if h.Level-1 < len(path) {
			path = path[:h.Level-1]
		}

		if cfg.SiblingsOnly {
			parentKey := ""
			if len(path) > 0 {
				parentKey = path[len(path)-1]
			}
			seenKey := parentKey + "\x00" + key
			if seenGlobal[seenKey] {
				violations = append(violations, r.violation(input.File, buf, h.Line, key))
			}
			seenGlobal[seenKey] = true
		} else {
			if seenGlobal[key] {
				violations = append(violations, r.violation(input.File, buf, h.Line, key))
			}
			seenGlobal[key] = true
		}
		path = append(path, key)
	}
	return violations
}

func (r *Rule) violation(file string, buf *buffer.Buffer, line int, text string) rules.Violation {
	return rules.NewViolation(
		rules.NewLocationFromByteRange(file, buf, buf.LineStart(line), buf.LineEnd(line)),
		r.Metadata().Code,
		fmt.Sprintf("duplicate heading %q", text),
		r.Metadata().DefaultSeverity,
	)
}

// New creates a new MD024 rule instance.
func New() *Rule { return &Rule{} }

func init() { rules.Register(New()) }

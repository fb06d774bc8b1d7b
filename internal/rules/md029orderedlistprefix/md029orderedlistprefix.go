// Package md029orderedlistprefix implements MD029: ordered list item
// numbers should follow a consistent style.
package md029orderedlistprefix

import (
	"fmt"
	"strconv"

	"github.com/rumdl-go/rumdl/internal/buffer"
	"github.com/rumdl-go/rumdl/internal/mdcontext"
	"github.com/rumdl-go/rumdl/internal/rules"
)

// Style names the accepted ordered-list numbering convention.
type Style string

const (
	// StyleOneOrOrdered accepts either all-ones or strictly sequential
	// numbering, whichever the first two items establish.
	StyleOneOrOrdered Style = "one_or_ordered"
	StyleOne          Style = "one"
	StyleOrdered      Style = "ordered"
)

// Config configures MD029.
type Config struct {
	Style Style
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config { return Config{Style: StyleOneOrOrdered} }

// Rule implements MD029.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             "MD029",
		Name:             "Ordered list item prefix",
		Description:      "Flags ordered list numbering that is neither all-ones nor sequential",
		DocURL:           "https://github.com/rumdl-go/rumdl/blob/main/docs/rules/MD029.md",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "lists",
		EnabledByDefault: true,
		Aliases:          []string{"ol-prefix"},
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
	items := input.Context.ListItems()

	groups := groupSiblings(items)

	var violations []rules.Violation
	for _, group := range groups {
		ordered := true
		for _, idx := range group {
			if !items[idx].Ordered {
				ordered = false
				break
			}
		}
		if !ordered || len(group) < 2 {
			continue
		}

		wantAllOnes := cfg.Style == StyleOne
		if cfg.Style == StyleOneOrOrdered {
			wantAllOnes = items[group[1]].Ordinal == items[group[0]].Ordinal
		}

		for i, idx := range group {
			item := items[idx]
			var want int
			if wantAllOnes {
				want = items[group[0]].Ordinal
			} else {
				want = items[group[0]].Ordinal + i
			}
			if item.Ordinal == want {
				continue
			}
			violations = append(violations, rules.NewViolation(
				rules.NewLocationFromByteRange(input.File, buf, buf.LineStart(item.StartLine), buf.LineEnd(item.StartLine)),
				r.Metadata().Code,
				fmt.Sprintf("ordered list item number %d, expected %d", item.Ordinal, want),
				r.Metadata().DefaultSeverity,
			).WithSuggestedFix(&rules.SuggestedFix{
				Description: "renumber ordered list item",
				Safety:      rules.FixSafe,
				Edits:       renumberEdit(input.File, buf, item, want),
			}))
		}
	}
	return violations
}

// groupSiblings clusters list item indices into contiguous runs that share
// the same parent. A run breaks whenever the parent changes or an
// intervening item (e.g. a sibling list started elsewhere in the document)
// separates two items that would otherwise look adjacent.
func groupSiblings(items []mdcontext.ListItem) [][]int {
	var groups [][]int
	var current []int
	currentParent := -2 // sentinel distinct from any real ParentIndex
	for i, item := range items {
		if item.ParentIndex != currentParent || (len(current) > 0 && i != current[len(current)-1]+1) {
			if len(current) > 0 {
				groups = append(groups, current)
			}
			current = nil
			currentParent = item.ParentIndex
		}
		current = append(current, i)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

func renumberEdit(file string, buf *buffer.Buffer, item mdcontext.ListItem, want int) []rules.TextEdit {
	line := buf.Line(item.StartLine)
	digits := 0
	for digits < len(line) && line[digits] >= '0' && line[digits] <= '9' {
		digits++
	}
	start := buf.LineStart(item.StartLine)
	return []rules.TextEdit{{
		Range:    mdcontext.Range{Start: start, End: start + digits},
		Location: rules.NewLocationFromByteRange(file, buf, start, start+digits),
		NewText:  strconv.Itoa(want),
	}}
}

// Fix implements FixableRule.
func (r *Rule) Fix(input rules.LintInput, v rules.Violation) []rules.TextEdit {
	if v.SuggestedFix == nil {
		return nil
	}
	return v.SuggestedFix.Edits
}

// New creates a new MD029 rule instance.
func New() *Rule { return &Rule{} }

func init() { rules.Register(New()) }

// Package md053unuseddefinitions implements MD053: reference-style link and
// image definitions that are never referenced should be removed.
package md053unuseddefinitions

import (
	"fmt"

	"github.com/rumdl-go/rumdl/internal/mdcontext"
	"github.com/rumdl-go/rumdl/internal/rules"
)

// Rule implements MD053.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             "MD053",
		Name:             "Link and image reference definitions should be needed",
		Description:      "Flags a reference definition that no link or image in the document uses",
		DocURL:           "https://github.com/rumdl-go/rumdl/blob/main/docs/rules/MD053.md",
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "links",
		EnabledByDefault: true,
		Aliases:          []string{"link-image-reference-definitions"},
	}
}

// Check runs the rule.
func (r *Rule) Check(input rules.LintInput) []rules.Violation {
	defs := input.Context.ReferenceDefinitions()
	if len(defs) == 0 {
		return nil
	}
	buf := input.Context.Buffer()

	used := map[string]bool{}
	for _, link := range input.Context.Links() {
		if !link.IsReference {
			continue
		}
		used[mdcontext.NormalizeRefLabel(link.Label)] = true
	}

	var violations []rules.Violation
	for _, def := range defs {
		key := mdcontext.NormalizeRefLabel(def.Label)
		if used[key] {
			continue
		}
		violations = append(violations, rules.NewViolation(
			rules.NewLocationFromByteRange(input.File, buf, buf.LineStart(def.Line), buf.LineEnd(def.Line)),
			r.Metadata().Code,
			fmt.Sprintf("reference definition %q is never used", def.Label),
			r.Metadata().DefaultSeverity,
		).WithSuggestedFix(&rules.SuggestedFix{
			Description: "remove unused reference definition",
			Safety:      rules.FixSafe,
			Edits: []rules.TextEdit{{
				Range:    mdcontext.Range{Start: buf.LineStart(def.Line), End: buf.LineEnd(def.Line) + 1},
				Location: rules.NewLocationFromByteRange(input.File, buf, buf.LineStart(def.Line), buf.LineEnd(def.Line)),
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

// New creates a new MD053 rule instance.
func New() *Rule { return &Rule{} }

func init() { rules.Register(New()) }

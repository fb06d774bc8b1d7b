package processor

import (
	"github.com/rumdl-go/rumdl/internal/directive"
	"github.com/rumdl-go/rumdl/internal/rules"
)

// InlineDirectiveFilter suppresses violations covered by rumdl-disable
// (and markdownlint-disable) HTML comments. Directives are parsed once per
// file during driver dispatch and supplied through Context.Directives --
// this processor only applies them.
type InlineDirectiveFilter struct{}

// NewInlineDirectiveFilter creates a new inline directive filter processor.
func NewInlineDirectiveFilter() *InlineDirectiveFilter {
	return &InlineDirectiveFilter{}
}

// Name returns the processor's identifier.
func (p *InlineDirectiveFilter) Name() string {
	return "inline-directive-filter"
}

// Process drops violations suppressed by an inline directive in their file.
func (p *InlineDirectiveFilter) Process(violations []rules.Violation, ctx *Context) []rules.Violation {
	if len(ctx.Directives) == 0 {
		return violations
	}

	byFile := make(map[string][]rules.Violation)
	var order []string
	for _, v := range violations {
		if _, ok := byFile[v.Location.File]; !ok {
			order = append(order, v.Location.File)
		}
		byFile[v.Location.File] = append(byFile[v.Location.File], v)
	}

	result := make([]rules.Violation, 0, len(violations))
	for _, file := range order {
		fileViolations := byFile[file]
		directives := ctx.Directives[file]
		if len(directives) == 0 {
			result = append(result, fileViolations...)
			continue
		}
		filtered := directive.Filter(fileViolations, directives)
		result = append(result, filtered.Violations...)
	}
	return result
}

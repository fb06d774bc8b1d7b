package directive

import "github.com/rumdl-go/rumdl/internal/rules"

// FilterResult contains the results of filtering violations through
// directives.
type FilterResult struct {
	Violations       []rules.Violation
	Suppressed       []rules.Violation
	UnusedDirectives []Directive
}

// Filter applies directives to a violation list. A violation is suppressed
// when some directive's AppliesTo covers its line and its Rules list
// covers the violation's rule code.
//
// Matching precedence is first-match-wins in directive order: when a
// global disable-file and a narrower disable-next-line could both
// suppress the same violation, only the first one encountered is marked
// Used. This keeps suppression deterministic at the cost of occasionally
// reporting a technically-redundant directive as unused.
func Filter(violations []rules.Violation, directives []Directive) *FilterResult {
	result := &FilterResult{
		Violations: make([]rules.Violation, 0, len(violations)),
		Suppressed: make([]rules.Violation, 0),
	}

	active := make([]Directive, len(directives))
	copy(active, directives)

	for _, v := range violations {
		suppressed := false
		line := v.Location.Start.Line

		for i := range active {
			d := &active[i]
			if d.Type == TypeEnable {
				continue
			}
			if d.SuppressesLine(line) && d.SuppressesRule(v.RuleCode) {
				suppressed = true
				d.Used = true
				break
			}
		}

		if suppressed {
			result.Suppressed = append(result.Suppressed, v)
		} else {
			result.Violations = append(result.Violations, v)
		}
	}

	for _, d := range active {
		if d.Type != TypeEnable && !d.Used {
			result.UnusedDirectives = append(result.UnusedDirectives, d)
		}
	}

	return result
}

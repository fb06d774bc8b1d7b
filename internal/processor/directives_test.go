package processor

import (
	"testing"

	"github.com/rumdl-go/rumdl/internal/directive"
	"github.com/rumdl-go/rumdl/internal/rules"
)

func TestInlineDirectiveFilter_Name(t *testing.T) {
	t.Parallel()
	p := NewInlineDirectiveFilter()
	if p.Name() != "inline-directive-filter" {
		t.Errorf("expected inline-directive-filter, got %s", p.Name())
	}
}

func TestInlineDirectiveFilter_NoDirectives(t *testing.T) {
	t.Parallel()
	p := NewInlineDirectiveFilter()

	violations := []rules.Violation{
		rules.NewViolation(rules.NewLineLocation("file.md", 0), "MD001", "msg", rules.SeverityWarning),
	}

	ctx := &Context{}
	result := p.Process(violations, ctx)
	if len(result) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(result))
	}
}

func TestInlineDirectiveFilter_SuppressesMatchingLine(t *testing.T) {
	t.Parallel()
	p := NewInlineDirectiveFilter()

	violations := []rules.Violation{
		rules.NewViolation(rules.NewLineLocation("file.md", 2), "MD013", "msg", rules.SeverityWarning),
		rules.NewViolation(rules.NewLineLocation("file.md", 5), "MD013", "msg", rules.SeverityWarning),
	}

	ctx := &Context{
		Directives: map[string][]directive.Directive{
			"file.md": {
				{
					Type:      directive.TypeDisableLine,
					Rules:     []string{"MD013"},
					Line:      2,
					AppliesTo: directive.LineRange{Start: 2, End: 2},
				},
			},
		},
	}

	result := p.Process(violations, ctx)
	if len(result) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(result))
	}
	if result[0].Location.Start.Line != 5 {
		t.Errorf("expected surviving violation on line 5, got %d", result[0].Location.Start.Line)
	}
}

func TestInlineDirectiveFilter_OnlyAffectsOwnFile(t *testing.T) {
	t.Parallel()
	p := NewInlineDirectiveFilter()

	violations := []rules.Violation{
		rules.NewViolation(rules.NewLineLocation("a.md", 0), "MD013", "msg", rules.SeverityWarning),
		rules.NewViolation(rules.NewLineLocation("b.md", 0), "MD013", "msg", rules.SeverityWarning),
	}

	ctx := &Context{
		Directives: map[string][]directive.Directive{
			"a.md": {
				{
					Type:      directive.TypeDisableFile,
					Rules:     []string{"MD013"},
					AppliesTo: directive.FileRange(),
				},
			},
		},
	}

	result := p.Process(violations, ctx)
	if len(result) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(result))
	}
	if result[0].Location.File != "b.md" {
		t.Errorf("expected b.md to survive, got %s", result[0].Location.File)
	}
}

package processor

import (
	"testing"

	"github.com/rumdl-go/rumdl/internal/buffer"
	"github.com/rumdl-go/rumdl/internal/config"
	"github.com/rumdl-go/rumdl/internal/rules"
)

func TestSnippetAttachment_Name(t *testing.T) {
	t.Parallel()
	p := NewSnippetAttachment()
	if p.Name() != "snippet-attachment" {
		t.Errorf("expected snippet-attachment, got %s", p.Name())
	}
}

func TestSnippetAttachment_SkipsExistingSnippet(t *testing.T) {
	t.Parallel()
	p := NewSnippetAttachment()

	violations := []rules.Violation{
		{
			Location:   rules.NewLineLocation("file.md", 0),
			RuleCode:   "MD001",
			Message:    "test",
			Severity:   rules.SeverityWarning,
			SourceCode: "existing snippet",
		},
	}

	ctx := NewContext(config.Default(), map[string][]byte{
		"file.md": []byte("line1\nline2\n"),
	})

	result := p.Process(violations, ctx)
	if len(result) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(result))
	}
	if result[0].SourceCode != "existing snippet" {
		t.Errorf("expected existing snippet preserved, got %s", result[0].SourceCode)
	}
}

func TestSnippetAttachment_SkipsFileLevelViolations(t *testing.T) {
	t.Parallel()
	p := NewSnippetAttachment()

	violations := []rules.Violation{
		rules.NewViolation(rules.NewFileLocation("file.md"), "MD001", "file-level issue", rules.SeverityWarning),
	}

	ctx := NewContext(config.Default(), map[string][]byte{
		"file.md": []byte("line1\nline2\n"),
	})

	result := p.Process(violations, ctx)
	if len(result) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(result))
	}
	if result[0].SourceCode != "" {
		t.Errorf("expected no snippet for file-level violation, got %s", result[0].SourceCode)
	}
}

func TestSnippetAttachment_SkipsWhenSourceNotAvailable(t *testing.T) {
	t.Parallel()
	p := NewSnippetAttachment()

	violations := []rules.Violation{
		rules.NewViolation(rules.NewLineLocation("missing.md", 0), "MD001", "test", rules.SeverityWarning),
	}

	ctx := NewContext(config.Default(), map[string][]byte{
		"other.md": []byte("content"),
	})

	result := p.Process(violations, ctx)
	if len(result) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(result))
	}
	if result[0].SourceCode != "" {
		t.Errorf("expected no snippet when file not in sources, got %s", result[0].SourceCode)
	}
}

func TestSnippetAttachment_ExtractsPointLocation(t *testing.T) {
	t.Parallel()
	p := NewSnippetAttachment()

	violations := []rules.Violation{
		rules.NewViolation(rules.NewLineLocation("file.md", 1), "MD001", "test", rules.SeverityWarning),
	}

	ctx := NewContext(config.Default(), map[string][]byte{
		"file.md": []byte("line1\nline2\nline3\n"),
	})

	result := p.Process(violations, ctx)
	if len(result) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(result))
	}
	if result[0].SourceCode != "line2" {
		t.Errorf("expected 'line2', got %s", result[0].SourceCode)
	}
}

func TestSnippetAttachment_ExtractsRangeLocation(t *testing.T) {
	t.Parallel()
	p := NewSnippetAttachment()

	// Range from line 1 to 3 (0-based), End.Column=0 so exclusive.
	loc := rules.Location{
		File:  "file.md",
		Start: rules.Position{Line: 1, Column: 0},
		End:   rules.Position{Line: 3, Column: 0},
	}

	violations := []rules.Violation{
		rules.NewViolation(loc, "MD001", "test", rules.SeverityWarning),
	}

	ctx := NewContext(config.Default(), map[string][]byte{
		"file.md": []byte("line1\nline2\nline3\nline4\nline5\n"),
	})

	result := p.Process(violations, ctx)
	if len(result) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(result))
	}

	expected := "line2\nline3"
	if result[0].SourceCode != expected {
		t.Errorf("expected %q, got %q", expected, result[0].SourceCode)
	}
}

func TestSnippetAttachment_HandlesInvalidLineNumbers(t *testing.T) {
	t.Parallel()
	p := NewSnippetAttachment()

	violations := []rules.Violation{
		rules.NewViolation(rules.NewLineLocation("file.md", -1), "MD001", "test", rules.SeverityWarning),
		rules.NewViolation(rules.NewLineLocation("file.md", -2), "MD002", "test", rules.SeverityWarning),
	}

	ctx := NewContext(config.Default(), map[string][]byte{
		"file.md": []byte("line1\nline2\n"),
	})

	result := p.Process(violations, ctx)
	if len(result) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(result))
	}

	for i, v := range result {
		if v.SourceCode != "" {
			t.Errorf("violation[%d]: expected no snippet for invalid line, got %s", i, v.SourceCode)
		}
	}
}

func TestExtractSnippet_RangeWithColumn(t *testing.T) {
	t.Parallel()
	buf := buffer.New([]byte("line1\nline2\nline3\nline4\n"))

	// Range where End.Column > 0 means the end line is included.
	loc := rules.Location{
		File:  "test.md",
		Start: rules.Position{Line: 1, Column: 0},
		End:   rules.Position{Line: 3, Column: 5},
	}

	snippet := extractSnippet(buf, loc)
	expected := "line2\nline3\nline4"
	if snippet != expected {
		t.Errorf("expected %q, got %q", expected, snippet)
	}
}

func TestExtractSnippet_SingleLineRange(t *testing.T) {
	t.Parallel()
	buf := buffer.New([]byte("line1\nline2\nline3\n"))

	// Start and End on the same line with Column=0.
	loc := rules.Location{
		File:  "test.md",
		Start: rules.Position{Line: 1, Column: 0},
		End:   rules.Position{Line: 1, Column: 0},
	}

	snippet := extractSnippet(buf, loc)
	expected := "line2"
	if snippet != expected {
		t.Errorf("expected %q, got %q", expected, snippet)
	}
}

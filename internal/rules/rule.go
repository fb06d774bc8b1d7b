package rules

import (
	"strings"

	"github.com/rumdl-go/rumdl/internal/mdcontext"
)

// LintInput contains everything a rule needs to check one document. Rules
// work against the precomputed Context, not raw source text, so that line
// classification, range sets, and lazy inventories (code spans, links,
// headings) are computed exactly once per document no matter how many
// rules run against it.
//
// LintInput is read-only. Rules must not mutate Context, Source, or
// Config; a rule that needs to transform data must copy it first. This
// keeps rule execution free of hidden coupling so rules can run
// concurrently against the same Context.
type LintInput struct {
	// File is the path to the document being linted, used for diagnostic
	// Location.File and nothing else -- rules must not do their own I/O.
	File string

	// Context is the precomputed Lint Context (guaranteed non-nil).
	Context *mdcontext.Context

	// Source is the raw document bytes, kept alongside Context for rules
	// that need the untouched original (for example to preserve a
	// document's exact original line ending when emitting a fix).
	Source []byte

	// Config is the rule-specific configuration (type depends on rule).
	Config any
}

// Snippet extracts lines [startLine, endLine] (0-based, inclusive) from the
// document.
func (input LintInput) Snippet(startLine, endLine int) string {
	buf := input.Context.Buffer()
	var b strings.Builder
	for i := startLine; i <= endLine && i < buf.LineCount(); i++ {
		if i > startLine {
			b.WriteByte('\n')
		}
		b.Write(buf.Line(i))
	}
	return b.String()
}

// SnippetForLocation extracts the source text a Location covers. Returns
// empty string for file-level locations.
func (input LintInput) SnippetForLocation(loc Location) string {
	if loc.IsFileLevel() {
		return ""
	}
	if loc.IsPointLocation() {
		if loc.Start.Line < 0 {
			return ""
		}
		return string(input.Context.Buffer().Line(loc.Start.Line))
	}
	endLine := loc.End.Line
	if loc.End.Column == 0 && endLine > loc.Start.Line {
		endLine--
	}
	if loc.Start.Line < 0 || endLine < 0 {
		return ""
	}
	return input.Snippet(loc.Start.Line, endLine)
}

// RuleMetadata contains static information about a rule.
type RuleMetadata struct {
	// Code is the unique identifier (e.g., "MD013", "no-bare-urls").
	Code string

	Name string

	Description string

	DocURL string

	// DefaultSeverity is the severity when not overridden by config.
	DefaultSeverity Severity

	// Category groups related rules (e.g., "whitespace", "headings",
	// "links", "security").
	Category string

	// EnabledByDefault indicates if the rule runs without explicit opt-in.
	EnabledByDefault bool

	// IsExperimental marks rules that may change or be removed.
	IsExperimental bool

	// Aliases lists alternate names the rule is known by, most commonly
	// the markdownlint rule code this one is compatible with (e.g. MD013
	// is aliased from "line-length").
	Aliases []string
}

// Rule is the interface every linting rule implements.
type Rule interface {
	// Metadata returns static information about the rule.
	Metadata() RuleMetadata

	// Check runs the rule against the given input and returns any
	// violations. Context and Source are guaranteed non-nil.
	Check(input LintInput) []Violation
}

// ConfigurableRule is an optional interface for rules that accept
// structured configuration beyond severity/enabled.
type ConfigurableRule interface {
	Rule

	// DefaultConfig returns the default configuration for this rule.
	DefaultConfig() any

	// ValidateConfig checks if a configuration value is valid.
	ValidateConfig(config any) error
}

// FixableRule is an optional interface for rules that can suggest or apply
// automatic fixes. Fix is called once per violation the same Check call
// produced, in the same input state; it must not assume any other rule's
// fixes have already been applied -- the Fix Coordinator handles
// convergence across rules and passes.
type FixableRule interface {
	Rule

	// Fix returns the edits that resolve v, or nil if no fix is available
	// for this particular violation.
	Fix(input LintInput, v Violation) []TextEdit
}

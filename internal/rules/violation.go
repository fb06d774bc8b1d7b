package rules

import "github.com/rumdl-go/rumdl/internal/mdcontext"

// FixSafety categorizes how reliable a fix is.
type FixSafety int

const (
	// FixSafe means the fix is always correct and won't change meaning.
	// These fixes can be applied automatically without review.
	FixSafe FixSafety = iota

	// FixSuggestion means the fix is likely correct but may need review.
	FixSuggestion

	// FixUnsafe means the fix might change rendered output significantly.
	// These require an explicit --fix-unsafe flag to apply.
	FixUnsafe
)

func (s FixSafety) String() string {
	switch s {
	case FixSafe:
		return "safe"
	case FixSuggestion:
		return "suggestion"
	case FixUnsafe:
		return "unsafe"
	default:
		return "unknown"
	}
}

// SuggestedFix represents a structured edit hint for auto-fix.
type SuggestedFix struct {
	// Description explains what this fix does.
	Description string `json:"description"`

	// Edits contains the actual text replacements to apply, in document
	// byte-offset order.
	Edits []TextEdit `json:"edits,omitempty"`

	// Safety indicates how reliable this fix is. Default is FixSafe.
	Safety FixSafety `json:"safety,omitzero"`

	// IsPreferred marks this as the recommended fix when alternatives exist.
	IsPreferred bool `json:"isPreferred,omitzero"`

	// Priority determines application order when multiple fixes touch
	// overlapping regions within the same pass. Lower runs first.
	Priority int `json:"priority,omitzero"`
}

// TextEdit represents a single text replacement in a file, addressed by
// byte range so the Fix Coordinator can detect overlaps and apply edits
// without re-deriving offsets from line/column pairs.
type TextEdit struct {
	Range mdcontext.Range `json:"-"`
	// Location mirrors Range in line/column form for reporters that don't
	// want to carry a mdcontext import.
	Location Location `json:"location"`
	// NewText is the text to insert/replace with. Empty string means delete.
	NewText string `json:"newText"`
}

// Violation represents a single linting violation.
type Violation struct {
	Location Location `json:"location"`

	// RuleCode is the unique identifier for the rule (e.g., "MD013",
	// "no-bare-urls").
	RuleCode string `json:"rule"`

	Message string `json:"message"`

	// Detail provides additional context (optional).
	Detail string `json:"detail,omitempty"`

	Severity Severity `json:"severity"`

	DocURL string `json:"docUrl,omitempty"`

	// SourceCode is the source snippet where the violation occurred.
	// Populated by post-processing; rules don't need to set this.
	SourceCode string `json:"sourceCode,omitempty"`

	SuggestedFix *SuggestedFix `json:"suggestedFix,omitempty"`
}

// NewViolation creates a new violation with the minimum required fields.
func NewViolation(loc Location, ruleCode, message string, severity Severity) Violation {
	return Violation{
		Location: loc,
		RuleCode: ruleCode,
		Message:  message,
		Severity: severity,
	}
}

// MarkdownlintRulePrefix namespaces rule codes translated from a
// markdownlint-compatible alias so they never collide with this engine's
// native codes.
const MarkdownlintRulePrefix = "markdownlint/"

// WithDetail adds a detail message to the violation.
func (v Violation) WithDetail(detail string) Violation {
	v.Detail = detail
	return v
}

// WithDocURL adds a documentation URL to the violation.
func (v Violation) WithDocURL(url string) Violation {
	v.DocURL = url
	return v
}

// WithSourceCode adds a source snippet to the violation.
func (v Violation) WithSourceCode(code string) Violation {
	v.SourceCode = code
	return v
}

// WithSuggestedFix adds a fix suggestion to the violation.
func (v Violation) WithSuggestedFix(fix *SuggestedFix) Violation {
	v.SuggestedFix = fix
	return v
}

// File returns the file path from the location.
func (v Violation) File() string { return v.Location.File }

// Line returns the 0-based starting line number.
func (v Violation) Line() int { return v.Location.Start.Line }

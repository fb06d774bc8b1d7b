// Package directive implements inline suppression directives written as
// HTML comments:
//
//	<!-- rumdl-disable MD013,MD033 -->
//	<!-- rumdl-disable-line MD013 -->
//	<!-- rumdl-disable-next-line MD013 -->
//	<!-- rumdl-enable MD013 -->
//	<!-- rumdl-disable-file MD013 -->
//
// and the markdownlint-compatible aliases (`markdownlint-disable`, etc.),
// recognized so documents migrating from markdownlint don't need their
// existing suppressions rewritten.
package directive

import "math"

// DirectiveType indicates the scope of a directive.
type DirectiveType int

const (
	// TypeDisableLine affects only the line the directive comment is on.
	TypeDisableLine DirectiveType = iota
	// TypeDisableNextLine affects only the next non-blank line.
	TypeDisableNextLine
	// TypeDisableBlock affects every line from the directive to a matching
	// enable directive (or end of file if none follows).
	TypeDisableBlock
	// TypeEnable closes the nearest preceding TypeDisableBlock.
	TypeEnable
	// TypeDisableFile affects the entire document.
	TypeDisableFile
)

// String returns a human-readable name for the directive type.
func (t DirectiveType) String() string {
	switch t {
	case TypeDisableLine:
		return "disable-line"
	case TypeDisableNextLine:
		return "disable-next-line"
	case TypeDisableBlock:
		return "disable"
	case TypeEnable:
		return "enable"
	case TypeDisableFile:
		return "disable-file"
	default:
		return "unknown"
	}
}

// LineRange is a range of 0-based, inclusive line numbers affected by a
// directive.
type LineRange struct {
	Start int
	End   int
}

// Contains reports whether the given 0-based line is within the range.
func (r LineRange) Contains(line int) bool {
	return line >= r.Start && line <= r.End
}

// FileRange returns a LineRange covering the entire document.
func FileRange() LineRange {
	return LineRange{Start: 0, End: math.MaxInt}
}

// Directive represents one parsed inline suppression comment.
type Directive struct {
	Type DirectiveType

	// Rules contains the rule codes affected. A single "all" entry means
	// every rule.
	Rules []string

	// Line is the 0-based line the directive comment appears on.
	Line int

	// AppliesTo is the range of lines this directive suppresses.
	AppliesTo LineRange

	// Used is set once this directive has suppressed at least one
	// violation, for unused-directive reporting.
	Used bool

	RawText string

	// Source distinguishes the native syntax from the markdownlint alias.
	Source DirectiveSource
}

// DirectiveSource identifies which comment vocabulary was used.
type DirectiveSource string

const (
	SourceNative       DirectiveSource = "rumdl"
	SourceMarkdownlint DirectiveSource = "markdownlint"
)

// SuppressesRule reports whether this directive suppresses ruleCode.
func (d *Directive) SuppressesRule(ruleCode string) bool {
	for _, r := range d.Rules {
		if r == "all" || r == ruleCode {
			return true
		}
	}
	return false
}

// SuppressesLine reports whether this directive suppresses violations on
// the given 0-based line.
func (d *Directive) SuppressesLine(line int) bool {
	return d.AppliesTo.Contains(line)
}

// ParseResult holds every directive parsed from a document plus any
// malformed-directive errors.
type ParseResult struct {
	Directives []Directive
	Errors     []ParseError
}

// ParseError describes a malformed directive comment.
type ParseError struct {
	Line    int
	Message string
	RawText string
}

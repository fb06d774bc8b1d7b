// Package fix implements the Fix Coordinator. It takes the violations a
// lint pass produced, orders their suggested fixes deterministically,
// applies the ones that pass the safety/fix-mode/conflict checks, and
// re-runs the rule set against the result until content stops changing or
// the iteration cap is hit.
package fix

import "github.com/rumdl-go/rumdl/internal/rules"

// FixMode controls whether a rule's fixes may be applied in a given run.
type FixMode int

const (
	// FixModeAlways applies the fix whenever available and within the
	// configured safety threshold. Default.
	FixModeAlways FixMode = iota

	// FixModeNever never applies this rule's fixes, even with --fix.
	FixModeNever

	// FixModeExplicit only applies this rule's fixes when it is named via
	// --fix-rule, not under a blanket --fix.
	FixModeExplicit

	// FixModeUnsafeOnly only applies this rule's fixes when --fix-unsafe
	// is passed, regardless of the fix's own declared safety.
	FixModeUnsafeOnly
)

// String returns a human-readable name for the fix mode.
func (m FixMode) String() string {
	switch m {
	case FixModeNever:
		return "never"
	case FixModeExplicit:
		return "explicit"
	case FixModeUnsafeOnly:
		return "unsafe-only"
	default:
		return "always"
	}
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	// RuleCode identifies which rule this fix is for.
	RuleCode string

	// Description explains what the fix did.
	Description string

	// Location is where the fix was applied, against the content state at
	// the start of the pass it ran in.
	Location rules.Location

	// Edits are the edits that made up this fix.
	Edits []rules.TextEdit
}

// SkipReason explains why a fix was skipped.
type SkipReason int

const (
	// SkipConflict means the fix's byte range overlaps an edit already
	// applied earlier in the same pass; it is retried next pass.
	SkipConflict SkipReason = iota

	// SkipSafety means the fix is below the safety threshold.
	SkipSafety

	// SkipRuleFilter means the rule is not in the --fix-rule list.
	SkipRuleFilter

	// SkipNoEdits means the fix produced no edits.
	SkipNoEdits

	// SkipFixMode means the rule's fix mode config disallows this run.
	SkipFixMode
)

// String returns a human-readable description of the skip reason.
func (r SkipReason) String() string {
	switch r {
	case SkipConflict:
		return "conflicts with another fix applied earlier in this pass"
	case SkipSafety:
		return "below safety threshold"
	case SkipRuleFilter:
		return "rule not in fix-rule list"
	case SkipNoEdits:
		return "fix has no edits"
	case SkipFixMode:
		return "disabled by fix mode config"
	default:
		return "unknown reason"
	}
}

// SkippedFix records a fix that couldn't be applied.
type SkippedFix struct {
	RuleCode string
	Reason   SkipReason
	Location rules.Location
}

// FileChange describes the outcome of running the Fix Coordinator against
// a single file, across every convergence pass.
type FileChange struct {
	Path string

	// OriginalContent is the file content before any pass ran.
	OriginalContent []byte

	// ModifiedContent is the file content after the final pass.
	ModifiedContent []byte

	FixesApplied []AppliedFix
	FixesSkipped []SkippedFix

	// Iterations is the number of lint-fix passes actually run.
	Iterations int

	// Converged is true when two consecutive passes hashed identically
	// before the iteration cap was reached.
	Converged bool
}

// HasChanges returns true if any fixes were applied to this file.
func (fc *FileChange) HasChanges() bool {
	return len(fc.FixesApplied) > 0
}

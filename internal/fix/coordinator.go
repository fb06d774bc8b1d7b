package fix

import (
	"sort"

	"github.com/zeebo/blake3"

	"github.com/rumdl-go/rumdl/internal/flavor"
	"github.com/rumdl-go/rumdl/internal/mdcontext"
	"github.com/rumdl-go/rumdl/internal/rules"
)

// MaxIterations bounds the lint-fix-relint loop so a misbehaving rule pair
// that keeps producing conflicting edits can never spin forever.
const MaxIterations = 100

// Coordinator applies a rule set's fixes to documents and re-lints until
// the content converges or MaxIterations is reached.
//
// Rules run in the Registry's sorted-by-code order every pass. That order
// stands in for a topological rule ordering: it is the one deterministic,
// total order the Rule Protocol already guarantees, and running rules in a
// fixed order pass after pass is what makes the loop's skip/retry behavior
// reproducible.
type Coordinator struct {
	Registry *rules.Registry

	// SafetyThreshold is the least-safe FixSafety level this run will
	// apply. Fixes less safe than this are skipped with SkipSafety.
	SafetyThreshold rules.FixSafety

	// RuleFilter, if non-nil, restricts fixing to these rule codes
	// (--fix-rule). A nil filter fixes every enabled rule.
	RuleFilter map[string]bool

	// FixModes holds the per-rule FixMode overrides (see BuildFixModes).
	FixModes map[string]FixMode

	// UnsafeAllowed mirrors --fix-unsafe: lets FixModeUnsafeOnly rules run
	// and raises the effective safety threshold ceiling to FixUnsafe.
	UnsafeAllowed bool

	// ResolveConfig, if set, returns a rule's typed Config for a given
	// rule code, the same value the driver's own lint pass would hand the
	// rule through LintInput.Config. Nil means every rule's Check/Fix
	// calls during this run see Config unset and fall back to the rule's
	// own DefaultConfig(), which is also what a nil ResolveConfig means
	// for any rule not covered by the driver's known-type switch.
	ResolveConfig func(code string) any
}

// NewCoordinator builds a Coordinator against the given registry with safe
// defaults: only FixSafe fixes, every rule eligible, no per-rule overrides.
func NewCoordinator(reg *rules.Registry) *Coordinator {
	return &Coordinator{
		Registry:        reg,
		SafetyThreshold: rules.FixSafe,
		FixModes:        map[string]FixMode{},
	}
}

// Fix runs the full Fix Coordinator loop against one file's content: lint,
// select fixable violations, apply them end-to-start by byte offset,
// re-lint the result, and repeat until two consecutive passes hash
// identically or MaxIterations passes have run.
func (c *Coordinator) Fix(path string, source []byte, profile flavor.Profile) *FileChange {
	change := &FileChange{Path: path, OriginalContent: source}
	content := source
	var lastHash [32]byte
	hashed := false

	for iteration := 0; iteration < MaxIterations; iteration++ {
		change.Iterations = iteration + 1

		ctx := mdcontext.New(content, profile)
		input := rules.LintInput{File: path, Context: ctx, Source: content}

		candidates := c.collectCandidates(input, change)
		if len(candidates) == 0 {
			change.Converged = true
			break
		}

		applied, newContent := c.applyPass(content, candidates, change)
		content = newContent

		hash := blake3.Sum256(content)
		if applied == 0 {
			change.Converged = true
			break
		}
		if hashed && hash == lastHash {
			change.Converged = true
			break
		}
		lastHash = hash
		hashed = true
	}

	change.ModifiedContent = content
	return change
}

// fixCandidate pairs a violation's chosen fix with the rule it came from.
type fixCandidate struct {
	ruleCode string
	location rules.Location
	fixMode  FixMode
	fix      *rules.SuggestedFix
}

// collectCandidates runs every eligible rule against input and gates each
// resulting fix through the rule filter, fix mode, and safety threshold,
// recording a SkippedFix for anything that doesn't qualify.
func (c *Coordinator) collectCandidates(input rules.LintInput, change *FileChange) []fixCandidate {
	var candidates []fixCandidate

	for _, rule := range c.Registry.All() {
		code := rule.Metadata().Code

		if c.RuleFilter != nil && !c.RuleFilter[code] {
			continue
		}

		fixable, ok := rule.(rules.FixableRule)
		if !ok {
			continue
		}

		mode := c.FixModes[code]
		if mode == FixModeNever {
			continue
		}
		if mode == FixModeExplicit && (c.RuleFilter == nil || !c.RuleFilter[code]) {
			continue
		}

		ruleInput := input
		if c.ResolveConfig != nil {
			ruleInput.Config = c.ResolveConfig(code)
		}

		for _, v := range rule.Check(ruleInput) {
			if v.SuggestedFix == nil {
				continue
			}
			if mode == FixModeUnsafeOnly && !c.UnsafeAllowed {
				change.FixesSkipped = append(change.FixesSkipped, SkippedFix{RuleCode: code, Reason: SkipFixMode, Location: v.Location})
				continue
			}
			if !c.safetyAllowed(v.SuggestedFix.Safety) {
				change.FixesSkipped = append(change.FixesSkipped, SkippedFix{RuleCode: code, Reason: SkipSafety, Location: v.Location})
				continue
			}
			if len(v.SuggestedFix.Edits) == 0 {
				change.FixesSkipped = append(change.FixesSkipped, SkippedFix{RuleCode: code, Reason: SkipNoEdits, Location: v.Location})
				continue
			}
			candidates = append(candidates, fixCandidate{ruleCode: code, location: v.Location, fixMode: mode, fix: v.SuggestedFix})
		}
	}

	return candidates
}

func (c *Coordinator) safetyAllowed(safety rules.FixSafety) bool {
	threshold := c.SafetyThreshold
	if c.UnsafeAllowed {
		threshold = rules.FixUnsafe
	}
	return safety <= threshold
}

// applyPass applies as many non-conflicting candidates as possible to
// content in a single pass, end-to-start by byte offset so no edit ever
// needs its own position adjusted for an earlier one in the same pass.
// Candidates whose edits overlap an edit already reserved earlier in the
// pass are skipped with SkipConflict and retried on the next pass, once
// the conflicting edit has either landed or been dropped.
func (c *Coordinator) applyPass(content []byte, candidates []fixCandidate, change *FileChange) (int, []byte) {
	type reservation struct {
		cand  fixCandidate
		edits []rules.TextEdit
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].fix.Priority != candidates[j].fix.Priority {
			return candidates[i].fix.Priority < candidates[j].fix.Priority
		}
		return compareEdits(candidates[i].fix.Edits[0], candidates[j].fix.Edits[0])
	})

	var reserved []mdcontext.Range
	var toApply []reservation

	for _, cand := range candidates {
		conflicted := false
		for _, e := range cand.fix.Edits {
			for _, r := range reserved {
				if e.Range.Overlaps(r) {
					conflicted = true
					break
				}
			}
			if conflicted {
				break
			}
		}
		if conflicted {
			change.FixesSkipped = append(change.FixesSkipped, SkippedFix{RuleCode: cand.ruleCode, Reason: SkipConflict, Location: cand.location})
			continue
		}
		for _, e := range cand.fix.Edits {
			reserved = append(reserved, e.Range)
		}
		toApply = append(toApply, reservation{cand: cand, edits: cand.fix.Edits})
	}

	// Flatten to one descending-offset edit list so unrelated candidates'
	// edits interleave correctly when applied end-to-start.
	type editRef struct {
		edit rules.TextEdit
		idx  int
	}
	var flat []editRef
	for i, r := range toApply {
		for _, e := range r.edits {
			flat = append(flat, editRef{edit: e, idx: i})
		}
	}
	sort.SliceStable(flat, func(i, j int) bool { return compareEdits(flat[i].edit, flat[j].edit) })

	out := append([]byte(nil), content...)
	for _, ref := range flat {
		out = applyEdit(out, ref.edit)
	}

	for _, r := range toApply {
		change.FixesApplied = append(change.FixesApplied, AppliedFix{
			RuleCode:    r.cand.ruleCode,
			Description: r.cand.fix.Description,
			Location:    r.cand.location,
			Edits:       r.edits,
		})
	}

	return len(toApply), out
}

// applyEdit replaces content[e.Range.Start:e.Range.End] with e.NewText.
func applyEdit(content []byte, e rules.TextEdit) []byte {
	if e.Range.Start < 0 || e.Range.End > len(content) || e.Range.Start > e.Range.End {
		return content
	}
	out := make([]byte, 0, len(content)-e.Range.Len()+len(e.NewText))
	out = append(out, content[:e.Range.Start]...)
	out = append(out, e.NewText...)
	out = append(out, content[e.Range.End:]...)
	return out
}

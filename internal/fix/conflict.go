package fix

import "github.com/rumdl-go/rumdl/internal/rules"

// editsOverlap reports whether two edits touch any of the same bytes.
func editsOverlap(a, b rules.TextEdit) bool {
	return a.Range.Overlaps(b.Range)
}

// compareEdits orders edits by descending start offset so a pass's edits
// can be applied end-to-start: applying the edit with the highest byte
// offset first means no earlier edit in the pass ever shifts the offsets
// the edits after it were computed against.
func compareEdits(a, b rules.TextEdit) bool {
	if a.Range.Start != b.Range.Start {
		return a.Range.Start > b.Range.Start
	}
	return a.Range.End > b.Range.End
}

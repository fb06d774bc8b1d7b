package processor

import (
	"strings"

	"github.com/rumdl-go/rumdl/internal/buffer"
	"github.com/rumdl-go/rumdl/internal/rules"
)

// SnippetAttachment populates the SourceCode field of violations. This
// extracts the relevant source code snippet for each violation location,
// enabling reporters to display context without re-parsing files.
type SnippetAttachment struct{}

// NewSnippetAttachment creates a new snippet attachment processor.
func NewSnippetAttachment() *SnippetAttachment {
	return &SnippetAttachment{}
}

// Name returns the processor's identifier.
func (p *SnippetAttachment) Name() string {
	return "snippet-attachment"
}

// Process attaches source code snippets to violations. Skips violations
// that already have SourceCode set or where the file is not in the
// context's FileSources.
func (p *SnippetAttachment) Process(violations []rules.Violation, ctx *Context) []rules.Violation {
	return transformViolations(violations, func(v rules.Violation) rules.Violation {
		if v.SourceCode != "" {
			return v
		}
		if v.Location.IsFileLevel() {
			return v
		}
		buf := ctx.GetBuffer(v.Location.File)
		if buf == nil {
			return v
		}
		v.SourceCode = extractSnippet(buf, v.Location)
		return v
	})
}

// extractSnippet extracts source code for a location. Location lines are
// 0-based (LSP semantics), matching Buffer's own indexing.
func extractSnippet(buf *buffer.Buffer, loc rules.Location) string {
	if loc.IsPointLocation() {
		if loc.Start.Line < 0 {
			return ""
		}
		return string(buf.Line(loc.Start.Line))
	}

	endLine := loc.End.Line
	if loc.End.Column == 0 && endLine > loc.Start.Line {
		endLine--
	}
	if loc.Start.Line < 0 || endLine < 0 {
		return ""
	}

	var b strings.Builder
	for i := loc.Start.Line; i <= endLine && i < buf.LineCount(); i++ {
		if i > loc.Start.Line {
			b.WriteByte('\n')
		}
		b.Write(buf.Line(i))
	}
	return b.String()
}

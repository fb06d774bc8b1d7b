package rules

import "github.com/rumdl-go/rumdl/internal/buffer"

// Position represents a single point in a source file, 0-based (LSP
// semantics) so the JSON and SARIF reporters can use it directly.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column,omitempty"`
}

// Location represents a range in a source file.
//
// Following LSP conventions, Start is inclusive and End is exclusive: End
// points to the first position after the covered text.
type Location struct {
	File string `json:"file"`
	// Start is the starting position (inclusive, 0-based).
	Start Position `json:"start"`
	// End is the ending position (exclusive, LSP semantics). If negative,
	// it's a point location.
	End Position `json:"end"`
}

// NewFileLocation creates a location for file-level issues (no specific
// line). Uses -1 as sentinel since 0 is a valid line number.
func NewFileLocation(file string) Location {
	return Location{
		File:  file,
		Start: Position{Line: -1, Column: -1},
		End:   Position{Line: -1, Column: -1},
	}
}

// NewLineLocation creates a point location for a specific line (0-based).
func NewLineLocation(file string, line int) Location {
	return Location{
		File:  file,
		Start: Position{Line: line, Column: 0},
		End:   Position{Line: -1, Column: -1},
	}
}

// NewRangeLocation creates a location spanning multiple lines/columns
// (0-based).
func NewRangeLocation(file string, startLine, startCol, endLine, endCol int) Location {
	return Location{
		File:  file,
		Start: Position{Line: startLine, Column: startCol},
		End:   Position{Line: endLine, Column: endCol},
	}
}

// NewLocationFromByteRange converts a [start, end) byte range against buf
// into a line/column Location. Used to turn the byte-offset ranges that
// Lint Context inventories produce into the coordinates rules and
// reporters work with.
func NewLocationFromByteRange(file string, buf *buffer.Buffer, start, end int) Location {
	startLine := buf.LineAt(start)
	endLine := buf.LineAt(end)
	return Location{
		File:  file,
		Start: Position{Line: startLine, Column: buf.Column(start)},
		End:   Position{Line: endLine, Column: buf.Column(end)},
	}
}

// IsFileLevel reports whether this is a file-level location (no specific
// line).
func (l Location) IsFileLevel() bool {
	return l.Start.Line < 0
}

// IsPointLocation reports whether this is a single-point location (no
// range). A point location has End.Line < 0 (unset) or End equals Start.
func (l Location) IsPointLocation() bool {
	return l.End.Line < 0 || (l.End.Line == l.Start.Line && l.End.Column == l.Start.Column)
}

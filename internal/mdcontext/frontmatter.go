package mdcontext

import "github.com/rumdl-go/rumdl/internal/buffer"

// FrontMatterKind identifies the front matter delimiter style found at the
// top of a document.
type FrontMatterKind int

const (
	FrontMatterNone FrontMatterKind = iota
	FrontMatterYAML                 // --- ... ---
	FrontMatterTOML                 // +++ ... +++
	FrontMatterJSON                 // { ... } as the very first bytes
)

// detectFrontMatter looks for a front matter block at the very start of the
// buffer and returns its byte range (delimiters included), whether one was
// found, and which style it used.
func detectFrontMatter(b *buffer.Buffer) (Range, bool, FrontMatterKind) {
	if b.LineCount() == 0 {
		return Range{}, false, FrontMatterNone
	}
	first := b.Line(0)
	switch string(first) {
	case "---":
		if end, ok := findClosingDelimiter(b, "---"); ok {
			return Range{Start: 0, End: end}, true, FrontMatterYAML
		}
	case "+++":
		if end, ok := findClosingDelimiter(b, "+++"); ok {
			return Range{Start: 0, End: end}, true, FrontMatterTOML
		}
	}
	if len(first) > 0 && first[0] == '{' {
		if end, ok := findJSONFrontMatterEnd(b); ok {
			return Range{Start: 0, End: end}, true, FrontMatterJSON
		}
	}
	return Range{}, false, FrontMatterNone
}

func findClosingDelimiter(b *buffer.Buffer, delim string) (int, bool) {
	for i := 1; i < b.LineCount(); i++ {
		if string(b.Line(i)) == delim {
			return b.LineEnd(i), true
		}
	}
	return 0, false
}

// findJSONFrontMatterEnd does a brace-depth scan from the start of the
// buffer; JSON front matter is rare enough (MkDocs/Hugo) that a full JSON
// parse isn't worth pulling in just to find the closing brace.
func findJSONFrontMatterEnd(b *buffer.Buffer) (int, bool) {
	content := b.Bytes()
	depth := 0
	inString := false
	escaped := false
	for i, c := range content {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

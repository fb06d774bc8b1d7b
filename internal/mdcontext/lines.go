package mdcontext

import (
	"bytes"
)

// LineInfo holds precomputed, read-only metadata for a single line. All
// fields are filled in during Context construction; nothing here is
// recomputed lazily.
type LineInfo struct {
	Range Range

	IndentSpaces int
	IndentColumn int // tab-expanded column (tab stop = 4)

	InFrontMatter      bool
	InFencedCode       bool
	InIndentedCode     bool
	InHTMLBlock        bool
	InHTMLComment      bool
	IsBlank            bool
	IsHeadingATX       bool
	IsHeadingSetext    bool
	IsListMarker       bool
	IsBlockquotePrefix bool
	IsTableRow         bool
	IsTableSeparator   bool
	InTemplateDirective bool
	InESMBlock         bool // MDX
	InJSXBlock         bool // MDX
	InChunk            bool // Quarto

	BlockquoteDepth int

	// ParentListItem indexes into Context.listItems, or -1 if this line is
	// not part of any list item. Precomputed so ancestor lookups used by
	// rules like "ordered list prefix" and "unordered list indent" are O(1)
	// instead of the naive O(n^2) walk a line-by-line rule would otherwise
	// perform.
	ParentListItem int
}

const tabStop = 4

func expandIndent(line []byte) (spaces, column int) {
	for _, c := range line {
		switch c {
		case ' ':
			spaces++
			column++
		case '\t':
			spaces++
			column += tabStop - (column % tabStop)
		default:
			return
		}
	}
	return
}

var fenceChars = [2]byte{'`', '~'}

// fenceInfo describes an open fenced code block.
type fenceInfo struct {
	char        byte
	length      int
	indentCol   int
	startOffset int // byte offset where the opening fence line begins
}

func isFenceLine(line []byte) (char byte, length int, ok bool) {
	trimmed := bytes.TrimLeft(line, " \t")
	if len(trimmed) == 0 {
		return 0, 0, false
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return 0, 0, false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return 0, 0, false
	}
	return c, n, true
}

func isBlank(line []byte) bool {
	return len(bytes.TrimSpace(line)) == 0
}

func isATXHeading(line []byte) bool {
	trimmed := bytes.TrimLeft(line, " ")
	if len(trimmed) == 0 || trimmed[0] != '#' {
		return false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == '#' {
		n++
	}
	if n > 6 {
		return false
	}
	return n == len(trimmed) || trimmed[n] == ' ' || trimmed[n] == '\t'
}

func isSetextUnderline(line []byte) (level int, ok bool) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return 0, false
	}
	if allBytesEqual(trimmed, '=') {
		return 1, true
	}
	if allBytesEqual(trimmed, '-') && len(trimmed) > 0 {
		return 2, true
	}
	return 0, false
}

func allBytesEqual(b []byte, c byte) bool {
	for _, x := range b {
		if x != c {
			return false
		}
	}
	return len(b) > 0
}

var listMarkerBullets = []byte{'-', '*', '+'}

func isUnorderedMarker(trimmed []byte) bool {
	if len(trimmed) == 0 {
		return false
	}
	for _, b := range listMarkerBullets {
		if trimmed[0] == b && (len(trimmed) == 1 || trimmed[1] == ' ' || trimmed[1] == '\t') {
			return true
		}
	}
	return false
}

func isOrderedMarker(trimmed []byte) (ordinal int, width int, ok bool) {
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i == 0 || i > 9 {
		return 0, 0, false
	}
	if i >= len(trimmed) || (trimmed[i] != '.' && trimmed[i] != ')') {
		return 0, 0, false
	}
	rest := i + 1
	if rest < len(trimmed) && trimmed[rest] != ' ' && trimmed[rest] != '\t' {
		return 0, 0, false
	}
	n := 0
	for _, c := range trimmed[:i] {
		n = n*10 + int(c-'0')
	}
	return n, rest + 1, true
}

func blockquoteDepth(line []byte) (depth int, rest []byte) {
	r := line
	for {
		trimmed := bytes.TrimLeft(r, " ")
		if len(trimmed) == 0 || trimmed[0] != '>' {
			break
		}
		depth++
		r = trimmed[1:]
		if len(r) > 0 && r[0] == ' ' {
			r = r[1:]
		}
	}
	return depth, r
}

var tableSepOnly = func(b byte) bool {
	return b == '-' || b == ':' || b == '|' || b == ' ' || b == '\t'
}

func looksLikeTableSeparator(line []byte) bool {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return false
	}
	hasDash := false
	for _, c := range trimmed {
		if !tableSepOnly(c) {
			return false
		}
		if c == '-' {
			hasDash = true
		}
	}
	return hasDash
}

func looksLikeTableRow(line []byte, pipesInCodeDelimit bool, codeSpans RangeSet, lineStart int) bool {
	for i := 0; i < len(line); i++ {
		if line[i] != '|' {
			continue
		}
		if i > 0 && line[i-1] == '\\' {
			continue
		}
		if !pipesInCodeDelimit && codeSpans.Contains(lineStart+i) {
			continue
		}
		return true
	}
	return false
}

var htmlBlockStart = []byte("<!--")

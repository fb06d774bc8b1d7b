// Package buffer owns the raw bytes of a Markdown document and provides
// boundary-safe access to them.
//
// A Buffer normalizes line endings to LF internally (remembering the
// original ending so output can restore it) and precomputes line-start byte
// offsets once, up front, so every other component in the engine can do
// O(1) line lookups and O(log n) offset-to-line lookups without rescanning
// the source.
package buffer

import (
	"bytes"
	"sort"
)

// Ending identifies the line-ending style detected in the original source.
type Ending int

const (
	// EndingLF is the default when the source has no CRLF or lone CR.
	EndingLF Ending = iota
	EndingCRLF
	EndingCR
)

// String returns the literal bytes for the ending.
func (e Ending) String() string {
	switch e {
	case EndingCRLF:
		return "\r\n"
	case EndingCR:
		return "\r"
	default:
		return "\n"
	}
}

// Buffer holds normalized document content plus the metadata needed for
// boundary-safe slicing and line/offset conversion.
type Buffer struct {
	// content is always LF-normalized, valid UTF-8.
	content []byte
	ending  Ending
	// lineStarts[i] is the byte offset where line i (0-based) begins.
	lineStarts []int
}

// New constructs a Buffer from raw document bytes, detecting and recording
// the original line ending style. The detection order is CRLF, then lone CR,
// then LF: a file that uses CRLF consistently is classified CRLF even though
// it also contains bare '\n' once normalized.
func New(raw []byte) *Buffer {
	ending := EndingLF
	switch {
	case bytes.Contains(raw, []byte("\r\n")):
		ending = EndingCRLF
	case bytes.ContainsRune(raw, '\r'):
		ending = EndingCR
	}

	content := raw
	switch ending {
	case EndingCRLF:
		content = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	case EndingCR:
		content = bytes.ReplaceAll(raw, []byte("\r"), []byte("\n"))
	}

	b := &Buffer{content: content, ending: ending}
	b.indexLines()
	return b
}

func (b *Buffer) indexLines() {
	starts := []int{0}
	for i, c := range b.content {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	b.lineStarts = starts
}

// Bytes returns the LF-normalized content. Callers must not mutate it.
func (b *Buffer) Bytes() []byte { return b.content }

// Len returns the length in bytes of the normalized content.
func (b *Buffer) Len() int { return len(b.content) }

// LineCount returns the number of lines (a trailing line with no terminator
// still counts as one line).
func (b *Buffer) LineCount() int { return len(b.lineStarts) }

// Ending returns the line-ending style detected in the original source.
func (b *Buffer) Ending() Ending { return b.ending }

// LineStart returns the byte offset where the given 0-based line begins.
// Returns -1 if out of range.
func (b *Buffer) LineStart(line int) int {
	if line < 0 || line >= len(b.lineStarts) {
		return -1
	}
	return b.lineStarts[line]
}

// LineEnd returns the byte offset one past the last non-newline byte of the
// given 0-based line (i.e. the offset of the '\n', or Len() for the final
// line if it has no trailing newline).
func (b *Buffer) LineEnd(line int) int {
	start := b.LineStart(line)
	if start < 0 {
		return -1
	}
	if idx := bytes.IndexByte(b.content[start:], '\n'); idx >= 0 {
		return start + idx
	}
	return len(b.content)
}

// Line returns the text of the given 0-based line, excluding the newline.
func (b *Buffer) Line(line int) []byte {
	start, end := b.LineStart(line), b.LineEnd(line)
	if start < 0 {
		return nil
	}
	return b.content[start:end]
}

// LineAt returns the 0-based line number containing the given byte offset.
// Offsets past the end of the content return the last line.
func (b *Buffer) LineAt(offset int) int {
	// lineStarts is sorted ascending; find the last start <= offset.
	i := sort.Search(len(b.lineStarts), func(i int) bool {
		return b.lineStarts[i] > offset
	})
	if i == 0 {
		return 0
	}
	return i - 1
}

// Column returns the 0-based byte column of offset within its line.
func (b *Buffer) Column(offset int) int {
	line := b.LineAt(offset)
	return offset - b.lineStarts[line]
}

// Slice returns content[start:end], clamped to valid, UTF-8-boundary-safe
// bounds. It never panics and never splits a multi-byte rune: a boundary
// that lands inside a rune is pulled back to the start of that rune.
func (b *Buffer) Slice(start, end int) []byte {
	start = clamp(start, 0, len(b.content))
	end = clamp(end, 0, len(b.content))
	if start > end {
		start, end = end, start
	}
	start = b.backToRuneBoundary(start)
	end = b.backToRuneBoundary(end)
	return b.content[start:end]
}

// backToRuneBoundary walks an offset backwards until it is not in the middle
// of a UTF-8 continuation sequence.
func (b *Buffer) backToRuneBoundary(off int) int {
	for off > 0 && off < len(b.content) && isContinuationByte(b.content[off]) {
		off--
	}
	return off
}

func isContinuationByte(c byte) bool { return c&0xC0 == 0x80 }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RestoreEnding rewrites LF-normalized content back to the buffer's original
// line ending style. Used when emitting final fixed output.
func (b *Buffer) RestoreEnding(content []byte) []byte {
	switch b.ending {
	case EndingCRLF:
		return bytes.ReplaceAll(content, []byte("\n"), []byte("\r\n"))
	case EndingCR:
		return bytes.ReplaceAll(content, []byte("\n"), []byte("\r"))
	default:
		return content
	}
}

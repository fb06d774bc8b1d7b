// Package mdcontext implements the Lint Context: a single immutable,
// precomputed analysis of a Markdown document that every rule reads from
// instead of re-parsing the source itself.
//
// Construction is eager for line classification and range sets (front
// matter, fenced/indented code, HTML blocks and comments) because nearly
// every rule needs them. Heavier inventories that only a handful of rules
// touch -- code spans, link/image references, heading slugs -- are computed
// lazily on first access, each guarded by its own sync.Once so concurrent
// rule goroutines sharing one Context never race or recompute.
package mdcontext

import (
	"sync"

	"github.com/rumdl-go/rumdl/internal/buffer"
	"github.com/rumdl-go/rumdl/internal/flavor"
)

// Context is the precomputed view of one document. It is safe for
// concurrent read access from multiple rule goroutines; nothing on it is
// mutated after New returns except through the documented lazy-init
// sync.Once fields.
type Context struct {
	buf     *buffer.Buffer
	profile flavor.Profile

	lines []LineInfo

	frontMatter     Range
	hasFrontMatter  bool
	frontMatterKind FrontMatterKind

	fencedCode   RangeSet
	indentedCode RangeSet
	htmlBlocks   RangeSet
	htmlComments RangeSet

	listItems []ListItem

	headingsOnce sync.Once
	headings     []Heading

	codeSpansOnce sync.Once
	codeSpans     RangeSet

	linksOnce   sync.Once
	links       []LinkRef
	refDefs     map[string]RefDefinition

	tablesOnce sync.Once
	tables     []TableRange

	charFreqOnce sync.Once
	charFreq     [256]int
}

// New builds a Context for raw document bytes under the given flavor
// profile. Construction performs a single forward pass over the lines to
// classify each one and to grow the fenced/indented-code, HTML-block and
// HTML-comment range sets; list-item boundaries and blockquote depth are
// also resolved during this pass so later stages never re-scan raw bytes.
func New(raw []byte, profile flavor.Profile) *Context {
	c := &Context{profile: profile}
	c.buf = buffer.New(raw)
	c.frontMatter, c.hasFrontMatter, c.frontMatterKind = detectFrontMatter(c.buf)
	c.scanLines()
	return c
}

// Buffer returns the underlying Source Buffer.
func (c *Context) Buffer() *buffer.Buffer { return c.buf }

// Flavor returns the dialect profile this Context was built under.
func (c *Context) Flavor() flavor.Profile { return c.profile }

// LineCount returns the number of lines in the document.
func (c *Context) LineCount() int { return len(c.lines) }

// Line returns the precomputed metadata for a 0-based line index.
func (c *Context) Line(i int) LineInfo {
	if i < 0 || i >= len(c.lines) {
		return LineInfo{ParentListItem: -1}
	}
	return c.lines[i]
}

// Lines returns every line's metadata. Callers must not mutate the slice.
func (c *Context) Lines() []LineInfo { return c.lines }

// HasFrontMatter reports whether the document opens with a front matter
// block, and FrontMatterRange reports its byte extent (delimiters
// included).
func (c *Context) HasFrontMatter() bool       { return c.hasFrontMatter }
func (c *Context) FrontMatterRange() Range    { return c.frontMatter }
func (c *Context) FrontMatterKind() FrontMatterKind { return c.frontMatterKind }

// FencedCodeRanges returns the byte ranges of fenced code blocks (fences
// included).
func (c *Context) FencedCodeRanges() RangeSet { return c.fencedCode }

// IndentedCodeRanges returns the byte ranges of 4-space indented code
// blocks.
func (c *Context) IndentedCodeRanges() RangeSet { return c.indentedCode }

// HTMLBlockRanges returns the byte ranges of block-level raw HTML.
func (c *Context) HTMLBlockRanges() RangeSet { return c.htmlBlocks }

// HTMLCommentRanges returns the byte ranges of `<!-- ... -->` comments,
// which the directive scanner and several rules treat specially.
func (c *Context) HTMLCommentRanges() RangeSet { return c.htmlComments }

// InCodeBlock reports whether offset falls inside fenced or indented code.
func (c *Context) InCodeBlock(offset int) bool {
	return c.fencedCode.Contains(offset) || c.indentedCode.Contains(offset)
}

// ListItems returns the precomputed list-item inventory built during the
// line scan.
func (c *Context) ListItems() []ListItem { return c.listItems }

func (c *Context) scanLines() {
	n := c.buf.LineCount()
	c.lines = make([]LineInfo, n)

	var fencedRanges, indentedRanges, htmlBlockRanges, htmlCommentRanges []Range
	var openFence *fenceInfo
	var indentedStart = -1
	var htmlBlockStartOff = -1
	var prevBlank = true
	listStack := newListStack()

	for i := 0; i < n; i++ {
		lineBytes := c.buf.Line(i)
		lineStart := c.buf.LineStart(i)
		lineEnd := c.buf.LineEnd(i)
		info := LineInfo{
			Range:          Range{Start: lineStart, End: lineEnd},
			ParentListItem: -1,
		}
		info.InFrontMatter = c.hasFrontMatter && c.frontMatter.Overlaps(info.Range)
		info.IndentSpaces, info.IndentColumn = expandIndent(lineBytes)
		info.IsBlank = isBlank(lineBytes)

		if openFence != nil {
			info.InFencedCode = true
			if ch, length, ok := isFenceLine(lineBytes); ok && ch == openFence.char && length >= openFence.length && info.IndentColumn <= openFence.indentCol+3 {
				fencedRanges = append(fencedRanges, Range{Start: openFence.startOffset, End: lineEnd})
				openFence = nil
			}
			c.lines[i] = info
			prevBlank = info.IsBlank
			continue
		}

		if !info.InFrontMatter && !info.IsBlank {
			if ch, length, ok := isFenceLine(lineBytes); ok {
				info.InFencedCode = true
				openFence = &fenceInfo{char: ch, length: length, indentCol: info.IndentColumn, startOffset: lineStart}
				c.lines[i] = info
				prevBlank = false
				continue
			}
		}

		if prevBlank && !info.InFrontMatter && info.IndentColumn >= 4 && !info.IsBlank {
			info.InIndentedCode = true
			if indentedStart < 0 {
				indentedStart = lineStart
			}
		} else if indentedStart >= 0 {
			indentedRanges = append(indentedRanges, Range{Start: indentedStart, End: lineStart})
			indentedStart = -1
		}

		trimmedLeft := trimLeftSpaces(lineBytes)
		if htmlBlockStartOff < 0 && hasPrefix(trimmedLeft, htmlBlockStart) {
			htmlBlockStartOff = lineStart
		}
		if htmlBlockStartOff >= 0 {
			info.InHTMLComment = true
			info.InHTMLBlock = true
			if idx := indexOf(lineBytes, []byte("-->")); idx >= 0 {
				htmlCommentRanges = append(htmlCommentRanges, Range{Start: htmlBlockStartOff, End: lineStart + idx + 3})
				htmlBlockRanges = append(htmlBlockRanges, Range{Start: htmlBlockStartOff, End: lineStart + idx + 3})
				htmlBlockStartOff = -1
			}
		}

		depth, afterQuote := blockquoteDepth(lineBytes)
		info.BlockquoteDepth = depth
		info.IsBlockquotePrefix = depth > 0

		if !info.IsBlank {
			if isATXHeading(afterQuote) {
				info.IsHeadingATX = true
			} else if !prevBlank && i > 0 {
				if level, ok := isSetextUnderline(lineBytes); ok && !c.lines[i-1].IsBlank && !c.lines[i-1].IsHeadingATX {
					info.IsHeadingSetext = true
					_ = level
				}
			}
		}

		trimmedQuote := trimLeftSpaces(afterQuote)
		if isUnorderedMarker(trimmedQuote) {
			info.IsListMarker = true
		} else if _, _, ok := isOrderedMarker(trimmedQuote); ok {
			info.IsListMarker = true
		}
		info.ParentListItem = listStack.advance(i, info, lineBytes)

		if looksLikeTableSeparator(afterQuote) && i > 0 && !c.lines[i-1].IsBlank {
			info.IsTableSeparator = true
			c.lines[i-1].IsTableRow = true
			info.IsTableRow = true
		} else if looksLikeTableRow(afterQuote, c.profile.TablePipesInCodeSpansDelimit, RangeSet{}, lineStart) {
			info.IsTableRow = true
		}

		c.lines[i] = info
		prevBlank = info.IsBlank
	}

	if openFence != nil {
		fencedRanges = append(fencedRanges, Range{Start: openFence.startOffset, End: c.buf.Len()})
	}
	if indentedStart >= 0 {
		indentedRanges = append(indentedRanges, Range{Start: indentedStart, End: c.buf.Len()})
	}
	if htmlBlockStartOff >= 0 {
		htmlBlockRanges = append(htmlBlockRanges, Range{Start: htmlBlockStartOff, End: c.buf.Len()})
	}

	c.fencedCode = NewRangeSet(fencedRanges)
	c.indentedCode = NewRangeSet(indentedRanges)
	c.htmlBlocks = NewRangeSet(htmlBlockRanges)
	c.htmlComments = NewRangeSet(htmlCommentRanges)
	c.listItems = listStack.items
}

func trimLeftSpaces(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	return b[i:]
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

func indexOf(haystack, needle []byte) int {
	if len(needle) == 0 || len(haystack) < len(needle) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

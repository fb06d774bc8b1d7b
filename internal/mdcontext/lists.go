package mdcontext

// ListItem describes one list item's extent and marker, precomputed during
// the line scan so rules never need to walk sibling lines to find an item's
// parent or indentation contract.
type ListItem struct {
	Range       Range
	StartLine   int
	EndLine     int
	Ordered     bool
	Ordinal     int // meaningful only when Ordered
	MarkerByte  byte
	IndentCol   int // column of the marker itself
	ContentCol  int // column where item content begins
	Depth       int // nesting depth, 0 = top level
	ParentIndex int // index into Context.listItems, or -1
}

// listStack incrementally assigns each scanned line to a ListItem, opening
// a new item when a marker line is seen at a indentation not already
// claimed by a deeper open item, and closing items once a line's
// indentation no longer reaches their content column.
type listStack struct {
	items []ListItem
	open  []int // indices into items, outermost first
}

func newListStack() *listStack {
	return &listStack{}
}

// advance feeds one more scanned line into the stack and returns the
// ListItem index the line belongs to, or -1.
func (s *listStack) advance(lineIdx int, info LineInfo, raw []byte) int {
	if info.IsBlank {
		if len(s.open) > 0 {
			top := s.open[len(s.open)-1]
			s.items[top].EndLine = lineIdx
			return top
		}
		return -1
	}

	for len(s.open) > 0 {
		top := s.open[len(s.open)-1]
		item := &s.items[top]
		if info.IndentColumn < item.ContentCol {
			item.EndLine = lineIdx
			s.open = s.open[:len(s.open)-1]
			continue
		}
		break
	}

	if info.IsListMarker {
		trimmed := trimLeftSpaces(raw)
		depth := len(s.open)
		parent := -1
		if depth > 0 {
			parent = s.open[depth-1]
		}

		item := ListItem{
			StartLine:   lineIdx,
			EndLine:     lineIdx,
			IndentCol:   info.IndentColumn,
			Depth:       depth,
			ParentIndex: parent,
		}
		if ord, width, ok := isOrderedMarker(trimmed); ok {
			item.Ordered = true
			item.Ordinal = ord
			item.ContentCol = info.IndentColumn + width
		} else {
			item.MarkerByte = trimmed[0]
			width := 2
			if len(trimmed) == 1 {
				width = 1
			}
			item.ContentCol = info.IndentColumn + width
		}
		idx := len(s.items)
		s.items = append(s.items, item)
		s.open = append(s.open, idx)
		return idx
	}

	if len(s.open) > 0 {
		top := s.open[len(s.open)-1]
		s.items[top].EndLine = lineIdx
		return top
	}
	return -1
}

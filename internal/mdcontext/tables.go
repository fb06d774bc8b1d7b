package mdcontext

// TableRange describes one GFM/MkDocs table block: a header row, a
// separator row, and zero or more body rows.
type TableRange struct {
	Range      Range
	HeaderLine int
	SeparatorLine int
	BodyStart  int
	BodyEnd    int // exclusive
	ColumnCount int
}

// Tables returns the document's table inventory, computed lazily from the
// line classification already produced during construction.
func (c *Context) Tables() []TableRange {
	c.tablesOnce.Do(func() {
		c.tables = c.scanTables()
	})
	return c.tables
}

func (c *Context) scanTables() []TableRange {
	var out []TableRange
	for i := 1; i < len(c.lines); i++ {
		if !c.lines[i].IsTableSeparator {
			continue
		}
		header := i - 1
		if !c.lines[header].IsTableRow || c.lines[header].InFencedCode {
			continue
		}
		body := i + 1
		for body < len(c.lines) && c.lines[body].IsTableRow && !c.lines[body].IsBlank {
			body++
		}
		cols := countColumns(c.buf.Line(i))
		out = append(out, TableRange{
			Range:         Range{Start: c.buf.LineStart(header), End: c.buf.LineEnd(body - 1)},
			HeaderLine:    header,
			SeparatorLine: i,
			BodyStart:     i + 1,
			BodyEnd:       body,
			ColumnCount:   cols,
		})
	}
	return out
}

func countColumns(sep []byte) int {
	trimmed := sep
	n := 0
	inCell := false
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] == '|' {
			if i == 0 || i == len(trimmed)-1 {
				continue
			}
		}
		if trimmed[i] == '-' || trimmed[i] == ':' {
			if !inCell {
				n++
				inCell = true
			}
		} else if trimmed[i] == '|' {
			inCell = false
		}
	}
	if n == 0 {
		n = 1
	}
	return n
}

package mdcontext

// CodeSpans returns the byte ranges of inline code spans (`` `like this` ``),
// computed lazily and cached. Fenced/indented code block ranges are
// excluded since those are tracked separately.
func (c *Context) CodeSpans() RangeSet {
	c.codeSpansOnce.Do(func() {
		c.codeSpans = NewRangeSet(c.scanCodeSpans())
	})
	return c.codeSpans
}

func (c *Context) scanCodeSpans() []Range {
	var out []Range
	for i, li := range c.lines {
		if li.InFencedCode || li.InIndentedCode || li.InFrontMatter {
			continue
		}
		line := c.buf.Line(i)
		lineStart := c.buf.LineStart(i)
		j := 0
		for j < len(line) {
			if line[j] != '`' {
				j++
				continue
			}
			runStart := j
			for j < len(line) && line[j] == '`' {
				j++
			}
			fence := j - runStart
			closeStart := -1
			k := j
			for k < len(line) {
				if line[k] == '`' {
					s := k
					for k < len(line) && line[k] == '`' {
						k++
					}
					if k-s == fence {
						closeStart = s
						break
					}
					continue
				}
				k++
			}
			if closeStart < 0 {
				break
			}
			out = append(out, Range{Start: lineStart + runStart, End: lineStart + k})
			j = k
		}
	}
	return out
}

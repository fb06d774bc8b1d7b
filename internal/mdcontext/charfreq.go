package mdcontext

// CharFrequency returns a 256-entry byte frequency table over the whole
// document, computed once. Rules that only fire when a particular
// character appears at all (for example a trailing-space check) use this
// to short-circuit a full line scan on documents that can't possibly
// trigger.
func (c *Context) CharFrequency() [256]int {
	c.charFreqOnce.Do(func() {
		for _, b := range c.buf.Bytes() {
			c.charFreq[b]++
		}
	})
	return c.charFreq
}

// HasByte reports whether the document contains at least one occurrence of
// b, via the cached frequency table.
func (c *Context) HasByte(b byte) bool {
	freq := c.CharFrequency()
	return freq[b] > 0
}

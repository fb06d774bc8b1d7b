package mdcontext

import (
	"bytes"
	"strconv"
	"strings"
)

// Heading describes one heading in document order.
type Heading struct {
	Line     int
	Level    int
	Text     string // inline markup stripped
	RawText  string // as written, minus leading hashes/trailing close-hashes
	Slug     string
	SetextStyle bool
}

// Headings returns the document's heading inventory, computed once on
// first access and cached for the life of the Context.
func (c *Context) Headings() []Heading {
	c.headingsOnce.Do(func() {
		c.headings = c.scanHeadings()
	})
	return c.headings
}

func (c *Context) scanHeadings() []Heading {
	var out []Heading
	slugCounts := map[string]int{}

	for i, li := range c.lines {
		if li.InFencedCode || li.InIndentedCode || li.InFrontMatter {
			continue
		}
		var level int
		var raw string
		switch {
		case li.IsHeadingATX:
			text := c.buf.Line(i)
			trimmed := bytes.TrimLeft(text, " ")
			n := 0
			for n < len(trimmed) && trimmed[n] == '#' {
				n++
			}
			level = n
			rest := bytes.TrimSpace(trimmed[n:])
			rest = bytes.TrimRight(rest, "#")
			rest = bytes.TrimRight(rest, " ")
			raw = string(rest)
		case li.IsHeadingSetext:
			if i == 0 {
				continue
			}
			prev := c.lines[i-1]
			if prev.IsHeadingATX || prev.IsBlank {
				continue
			}
			lvl, ok := isSetextUnderline(c.buf.Line(i))
			if !ok {
				continue
			}
			level = lvl
			raw = string(bytes.TrimSpace(c.buf.Line(i - 1)))
		default:
			continue
		}

		lineNum := i
		if li.IsHeadingSetext {
			lineNum = i - 1
		}

		text := stripInlineMarkup(raw)
		slug := githubSlug(text)
		if n, ok := slugCounts[slug]; ok {
			slugCounts[slug] = n + 1
			slug = slug + "-" + strconv.Itoa(n+1)
		} else {
			slugCounts[slug] = 0
		}

		out = append(out, Heading{
			Line:        lineNum,
			Level:       level,
			Text:        text,
			RawText:     raw,
			Slug:        slug,
			SetextStyle: li.IsHeadingSetext,
		})
	}
	return out
}

// stripInlineMarkup removes the inline emphasis/code/link markup that
// GitHub's slugger ignores when generating anchors. It is intentionally
// conservative: it strips delimiter characters without attempting a full
// inline parse, matching what a heading-only pass needs.
func stripInlineMarkup(s string) string {
	var b strings.Builder
	inCode := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '`':
			inCode = !inCode
		case !inCode && (c == '*' || c == '_'):
			// skip emphasis markers
		case !inCode && c == '\\' && i+1 < len(s):
			b.WriteByte(s[i+1])
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// githubSlug reproduces GitHub's heading-anchor algorithm: lowercase,
// strip everything but letters/digits/spaces/hyphens, then replace runs of
// spaces with a single hyphen.
func githubSlug(text string) string {
	lower := strings.ToLower(text)
	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	return b.String()
}

package md013linelength_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rumdl-go/rumdl/internal/flavor"
	"github.com/rumdl-go/rumdl/internal/mdcontext"
	"github.com/rumdl-go/rumdl/internal/rules"
	"github.com/rumdl-go/rumdl/internal/rules/md013linelength"
)

func TestFlagsLongLineWithBreakPoint(t *testing.T) {
	t.Parallel()
	doc := strings.Repeat("word ", 20) + "\n"
	ctx := mdcontext.New([]byte(doc), flavor.Get(flavor.GFM))
	r := md013linelength.New()
	v := r.Check(rules.LintInput{File: "doc.md", Context: ctx, Source: []byte(doc)})
	require.Len(t, v, 1)
}

func TestAllowsShortLines(t *testing.T) {
	t.Parallel()
	doc := "short line\n"
	ctx := mdcontext.New([]byte(doc), flavor.Get(flavor.GFM))
	r := md013linelength.New()
	v := r.Check(rules.LintInput{File: "doc.md", Context: ctx, Source: []byte(doc)})
	require.Empty(t, v)
}

func TestAllowsUnbreakableLongTokenByDefault(t *testing.T) {
	t.Parallel()
	doc := "https://example.com/" + strings.Repeat("a", 100) + "\n"
	ctx := mdcontext.New([]byte(doc), flavor.Get(flavor.GFM))
	r := md013linelength.New()
	v := r.Check(rules.LintInput{File: "doc.md", Context: ctx, Source: []byte(doc)})
	require.Empty(t, v)
}

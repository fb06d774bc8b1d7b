package md033noinlinehtml_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rumdl-go/rumdl/internal/flavor"
	"github.com/rumdl-go/rumdl/internal/mdcontext"
	"github.com/rumdl-go/rumdl/internal/rules"
	"github.com/rumdl-go/rumdl/internal/rules/md033noinlinehtml"
)

func check(t *testing.T, doc string) []rules.Violation {
	t.Helper()
	ctx := mdcontext.New([]byte(doc), flavor.Get(flavor.GFM))
	r := md033noinlinehtml.New()
	return r.Check(rules.LintInput{File: "doc.md", Context: ctx, Source: []byte(doc)})
}

func TestFlagsRawHTML(t *testing.T) {
	t.Parallel()
	v := check(t, "text <div>block</div> more\n")
	require.Len(t, v, 2)
}

func TestAllowsListedElements(t *testing.T) {
	t.Parallel()
	doc := "line one<br>line two\n"
	ctx := mdcontext.New([]byte(doc), flavor.Get(flavor.GFM))
	r := md033noinlinehtml.New()
	cfg := md033noinlinehtml.Config{AllowedElements: []string{"br"}}
	v := r.Check(rules.LintInput{File: "doc.md", Context: ctx, Source: []byte(doc), Config: cfg})
	require.Empty(t, v)
}

func TestIgnoresPlainText(t *testing.T) {
	t.Parallel()
	v := check(t, "nothing here\n")
	require.Empty(t, v)
}

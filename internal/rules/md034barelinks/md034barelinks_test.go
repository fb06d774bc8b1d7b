package md034barelinks_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rumdl-go/rumdl/internal/flavor"
	"github.com/rumdl-go/rumdl/internal/mdcontext"
	"github.com/rumdl-go/rumdl/internal/rules"
	"github.com/rumdl-go/rumdl/internal/rules/md034barelinks"
)

func check(t *testing.T, doc string) []rules.Violation {
	t.Helper()
	ctx := mdcontext.New([]byte(doc), flavor.Get(flavor.GFM))
	r := md034barelinks.New()
	return r.Check(rules.LintInput{File: "doc.md", Context: ctx, Source: []byte(doc)})
}

func TestFlagsBareURL(t *testing.T) {
	t.Parallel()
	v := check(t, "see https://example.com for info\n")
	require.Len(t, v, 1)
	require.NotNil(t, v[0].SuggestedFix)
}

func TestAllowsAngleBracketedURL(t *testing.T) {
	t.Parallel()
	v := check(t, "see <https://example.com> for info\n")
	require.Empty(t, v)
}

func TestAllowsMarkdownLinkSyntax(t *testing.T) {
	t.Parallel()
	v := check(t, "see [example](https://example.com) for info\n")
	require.Empty(t, v)
}

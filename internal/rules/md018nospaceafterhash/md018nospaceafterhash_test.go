package md018nospaceafterhash_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rumdl-go/rumdl/internal/flavor"
	"github.com/rumdl-go/rumdl/internal/mdcontext"
	"github.com/rumdl-go/rumdl/internal/rules"
	"github.com/rumdl-go/rumdl/internal/rules/md018nospaceafterhash"
)

func check(t *testing.T, doc string) []rules.Violation {
	t.Helper()
	ctx := mdcontext.New([]byte(doc), flavor.Get(flavor.GFM))
	r := md018nospaceafterhash.New()
	return r.Check(rules.LintInput{File: "doc.md", Context: ctx, Source: []byte(doc)})
}

func TestFlagsMissingSpace(t *testing.T) {
	t.Parallel()
	v := check(t, "#Heading\n")
	require.Len(t, v, 1)
	require.NotNil(t, v[0].SuggestedFix)
}

func TestAllowsProperHeading(t *testing.T) {
	t.Parallel()
	v := check(t, "# Heading\n")
	require.Empty(t, v)
}

func TestIgnoresHashtagLikeText(t *testing.T) {
	t.Parallel()
	v := check(t, "look at ###this###\n")
	require.Empty(t, v)
}

package md047filenewline_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rumdl-go/rumdl/internal/flavor"
	"github.com/rumdl-go/rumdl/internal/mdcontext"
	"github.com/rumdl-go/rumdl/internal/rules"
	"github.com/rumdl-go/rumdl/internal/rules/md047filenewline"
)

func check(t *testing.T, doc string) []rules.Violation {
	t.Helper()
	ctx := mdcontext.New([]byte(doc), flavor.Get(flavor.GFM))
	r := md047filenewline.New()
	return r.Check(rules.LintInput{File: "doc.md", Context: ctx, Source: []byte(doc)})
}

func TestFlagsMissingTrailingNewline(t *testing.T) {
	t.Parallel()
	v := check(t, "content")
	require.Len(t, v, 1)
}

func TestFlagsMultipleTrailingNewlines(t *testing.T) {
	t.Parallel()
	v := check(t, "content\n\n\n")
	require.Len(t, v, 1)
}

func TestAllowsSingleTrailingNewline(t *testing.T) {
	t.Parallel()
	v := check(t, "content\n")
	require.Empty(t, v)
}

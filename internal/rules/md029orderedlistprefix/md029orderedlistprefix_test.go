package md029orderedlistprefix_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rumdl-go/rumdl/internal/flavor"
	"github.com/rumdl-go/rumdl/internal/mdcontext"
	"github.com/rumdl-go/rumdl/internal/rules"
	"github.com/rumdl-go/rumdl/internal/rules/md029orderedlistprefix"
)

func check(t *testing.T, doc string) []rules.Violation {
	t.Helper()
	ctx := mdcontext.New([]byte(doc), flavor.Get(flavor.GFM))
	r := md029orderedlistprefix.New()
	return r.Check(rules.LintInput{File: "doc.md", Context: ctx, Source: []byte(doc)})
}

func TestAllowsSequentialNumbering(t *testing.T) {
	t.Parallel()
	v := check(t, "1. one\n2. two\n3. three\n")
	require.Empty(t, v)
}

func TestAllowsAllOnes(t *testing.T) {
	t.Parallel()
	v := check(t, "1. one\n1. two\n1. three\n")
	require.Empty(t, v)
}

func TestFlagsInconsistentNumbering(t *testing.T) {
	t.Parallel()
	v := check(t, "1. one\n2. two\n5. three\n")
	require.Len(t, v, 1)
}

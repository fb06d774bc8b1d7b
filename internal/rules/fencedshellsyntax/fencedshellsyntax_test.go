package fencedshellsyntax_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rumdl-go/rumdl/internal/flavor"
	"github.com/rumdl-go/rumdl/internal/mdcontext"
	"github.com/rumdl-go/rumdl/internal/rules"
	"github.com/rumdl-go/rumdl/internal/rules/fencedshellsyntax"
)

func check(t *testing.T, doc string) []rules.Violation {
	t.Helper()
	ctx := mdcontext.New([]byte(doc), flavor.Get(flavor.GFM))
	r := fencedshellsyntax.New()
	return r.Check(rules.LintInput{File: "doc.md", Context: ctx, Source: []byte(doc)})
}

func TestFlagsInvalidShellSyntax(t *testing.T) {
	t.Parallel()
	v := check(t, "```bash\nif [ -z foo\n```\n")
	require.Len(t, v, 1)
}

func TestAllowsValidShellSyntax(t *testing.T) {
	t.Parallel()
	v := check(t, "```bash\nif [ -z \"$foo\" ]; then echo yes; fi\n```\n")
	require.Empty(t, v)
}

func TestIgnoresNonShellLanguages(t *testing.T) {
	t.Parallel()
	v := check(t, "```python\nif (:\n```\n")
	require.Empty(t, v)
}

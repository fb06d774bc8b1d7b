// Package flavor parameterizes Markdown parsing for the dialects the engine
// supports: CommonMark, GitHub Flavored Markdown, MkDocs, MDX, and Quarto.
//
// A Flavor never changes rule semantics directly; it changes what the Lint
// Context recognizes as structural (admonitions, JSX, ESM, chunks,
// wiki-links, citations) so that rules built on top of the Context stay
// flavor-agnostic.
package flavor

import (
	"path/filepath"
	"strings"
)

// Flavor names a supported Markdown dialect.
type Flavor string

const (
	CommonMark Flavor = "commonmark"
	GFM        Flavor = "gfm"
	MkDocs     Flavor = "mkdocs"
	MDX        Flavor = "mdx"
	Quarto     Flavor = "quarto"
)

// Profile captures the parsing adjustments a Flavor makes.
type Profile struct {
	Flavor Flavor

	// TablePipesInCodeSpansDelimit controls whether a `|` inside a code span
	// still counts as a table column delimiter. GFM: yes. MkDocs: no.
	TablePipesInCodeSpansDelimit bool

	// Admonitions enables `!!! note` / `??? tip` block recognition (MkDocs).
	Admonitions bool

	// Snippets enables `--8<--` MkDocs snippet-include block recognition.
	Snippets bool

	// JSX enables JSX element range recognition (MDX).
	JSX bool

	// ESM enables `import`/`export` ESM region recognition (MDX).
	ESM bool

	// Chunks enables ```{python} executable chunk recognition (Quarto).
	Chunks bool

	// WikiLinks enables `[[Page Name]]` wiki-link recognition.
	WikiLinks bool

	// Citations enables `[@key]` Pandoc-style citation recognition (Quarto).
	Citations bool
}

// Profiles maps each supported Flavor to its Profile. Constructed once at
// package init and never mutated, matching the engine's "no process-wide
// mutable state" design rule (see SPEC_FULL.md §9).
var profiles = map[Flavor]Profile{
	CommonMark: {
		Flavor: CommonMark,
	},
	GFM: {
		Flavor:                       GFM,
		TablePipesInCodeSpansDelimit: true,
	},
	MkDocs: {
		Flavor:      MkDocs,
		Admonitions: true,
		Snippets:    true,
		WikiLinks:   true,
	},
	MDX: {
		Flavor: MDX,
		JSX:    true,
		ESM:    true,
	},
	Quarto: {
		Flavor:    Quarto,
		Chunks:    true,
		Citations: true,
		WikiLinks: true,
	},
}

// Get returns the Profile for a Flavor, falling back to CommonMark for any
// unrecognized value so callers never need to nil-check.
func Get(f Flavor) Profile {
	if p, ok := profiles[f]; ok {
		return p
	}
	return profiles[CommonMark]
}

// Default is the engine-wide default flavor when none is configured.
const Default = GFM

// DetectFromPath guesses a Flavor from a file's extension. ".mdx" implies
// MDX; everything else (including plain ".md") falls back to Default,
// since CommonMark/GFM/MkDocs/Quarto all share the same extensions and
// can only be told apart by explicit config.
func DetectFromPath(path string) Flavor {
	if strings.EqualFold(filepath.Ext(path), ".mdx") {
		return MDX
	}
	return Default
}

// ForFile resolves the effective Profile for a file: an explicit
// configured Flavor wins, otherwise the extension-based guess from
// DetectFromPath.
func ForFile(path string, configured Flavor) Profile {
	if configured != "" {
		return Get(configured)
	}
	return Get(DetectFromPath(path))
}

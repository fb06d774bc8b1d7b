// Package schemas embeds the JSON Schema documents that describe rumdl's
// root configuration shape and the per-rule option blocks of every
// ConfigurableRule in the catalog. internal/schemas/runtime resolves and
// validates against these at config-load time; `rumdl schema` serves them
// to editors for inline TOML completion.
package schemas

import (
	"embed"
	"fmt"
	"io/fs"
	"maps"
	"slices"
)

// RootConfigSchemaID identifies the schema for the top-level Config struct.
const RootConfigSchemaID = "https://schemas.rumdl.dev/root/rumdl-config.schema.json"

// ruleSchemaIDs maps a rule code to the schema ID describing its Options
// block. Only ConfigurableRule implementations need an entry here; rules
// that take no options beyond severity/fix are absent.
var ruleSchemaIDs = map[string]string{
	"MD009": "https://schemas.rumdl.dev/rules/md009/trailing-spaces.schema.json",
	"MD010": "https://schemas.rumdl.dev/rules/md010/hard-tabs.schema.json",
	"MD012": "https://schemas.rumdl.dev/rules/md012/multiple-blanks.schema.json",
	"MD013": "https://schemas.rumdl.dev/rules/md013/line-length.schema.json",
	"MD022": "https://schemas.rumdl.dev/rules/md022/headings-blanks.schema.json",
	"MD024": "https://schemas.rumdl.dev/rules/md024/duplicate-headings.schema.json",
	"MD029": "https://schemas.rumdl.dev/rules/md029/ordered-list-prefix.schema.json",
	"MD033": "https://schemas.rumdl.dev/rules/md033/no-inline-html.schema.json",
}

// ruleNamespaces maps a rule code to the Category its RuleMetadata
// declares, mirroring internal/rules.RuleMetadata.Category. There is no
// vendor-specific rule namespace in this engine's flat code space, so
// Category is the closest equivalent grouping for a schema index.
var ruleNamespaces = map[string]string{
	"MD009": "whitespace",
	"MD010": "whitespace",
	"MD012": "whitespace",
	"MD013": "whitespace",
	"MD022": "headings",
	"MD024": "headings",
	"MD029": "lists",
	"MD033": "html",
}

var schemaFilesByID = map[string]string{
	RootConfigSchemaID: "root/rumdl-config.schema.json",

	"https://schemas.rumdl.dev/rules/md009/trailing-spaces.schema.json":      "rules/md009/md009.schema.json",
	"https://schemas.rumdl.dev/rules/md010/hard-tabs.schema.json":            "rules/md010/md010.schema.json",
	"https://schemas.rumdl.dev/rules/md012/multiple-blanks.schema.json":      "rules/md012/md012.schema.json",
	"https://schemas.rumdl.dev/rules/md013/line-length.schema.json":          "rules/md013/md013.schema.json",
	"https://schemas.rumdl.dev/rules/md022/headings-blanks.schema.json":      "rules/md022/md022.schema.json",
	"https://schemas.rumdl.dev/rules/md024/duplicate-headings.schema.json":   "rules/md024/md024.schema.json",
	"https://schemas.rumdl.dev/rules/md029/ordered-list-prefix.schema.json":  "rules/md029/md029.schema.json",
	"https://schemas.rumdl.dev/rules/md033/no-inline-html.schema.json":       "rules/md033/md033.schema.json",
}

//go:embed root/*.json rules/*/*.json
var schemasFS embed.FS

// RuleSchemaID returns the schema ID for a rule code, or false if the rule
// has no dedicated options schema.
func RuleSchemaID(ruleCode string) (string, bool) {
	schemaID, ok := ruleSchemaIDs[ruleCode]
	return schemaID, ok
}

// RuleSchemaIDs returns a copy of the rule-code to schema-ID mapping.
func RuleSchemaIDs() map[string]string {
	out := make(map[string]string, len(ruleSchemaIDs))
	maps.Copy(out, ruleSchemaIDs)
	return out
}

// RuleNamespaces returns the sorted, deduplicated set of rule categories
// that have at least one schema-backed rule.
func RuleNamespaces() []string {
	seen := make(map[string]struct{}, len(ruleNamespaces))
	for code := range ruleSchemaIDs {
		ns, ok := ruleNamespaces[code]
		if !ok {
			continue
		}
		seen[ns] = struct{}{}
	}
	namespaces := make([]string, 0, len(seen))
	for ns := range seen {
		namespaces = append(namespaces, ns)
	}
	slices.Sort(namespaces)
	return namespaces
}

// SchemaFileByID returns the embedded file path backing a schema ID.
func SchemaFileByID(schemaID string) (string, bool) {
	path, ok := schemaFilesByID[schemaID]
	return path, ok
}

// AllSchemaIDs returns every embedded schema ID, root and rules combined.
func AllSchemaIDs() []string {
	ids := make([]string, 0, len(schemaFilesByID))
	for schemaID := range schemaFilesByID {
		ids = append(ids, schemaID)
	}
	return ids
}

// ReadSchemaByID reads the raw JSON bytes of an embedded schema.
func ReadSchemaByID(schemaID string) ([]byte, error) {
	path, ok := SchemaFileByID(schemaID)
	if !ok {
		return nil, fmt.Errorf("unknown schema ID %q", schemaID)
	}
	return fs.ReadFile(schemasFS, path)
}

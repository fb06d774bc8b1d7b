package schemas_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/rumdl-go/rumdl/internal/rules"
	_ "github.com/rumdl-go/rumdl/internal/rules/all"
	"github.com/rumdl-go/rumdl/internal/schemas"
)

func TestAllSchemaIDsAreReadable(t *testing.T) {
	t.Parallel()

	ids := schemas.AllSchemaIDs()
	if len(ids) == 0 {
		t.Fatal("AllSchemaIDs() returned no schema IDs")
	}

	for _, schemaID := range ids {
		data, err := schemas.ReadSchemaByID(schemaID)
		if err != nil {
			t.Fatalf("ReadSchemaByID(%q) error = %v", schemaID, err)
		}
		if len(data) == 0 {
			t.Fatalf("ReadSchemaByID(%q) returned empty data", schemaID)
		}
	}
}

func TestRuleSchemaMappingCoversConfigurableRules(t *testing.T) {
	t.Parallel()

	configurableRuleCodes := make(map[string]struct{})
	for _, rule := range rules.All() {
		if _, ok := rule.(rules.ConfigurableRule); !ok {
			continue
		}
		ruleCode := rule.Metadata().Code
		configurableRuleCodes[ruleCode] = struct{}{}

		if _, ok := schemas.RuleSchemaID(ruleCode); !ok {
			t.Errorf("missing schema mapping for configurable rule %q", ruleCode)
		}
	}

	for ruleCode := range schemas.RuleSchemaIDs() {
		if _, ok := configurableRuleCodes[ruleCode]; !ok {
			t.Errorf("schema mapping exists for non-configurable or unknown rule %q", ruleCode)
		}
	}
}

func TestRuleNamespacesMatchesRegisteredRules(t *testing.T) {
	t.Parallel()

	namespaces := schemas.RuleNamespaces()
	if len(namespaces) == 0 {
		t.Fatal("RuleNamespaces() returned no namespaces")
	}

	ruleCategory := make(map[string]string)
	for _, rule := range rules.All() {
		ruleCategory[rule.Metadata().Code] = rule.Metadata().Category
	}

	for ruleCode := range schemas.RuleSchemaIDs() {
		category, ok := ruleCategory[ruleCode]
		if !ok || category == "" {
			continue
		}
		if !slices.Contains(namespaces, category) {
			t.Errorf("category %q (from rule %q) not in RuleNamespaces()", category, ruleCode)
		}
	}

	if !slices.IsSorted(namespaces) {
		t.Errorf("RuleNamespaces() not sorted: %v", namespaces)
	}
}

func TestRootConfigSchemaIDUsesRumdlDomain(t *testing.T) {
	t.Parallel()

	if !strings.Contains(schemas.RootConfigSchemaID, "rumdl") {
		t.Errorf("RootConfigSchemaID = %q, want it to reference the rumdl schema domain", schemas.RootConfigSchemaID)
	}
}

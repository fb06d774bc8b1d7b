package driver

import (
	"github.com/rumdl-go/rumdl/internal/config"
	"github.com/rumdl-go/rumdl/internal/rules/md009trailingspaces"
	"github.com/rumdl-go/rumdl/internal/rules/md010hardtabs"
	"github.com/rumdl-go/rumdl/internal/rules/md012multipleblanks"
	"github.com/rumdl-go/rumdl/internal/rules/md013linelength"
	"github.com/rumdl-go/rumdl/internal/rules/md022headingsblanks"
	"github.com/rumdl-go/rumdl/internal/rules/md024duplicateheadings"
	"github.com/rumdl-go/rumdl/internal/rules/md029orderedlistprefix"
	"github.com/rumdl-go/rumdl/internal/rules/md033noinlinehtml"
)

// ruleTypedConfig resolves a rule's flat TOML options into its own typed
// Config for the subset of ConfigurableRule implementations the driver
// knows the concrete type of. Every Check implementation already falls
// back to its own DefaultConfig() when LintInput.Config doesn't type-
// assert (see md013linelength.resolveConfig for the pattern), so a rule
// missing from this switch still runs correctly -- it just never sees a
// non-default Config. The same switch feeds both the lint pass
// (checkAll) and the Fix Coordinator (via Coordinator.ResolveConfig), so
// the two never disagree about a rule's resolved options.
func ruleTypedConfig(code string, rc *config.RulesConfig) any {
	switch code {
	case "MD009":
		return config.DecodeRuleOptions(rc, code, md009trailingspaces.DefaultConfig())
	case "MD010":
		return config.DecodeRuleOptions(rc, code, md010hardtabs.DefaultConfig())
	case "MD012":
		return config.DecodeRuleOptions(rc, code, md012multipleblanks.DefaultConfig())
	case "MD013":
		return config.DecodeRuleOptions(rc, code, md013linelength.DefaultConfig())
	case "MD022":
		return config.DecodeRuleOptions(rc, code, md022headingsblanks.DefaultConfig())
	case "MD024":
		return config.DecodeRuleOptions(rc, code, md024duplicateheadings.DefaultConfig())
	case "MD029":
		return config.DecodeRuleOptions(rc, code, md029orderedlistprefix.DefaultConfig())
	case "MD033":
		return config.DecodeRuleOptions(rc, code, md033noinlinehtml.DefaultConfig())
	default:
		return nil
	}
}

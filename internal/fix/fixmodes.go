package fix

import "github.com/rumdl-go/rumdl/internal/config"

// BuildFixModes extracts per-rule fix mode settings from a config, keyed by
// the rule's own code (e.g. "MD013", "secrets-in-code-block"). There is a
// single flat rule namespace in this engine, unlike a linter that has to
// disambiguate several vendor-specific rule sets.
//
// Nil is returned when cfg is nil.
func BuildFixModes(cfg *config.Config) map[string]FixMode {
	if cfg == nil {
		return nil
	}

	modes := make(map[string]FixMode, len(cfg.Rules.Rules))
	for code, ruleCfg := range cfg.Rules.Rules {
		if ruleCfg.Fix == "" {
			continue
		}
		modes[code] = parseFixMode(ruleCfg.Fix)
	}
	return modes
}

func parseFixMode(s string) FixMode {
	switch s {
	case "never":
		return FixModeNever
	case "explicit":
		return FixModeExplicit
	case "unsafe-only":
		return FixModeUnsafeOnly
	default:
		return FixModeAlways
	}
}

package config

import (
	"maps"
	"strings"

	"github.com/rumdl-go/rumdl/internal/rules/configutil"
)

// RuleConfig represents per-rule configuration. Can be specified in TOML as:
//
//	[rules.MD013]
//	severity = "warning"
//	fix = "always"
//	# Rule-specific options are flattened at this level
//	line-length = 100
type RuleConfig struct {
	// Severity overrides the rule's default severity. Use "off" to disable.
	Severity string `json:"severity,omitempty" jsonschema:"enum=off,enum=error,enum=warning,enum=info,enum=style" koanf:"severity"`

	// Fix controls when auto-fixes are applied for this rule.
	// Values: never, explicit, always (default), unsafe-only.
	Fix string `json:"fix,omitempty" jsonschema:"enum=never,enum=explicit,enum=always,enum=unsafe-only" koanf:"fix"`

	// Exclude contains path patterns where this rule should not run.
	Exclude ExcludeConfig `json:"exclude" koanf:"exclude"`

	// Options contains rule-specific configuration options.
	Options map[string]any `json:"-" koanf:",remain"`
}

// ExcludeConfig defines file exclusion patterns for a rule.
type ExcludeConfig struct {
	Paths []string `json:"paths,omitempty" jsonschema:"description=Glob patterns for files to exclude (e.g. test/**)" koanf:"paths"`
}

// RulesConfig contains rule selection and per-rule configuration. There is
// a single flat namespace of rule codes (e.g. "MD013",
// "secrets-in-code-block"), unlike a linter with several vendor-specific
// rule families.
//
// Example TOML (Ruff-style selection):
//
//	[rules]
//	include = ["MD0*"]       # Enable all markdownlint-numbered rules
//	exclude = ["MD013"]      # Disable specific rules
//
//	[rules.MD013]
//	severity = "warning"
//	line-length = 100
type RulesConfig struct {
	// Include explicitly enables rules.
	Include []string `json:"include,omitempty" jsonschema:"description=Enable rules by pattern (e.g. MD0*)" koanf:"include"`

	// Exclude explicitly disables rules.
	Exclude []string `json:"exclude,omitempty" jsonschema:"description=Disable rules by pattern" koanf:"exclude"`

	// Rules holds per-rule-code configuration.
	Rules map[string]RuleConfig `json:"rules,omitempty" koanf:",remain"`
}

// Get returns the configuration for a specific rule code, or nil if none
// is configured.
func (rc *RulesConfig) Get(ruleCode string) *RuleConfig {
	if rc == nil || rc.Rules == nil {
		return nil
	}
	if cfg, ok := rc.Rules[ruleCode]; ok {
		return &cfg
	}
	return nil
}

// IsEnabled checks if a rule is enabled based on Include/Exclude patterns.
// Returns nil if no configuration specifies enabled/disabled (use rule
// default). Include takes precedence over Exclude (Ruff-style semantics).
func (rc *RulesConfig) IsEnabled(ruleCode string) *bool {
	if rc == nil {
		return nil
	}
	if matchesAnyPattern(ruleCode, rc.Include) {
		return boolPtr(true)
	}
	if matchesAnyPattern(ruleCode, rc.Exclude) {
		return boolPtr(false)
	}
	return nil
}

// matchesAnyPattern checks if ruleCode matches any pattern in the list.
func matchesAnyPattern(ruleCode string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchesPattern(ruleCode, pattern) {
			return true
		}
	}
	return false
}

// matchesPattern checks if ruleCode matches a single pattern: exact match,
// the universal wildcard "*", or a prefix wildcard like "MD0*".
func matchesPattern(ruleCode, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if ruleCode == pattern {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(ruleCode, prefix)
	}
	return false
}

// GetSeverity returns the severity override for a rule, or "" if none.
func (rc *RulesConfig) GetSeverity(ruleCode string) string {
	if cfg := rc.Get(ruleCode); cfg != nil {
		return cfg.Severity
	}
	return ""
}

// GetFixMode returns the fix mode string for a rule ("" means default:
// always).
func (rc *RulesConfig) GetFixMode(ruleCode string) string {
	if cfg := rc.Get(ruleCode); cfg != nil {
		return cfg.Fix
	}
	return ""
}

// GetExcludePaths returns the exclusion patterns for a rule.
func (rc *RulesConfig) GetExcludePaths(ruleCode string) []string {
	cfg := rc.Get(ruleCode)
	if cfg == nil || cfg.Exclude.Paths == nil {
		return nil
	}
	out := make([]string, len(cfg.Exclude.Paths))
	copy(out, cfg.Exclude.Paths)
	return out
}

// GetOptions returns rule-specific options, or nil if none are configured.
// Returns a shallow copy to prevent mutation of internal state.
func (rc *RulesConfig) GetOptions(ruleCode string) map[string]any {
	cfg := rc.Get(ruleCode)
	if cfg == nil || cfg.Options == nil {
		return nil
	}
	out := make(map[string]any, len(cfg.Options))
	maps.Copy(out, cfg.Options)
	return out
}

// DecodeRuleOptions decodes a rule's configured options into T, merged over
// defaults.
func DecodeRuleOptions[T any](rc *RulesConfig, ruleCode string, defaults T) T {
	if rc == nil {
		return defaults
	}
	return configutil.Resolve(rc.GetOptions(ruleCode), defaults)
}

// Set stores configuration for a rule code, creating the map if nil.
func (rc *RulesConfig) Set(ruleCode string, cfg RuleConfig) {
	if rc.Rules == nil {
		rc.Rules = make(map[string]RuleConfig)
	}
	rc.Rules[ruleCode] = cfg
}

func boolPtr(b bool) *bool { return &b }

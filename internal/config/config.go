// Package config provides configuration loading and discovery for rumdl.
//
// Configuration is assembled from five layers, lowest to highest priority:
//  1. Built-in defaults
//  2. User config (XDG_CONFIG_HOME/rumdl/config.toml, or ~/.config/rumdl/config.toml)
//  3. pyproject.toml's [tool.rumdl] table, discovered alongside the project config
//  4. Project config file (closest .rumdl.toml or rumdl.toml)
//  5. CLI flags / explicit overrides
//
// Project config file discovery follows a cascading pattern similar to
// Ruff: starting from the target file's directory, walk up the filesystem
// until a config file is found. The closest config wins; configs are never
// merged across directory levels. Environment variables (RUMDL_* prefix)
// are layered in between the project file and CLI flags.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigFileNames defines the project config file names to search for, in
// priority order.
var ConfigFileNames = []string{".rumdl.toml", "rumdl.toml"}

// EnvPrefix is the prefix for environment variables.
const EnvPrefix = "RUMDL_"

// Config represents the complete rumdl configuration.
type Config struct {
	// Rules contains rule selection and per-rule configuration.
	Rules RulesConfig `koanf:"rules"`

	// Output configures output format and destination.
	Output OutputConfig `koanf:"output"`

	// InlineDirectives controls inline suppression directives.
	InlineDirectives InlineDirectivesConfig `koanf:"inline-directives"`

	// Cache configures the Lint Cache.
	Cache CacheConfig `koanf:"cache"`

	// Flavor pins the Markdown dialect (commonmark, gfm, mkdocs, mdx,
	// quarto) for every file this config governs. Empty means the driver
	// detects per file from the extension (see flavor.DetectFromPath).
	Flavor string `koanf:"flavor"`

	// ConfigFile is the path to the project config file that was loaded
	// (if any). Metadata, not loaded from config.
	ConfigFile string `koanf:"-"`
}

// OutputConfig configures output formatting and behavior.
type OutputConfig struct {
	// Format specifies the output format: "text", "json", "sarif",
	// "github-actions". Default: "text".
	Format string `koanf:"format"`

	// Path specifies where to write output: "stdout", "stderr", or a file
	// path. Default: "stdout".
	Path string `koanf:"path"`

	// ShowSource enables source code snippets in text output. Default: true.
	ShowSource bool `koanf:"show-source"`

	// FailLevel sets the minimum severity level that causes a non-zero
	// exit code. Valid values: "error", "warning", "info", "style", "none".
	// Default: "style" (any violation causes exit code 1).
	FailLevel string `koanf:"fail-level"`
}

// CacheConfig configures the Lint Cache.
type CacheConfig struct {
	// Enabled turns the Lint Cache on. Default: true.
	Enabled bool `koanf:"enabled"`

	// Dir overrides the cache root directory. Default: XDG cache dir.
	Dir string `koanf:"dir"`
}

// InlineDirectivesConfig controls inline suppression directives. Supports
// `<!-- rumdl-disable ... -->` and markdownlint-compatible aliases.
type InlineDirectivesConfig struct {
	// Enabled controls whether inline directives are processed. Default: true.
	Enabled bool `koanf:"enabled"`

	// WarnUnused reports warnings for directives that don't suppress any
	// violations. Default: false.
	WarnUnused bool `koanf:"warn-unused"`

	// ValidateRules reports warnings for unknown rule codes in directives.
	// Default: false (allows markdownlint rule codes for migration).
	ValidateRules bool `koanf:"validate-rules"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Format:     "text",
			Path:       "stdout",
			ShowSource: true,
			FailLevel:  "style",
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		InlineDirectives: InlineDirectivesConfig{
			Enabled:       true,
			WarnUnused:    false,
			ValidateRules: false,
		},
	}
}

// Load loads configuration for a target file path: discovers the closest
// project config, layers in the user config and pyproject.toml, and
// applies environment variable overrides.
func Load(targetPath string) (*Config, error) {
	return LoadWithOverrides(targetPath, nil, ConfigurationPreferenceEditorFirst)
}

// LoadFromFile loads configuration from a specific project config file
// path, skipping filesystem discovery.
func LoadFromFile(configPath string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, err
	}
	if err := loadUserConfig(k); err != nil {
		return nil, err
	}
	if err := loadPyprojectConfig(k, filepath.Dir(configPath)); err != nil {
		return nil, err
	}
	if err := loadConfigFile(k, configPath); err != nil {
		return nil, err
	}
	if err := loadEnv(k); err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = configPath
	return cfg, nil
}

// envKeyTransform converts environment variable names to config keys.
// RUMDL_OUTPUT_FORMAT -> output.format
func envKeyTransform(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", ".")
	return s
}

func loadEnv(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKeyTransform,
	}), nil)
}

func loadConfigFile(k *koanf.Koanf, configPath string) error {
	if configPath == "" {
		return nil
	}
	return k.Load(file.Provider(configPath), toml.Parser())
}

// loadUserConfig layers in $XDG_CONFIG_HOME/rumdl/config.toml (falling back
// to ~/.config/rumdl/config.toml), the lowest-priority override above
// built-in defaults.
func loadUserConfig(k *koanf.Koanf) error {
	path := userConfigPath()
	if path == "" || !fileExists(path) {
		return nil
	}
	return k.Load(file.Provider(path), toml.Parser())
}

func userConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "rumdl", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "rumdl", "config.toml")
}

// loadPyprojectConfig layers in the [tool.rumdl] table of the nearest
// pyproject.toml above a project .rumdl.toml/rumdl.toml, for projects that
// centralize Python tool configuration there.
func loadPyprojectConfig(k *koanf.Koanf, startDir string) error {
	path := findUpward(startDir, "pyproject.toml")
	if path == "" {
		return nil
	}
	sub := koanf.New(".")
	if err := sub.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil
	}
	section, ok := sub.Get("tool.rumdl").(map[string]any)
	if !ok || len(section) == 0 {
		return nil
	}
	return k.Load(confmap.Provider(section, "."), nil)
}

// Discover finds the closest project config file for a target file path.
// It walks up the directory tree from the target's directory, checking
// for config files at each level. Returns empty string if none found.
func Discover(targetPath string) string {
	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return ""
	}
	dir := filepath.Dir(absPath)
	for _, name := range ConfigFileNames {
		if found := findUpward(dir, name); found != "" {
			return found
		}
	}
	return ""
}

// findUpward walks from dir up to the filesystem root looking for name.
func findUpward(dir, name string) string {
	for {
		candidate := filepath.Join(dir, name)
		if fileExists(candidate) {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

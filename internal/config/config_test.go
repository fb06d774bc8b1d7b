package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rumdl-go/rumdl/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	require.Equal(t, "text", cfg.Output.Format)
	require.True(t, cfg.Cache.Enabled)
	require.True(t, cfg.InlineDirectives.Enabled)
}

func TestDiscoverFindsClosestConfig(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	sub := filepath.Join(root, "docs", "guides")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(root, "rumdl.toml"), []byte("[output]\nformat=\"json\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, ".rumdl.toml"), []byte("[output]\nformat=\"sarif\"\n"), 0o644))

	found := config.Discover(filepath.Join(sub, "readme.md"))
	require.Equal(t, filepath.Join(sub, ".rumdl.toml"), found)
}

func TestLoadFromFileAppliesProjectConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, ".rumdl.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[output]
format = "json"

[rules]
include = ["MD0*"]
exclude = ["MD013"]

[rules.MD013]
severity = "warning"
line-length = 100
`), 0o644))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "json", cfg.Output.Format)
	require.Equal(t, path, cfg.ConfigFile)

	enabled := cfg.Rules.IsEnabled("MD013")
	require.NotNil(t, enabled)
	require.False(t, *enabled)

	require.Equal(t, "warning", cfg.Rules.GetSeverity("MD013"))
	opts := cfg.Rules.GetOptions("MD013")
	require.Equal(t, int64(100), opts["line-length"])
}

func TestLoadHonorsEnvOverride(t *testing.T) {
	t.Setenv("RUMDL_OUTPUT_FORMAT", "sarif")

	dir := t.TempDir()
	path := filepath.Join(dir, "readme.md")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "sarif", cfg.Output.Format)
}

func TestRulesConfigPatternMatching(t *testing.T) {
	t.Parallel()
	rc := &config.RulesConfig{Include: []string{"MD0*"}, Exclude: []string{"MD013"}}

	require.NotNil(t, rc.IsEnabled("MD013"))
	require.False(t, *rc.IsEnabled("MD013"))

	require.NotNil(t, rc.IsEnabled("MD001"))
	require.True(t, *rc.IsEnabled("MD001"))

	require.Nil(t, rc.IsEnabled("secrets-in-code-block"))
}

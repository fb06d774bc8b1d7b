package config

import (
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigurationPreference controls how editor-provided overrides interact
// with filesystem config discovery.
//
// This is primarily used by editor integrations to decide whether editor
// settings or `.rumdl.toml` / `rumdl.toml` should take precedence.
type ConfigurationPreference string

const (
	ConfigurationPreferenceEditorFirst     ConfigurationPreference = "editorFirst"
	ConfigurationPreferenceFilesystemFirst ConfigurationPreference = "filesystemFirst"
	ConfigurationPreferenceEditorOnly      ConfigurationPreference = "editorOnly"
)

func normalizeConfigurationPreference(p ConfigurationPreference) ConfigurationPreference {
	switch p {
	case ConfigurationPreferenceEditorFirst, ConfigurationPreferenceFilesystemFirst, ConfigurationPreferenceEditorOnly:
		return p
	default:
		return ConfigurationPreferenceEditorFirst
	}
}

// LoadWithOverrides loads configuration for a target file path with an
// optional overrides map applied according to preference.
//
// Precedence, outermost (highest) first:
//
//   - editorFirst: defaults → user config → pyproject.toml → project config
//     → env → overrides
//   - filesystemFirst: defaults → user config → overrides → pyproject.toml
//     → project config → env
//   - editorOnly: defaults → user config → env → overrides (filesystem
//     project-config discovery skipped)
func LoadWithOverrides(targetPath string, overrides map[string]any, preference ConfigurationPreference) (*Config, error) {
	preference = normalizeConfigurationPreference(preference)

	configPath := ""
	dir := targetPath
	if preference != ConfigurationPreferenceEditorOnly {
		configPath = Discover(targetPath)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, err
	}
	if err := loadUserConfig(k); err != nil {
		return nil, err
	}

	switch preference {
	case ConfigurationPreferenceEditorOnly:
		if err := loadEnv(k); err != nil {
			return nil, err
		}
		if err := loadOverrides(k, overrides); err != nil {
			return nil, err
		}
	case ConfigurationPreferenceFilesystemFirst:
		if err := loadOverrides(k, overrides); err != nil {
			return nil, err
		}
		if err := loadPyprojectConfig(k, dir); err != nil {
			return nil, err
		}
		if err := loadConfigFile(k, configPath); err != nil {
			return nil, err
		}
		if err := loadEnv(k); err != nil {
			return nil, err
		}
	case ConfigurationPreferenceEditorFirst:
		if err := loadPyprojectConfig(k, dir); err != nil {
			return nil, err
		}
		if err := loadConfigFile(k, configPath); err != nil {
			return nil, err
		}
		if err := loadEnv(k); err != nil {
			return nil, err
		}
		if err := loadOverrides(k, overrides); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = configPath
	return cfg, nil
}

func loadOverrides(k *koanf.Koanf, overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	return k.Load(confmap.Provider(overrides, ""), nil)
}

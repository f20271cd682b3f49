package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings is the engine's own local configuration — distinct from the
// opaque per-workspace config.json — modeled on app/settings/types.go's
// Settings struct, trimmed to what the session engine actually reads:
// cache sizing, the plugin directory, and the substring-engine binary path
// a SpawnedEngine should shell out to.
type Settings struct {
	CacheSizeEntries int    `yaml:"cache_size_entries"`
	PluginDir        string `yaml:"plugin_dir,omitempty"`
	SubstringEngine  string `yaml:"substring_engine,omitempty"`
	MaxDirectoryFiles int   `yaml:"max_directory_files"`
}

// defaultSettings mirrors app/settings/types.go's defaultSettings var —
// built-in values used whenever the on-disk file is absent or a key is
// missing from it.
var defaultSettings = Settings{
	CacheSizeEntries:  5000,
	SubstringEngine:   "",
	MaxDirectoryFiles: 500,
}

// settingsFileName is this engine's local settings file, named distinctly
// from the opaque per-workspace config.json (SPEC_FULL.md §2).
const settingsFileName = "settings.yml"

// SettingsPath returns the settings file location under dir (an
// application config directory the caller — cmd/loglayer — resolves, e.g.
// via os.UserConfigDir()).
func SettingsPath(dir string) string {
	return filepath.Join(dir, settingsFileName)
}

// LoadSettings reads dir's settings.yml, overlaying it on defaultSettings;
// a missing file yields the defaults, matching
// app/settings/service.go's GetSettings "file doesn't exist -> return
// defaults" behavior.
func LoadSettings(dir string) (Settings, error) {
	s := defaultSettings
	data, err := os.ReadFile(SettingsPath(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings: %w", err)
	}
	return s, nil
}

// SaveSettings writes s to dir's settings.yml, creating dir if needed.
func SaveSettings(dir string, s Settings) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(SettingsPath(dir), data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

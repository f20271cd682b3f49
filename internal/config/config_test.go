package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWorkspaceConfigMissingReturnsNil(t *testing.T) {
	dir := t.TempDir()
	data, err := LoadWorkspaceConfig(dir)
	if err != nil {
		t.Fatalf("LoadWorkspaceConfig: %v", err)
	}
	if data != nil {
		t.Fatalf("data = %v, want nil for a folder with no .loglayer/config.json", data)
	}
}

func TestWorkspaceConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := json.RawMessage(`{"theme":"dark"}`)
	if err := SaveWorkspaceConfig(dir, want); err != nil {
		t.Fatalf("SaveWorkspaceConfig: %v", err)
	}

	got, err := LoadWorkspaceConfig(dir)
	if err != nil {
		t.Fatalf("LoadWorkspaceConfig: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("got %s, want %s", got, want)
	}

	if _, err := filepath.Abs(WorkspacePath(dir)); err != nil {
		t.Fatalf("WorkspacePath: %v", err)
	}
}

func TestLoadSettingsMissingReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	s, err := LoadSettings(dir)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s != defaultSettings {
		t.Fatalf("s = %+v, want defaults %+v", s, defaultSettings)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := Settings{CacheSizeEntries: 1000, PluginDir: "/plugins", SubstringEngine: "rg", MaxDirectoryFiles: 10}
	if err := SaveSettings(dir, want); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	got, err := LoadSettings(dir)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestSettingsPartialOverlayKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	// A hand-edited file naming only one key should leave the rest at
	// their defaults, matching app/settings/service.go's overlay pattern.
	if err := os.WriteFile(SettingsPath(dir), []byte("cache_size_entries: 42\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := LoadSettings(dir)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if got.CacheSizeEntries != 42 {
		t.Fatalf("CacheSizeEntries = %d, want 42", got.CacheSizeEntries)
	}
	if got.MaxDirectoryFiles != defaultSettings.MaxDirectoryFiles {
		t.Fatalf("MaxDirectoryFiles = %d, want default %d", got.MaxDirectoryFiles, defaultSettings.MaxDirectoryFiles)
	}
}

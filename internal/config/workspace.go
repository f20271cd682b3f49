// Package config implements the two persistence concerns spec.md §6/§7
// names: the opaque workspace config file the engine stores verbatim, and
// the engine's own local settings (plugin directory, cache sizing). Both
// are ambient-stack concerns the Non-goals don't exclude — spec.md §1
// treats "workspace config persistence (plain file I/O)" as an external
// collaborator's content, not something this module interprets, but the
// engine still owns reading and writing the bytes.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// workspaceDir is the per-folder state directory spec.md §6 names.
const workspaceDir = ".loglayer"

// workspaceConfigFile is the opaque config file inside workspaceDir.
const workspaceConfigFile = "config.json"

// WorkspacePath returns <folder>/.loglayer/config.json, spec.md §6's
// persisted-state location.
func WorkspacePath(folder string) string {
	return filepath.Join(folder, workspaceDir, workspaceConfigFile)
}

// LoadWorkspaceConfig reads the opaque workspace config for folder,
// returning (nil, nil) if it doesn't exist yet — the engine treats
// "no config" the same as "empty config", per spec.md §6's "opaque to the
// engine (stored verbatim)": raw bytes in, raw bytes out, no schema
// enforced here.
func LoadWorkspaceConfig(folder string) (json.RawMessage, error) {
	data, err := os.ReadFile(WorkspacePath(folder))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read workspace config: %w", err)
	}
	return json.RawMessage(data), nil
}

// SaveWorkspaceConfig writes data verbatim to <folder>/.loglayer/config.json,
// creating the .loglayer directory if needed.
func SaveWorkspaceConfig(folder string, data json.RawMessage) error {
	dir := filepath.Join(folder, workspaceDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := os.WriteFile(WorkspacePath(folder), data, 0o644); err != nil {
		return fmt.Errorf("write workspace config: %w", err)
	}
	return nil
}

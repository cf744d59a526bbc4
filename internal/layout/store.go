// Package layout models the on-screen controller overlay layout.
package layout

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Load reads a saved layout from disk. Missing files return the default
// preset so a first run has sensible placements.
func Load(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, err
	}
	return Sanitize(l), nil
}

// Save writes a layout to disk, creating parent directories as needed.
func Save(path string, l Layout) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(Sanitize(l), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

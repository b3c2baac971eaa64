package collect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadSnapshot reads a snapshot fixture from a YAML or JSON file (selected
// by extension, YAML by default) and validates it.
func LoadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read snapshot file %s: %w", path, err)
	}

	var snap Snapshot
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &snap)
	default:
		err = yaml.Unmarshal(data, &snap)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse snapshot file %s: %w", path, err)
	}

	if err := ValidateSnapshot(snap); err != nil {
		return Snapshot{}, fmt.Errorf("invalid snapshot in %s: %w", path, err)
	}

	return snap, nil
}

// WriteSnapshot writes a snapshot fixture as YAML.
func WriteSnapshot(path string, snap Snapshot) error {
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file %s: %w", path, err)
	}
	return nil
}

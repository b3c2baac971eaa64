package config

import (
	"fmt"
)

// CollectorsFile represents the top-level structure of the collectors config
// file. It tunes which signal collectors run and how they behave.
//
// Example YAML structure:
//
//	schema_version: v1
//	collectors:
//	  - name: staleness
//	    settings:
//	      threshold: 24h
//	  - name: lifecycle
//	    enabled: false
type CollectorsFile struct {
	// SchemaVersion is the explicit config schema version (e.g., "v1")
	SchemaVersion string `yaml:"schema_version"`

	// Collectors lists per-collector overrides. Collectors not named here
	// run with their built-in defaults.
	Collectors []CollectorSettings `yaml:"collectors"`
}

// CollectorSettings overrides one collector's behavior.
type CollectorSettings struct {
	// Name is the collector name (e.g., "staleness", "connectivity")
	// Must be unique across the file
	Name string `yaml:"name"`

	// Enabled toggles the collector. Nil leaves the built-in default
	// (all collectors enabled) in place.
	Enabled *bool `yaml:"enabled"`

	// Settings holds collector-specific tunables as a map
	// Each collector interprets its own keys
	// (e.g., staleness expects {"threshold": "24h"})
	Settings map[string]interface{} `yaml:"settings"`
}

// DefaultCollectorsFile returns the config written when no collectors file
// exists yet: current schema, no overrides.
func DefaultCollectorsFile() *CollectorsFile {
	return &CollectorsFile{
		SchemaVersion: "v1",
		Collectors:    []CollectorSettings{},
	}
}

// Validate checks that the CollectorsFile is valid.
// Returns descriptive errors for validation failures.
func (f *CollectorsFile) Validate() error {
	if f.SchemaVersion != "v1" {
		return NewConfigError(fmt.Sprintf(
			"unsupported schema_version: %q (expected \"v1\")",
			f.SchemaVersion,
		))
	}

	seenNames := make(map[string]bool)

	for i, c := range f.Collectors {
		if c.Name == "" {
			return NewConfigError(fmt.Sprintf(
				"collector[%d]: name is required",
				i,
			))
		}

		if seenNames[c.Name] {
			return NewConfigError(fmt.Sprintf(
				"collector[%d]: duplicate collector name %q",
				i, c.Name,
			))
		}
		seenNames[c.Name] = true
	}

	return nil
}

// Enablement flattens the file into a name -> enabled map, skipping entries
// that leave the default in place.
func (f *CollectorsFile) Enablement() map[string]bool {
	out := make(map[string]bool)
	for _, c := range f.Collectors {
		if c.Enabled != nil {
			out[c.Name] = *c.Enabled
		}
	}
	return out
}

// SettingsFor returns the settings map for the named collector, or nil if
// the file has no entry for it.
func (f *CollectorsFile) SettingsFor(name string) map[string]interface{} {
	for _, c := range f.Collectors {
		if c.Name == name {
			return c.Settings
		}
	}
	return nil
}

package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadCollectorsFile loads and validates a collectors configuration file
// using Koanf. Returns the parsed and validated CollectorsFile or an error.
//
// Error cases:
//   - File not found or cannot be read
//   - Invalid YAML syntax
//   - Schema validation failure (unsupported version, missing names,
//     duplicate names)
func LoadCollectorsFile(filepath string) (*CollectorsFile, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(filepath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load collectors config from %q: %w", filepath, err)
	}

	var cfg CollectorsFile
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse collectors config from %q: %w", filepath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("collectors config validation failed for %q: %w", filepath, err)
	}

	return &cfg, nil
}

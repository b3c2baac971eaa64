package config

import (
	"fmt"

	"github.com/hashicorp/go-version"
)

// Config holds all configuration for the application
type Config struct {
	// APIPort is the port the API server listens on
	APIPort int

	// LogLevel is the logging level (debug, info, warn, error)
	LogLevel string

	// CollectorsConfigPath is the path to the YAML file with per-collector settings
	CollectorsConfigPath string

	// MinAppVersion is the oldest app build whose snapshots are accepted
	// (semver string, empty disables the gate)
	MinAppVersion string

	// ReportCacheSize is the number of recent reports kept per the LRU cache
	ReportCacheSize int

	// TracingEnabled indicates whether OpenTelemetry tracing is enabled
	TracingEnabled bool

	// TracingEndpoint is the OTLP gRPC endpoint for trace export
	TracingEndpoint string

	// TracingTLSCAPath is the path to the CA certificate for TLS verification
	TracingTLSCAPath string

	// TracingTLSInsecure skips TLS certificate verification for trace export
	TracingTLSInsecure bool
}

// LoadConfig creates a Config with the provided values
func LoadConfig(apiPort int, logLevel, collectorsConfigPath, minAppVersion string, reportCacheSize int, tracingEnabled bool, tracingEndpoint, tracingTLSCAPath string, tracingTLSInsecure bool) *Config {
	return &Config{
		APIPort:              apiPort,
		LogLevel:             logLevel,
		CollectorsConfigPath: collectorsConfigPath,
		MinAppVersion:        minAppVersion,
		ReportCacheSize:      reportCacheSize,
		TracingEnabled:       tracingEnabled,
		TracingEndpoint:      tracingEndpoint,
		TracingTLSCAPath:     tracingTLSCAPath,
		TracingTLSInsecure:   tracingTLSInsecure,
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.APIPort < 1 || c.APIPort > 65535 {
		return NewConfigError("APIPort must be between 1 and 65535")
	}

	if c.ReportCacheSize < 1 {
		return NewConfigError("ReportCacheSize must be at least 1")
	}

	if c.MinAppVersion != "" {
		if _, err := version.NewVersion(c.MinAppVersion); err != nil {
			return NewConfigError(fmt.Sprintf("MinAppVersion %q is not a valid version", c.MinAppVersion))
		}
	}

	if c.TracingEnabled && c.TracingEndpoint == "" {
		return NewConfigError("TracingEndpoint must be set when tracing is enabled")
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return e.message
}

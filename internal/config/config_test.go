package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			APIPort:         8080,
			LogLevel:        "info",
			ReportCacheSize: 128,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "port zero",
			mutate:  func(c *Config) { c.APIPort = 0 },
			wantErr: "APIPort",
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.APIPort = 70000 },
			wantErr: "APIPort",
		},
		{
			name:    "cache size zero",
			mutate:  func(c *Config) { c.ReportCacheSize = 0 },
			wantErr: "ReportCacheSize",
		},
		{
			name:   "min app version valid",
			mutate: func(c *Config) { c.MinAppVersion = "2.3.0" },
		},
		{
			name:    "min app version garbage",
			mutate:  func(c *Config) { c.MinAppVersion = "not-a-version" },
			wantErr: "MinAppVersion",
		},
		{
			name:    "tracing enabled without endpoint",
			mutate:  func(c *Config) { c.TracingEnabled = true },
			wantErr: "TracingEndpoint",
		},
		{
			name: "tracing enabled with endpoint",
			mutate: func(c *Config) {
				c.TracingEnabled = true
				c.TracingEndpoint = "localhost:4317"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var cfgErr *ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestLoadConfigRoundTrip(t *testing.T) {
	cfg := LoadConfig(9090, "debug", "collectors.yaml", "1.2.0", 64, true, "otel:4317", "/ca.crt", false)

	assert.Equal(t, 9090, cfg.APIPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "collectors.yaml", cfg.CollectorsConfigPath)
	assert.Equal(t, "1.2.0", cfg.MinAppVersion)
	assert.Equal(t, 64, cfg.ReportCacheSize)
	assert.True(t, cfg.TracingEnabled)
	assert.Equal(t, "otel:4317", cfg.TracingEndpoint)
	assert.Equal(t, "/ca.crt", cfg.TracingTLSCAPath)
	assert.NoError(t, cfg.Validate())
}

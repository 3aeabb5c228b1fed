package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "pharma_db",
		},
		Scraper: ScraperConfig{
			UserAgent:         "Mozilla/5.0 (compatible; pharma-pricing)",
			ViewportWidth:     1920,
			ViewportHeight:    1080,
			NavigationTimeout: 30 * time.Second,
			PaceInterval:      2 * time.Second,
			Headless:          true,
		},
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				// Verify some key fields are populated
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "pharma_db", cfg.Database.Database)
				assert.Equal(t, 1920, cfg.Scraper.ViewportWidth)
				assert.Equal(t, 30*time.Second, cfg.Scraper.NavigationTimeout)
				assert.True(t, cfg.Scraper.Headless)
				assert.Equal(t, "pharma-pricing-api", cfg.App.Name)
			}
		})
	}
}

func TestConfig_ValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "invalid server port - too low",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "invalid server port - too high",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "missing database host",
			mutate:    func(c *Config) { c.Database.Host = "" },
			wantErr:   true,
			errString: "database host is required",
		},
		{
			name:      "missing database name",
			mutate:    func(c *Config) { c.Database.Database = "" },
			wantErr:   true,
			errString: "database name is required",
		},
		{
			name:      "missing user agent",
			mutate:    func(c *Config) { c.Scraper.UserAgent = "" },
			wantErr:   true,
			errString: "scraper user_agent is required",
		},
		{
			name:      "invalid viewport",
			mutate:    func(c *Config) { c.Scraper.ViewportHeight = 0 },
			wantErr:   true,
			errString: "invalid scraper viewport",
		},
		{
			name:      "missing navigation timeout",
			mutate:    func(c *Config) { c.Scraper.NavigationTimeout = 0 },
			wantErr:   true,
			errString: "navigation_timeout must be greater than 0",
		},
		{
			name:      "negative pace interval",
			mutate:    func(c *Config) { c.Scraper.PaceInterval = -time.Second },
			wantErr:   true,
			errString: "pace_interval must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.ValidateAPIConfig()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateRunnerConfig(t *testing.T) {
	cfg := validConfig()

	// The one-shot runner does not need a server port
	cfg.Server.Port = 0
	require.NoError(t, cfg.ValidateRunnerConfig())

	cfg.Database.Host = ""
	require.Error(t, cfg.ValidateRunnerConfig())
}

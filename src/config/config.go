package config

import (
	"fmt"
	"os"

	"finstream/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Storage configuration
	if c.Storage.DBType == "" {
		return fmt.Errorf("database type cannot be empty")
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		return fmt.Errorf("database path cannot be empty for sqlite")
	}
	if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
		return fmt.Errorf("connection string cannot be empty for postgres")
	}

	// Validate Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Network.ConcurrentRequests <= 0 {
		return fmt.Errorf("concurrent requests must be greater than 0")
	}

	// Validate Upstream configuration
	if c.Upstream.Endpoint == "" {
		return fmt.Errorf("upstream endpoint cannot be empty")
	}
	if c.Upstream.APIKeyEnv == "" {
		return fmt.Errorf("upstream api key environment variable name cannot be empty")
	}
	if c.Upstream.ReconnectSeconds < 0 {
		return fmt.Errorf("reconnect delay cannot be negative")
	}

	// Validate Poller configuration
	if c.Poller.IntervalSeconds <= 0 {
		return fmt.Errorf("poll interval must be greater than 0")
	}

	// Validate NATS configuration
	if c.NATS.Enabled && len(c.NATS.Servers) == 0 {
		return fmt.Errorf("at least one nats server must be configured when nats is enabled")
	}

	// Validate Digest configuration
	if c.Digest.Enabled {
		if c.Digest.SMTPHost == "" {
			return fmt.Errorf("smtp host cannot be empty when the digest is enabled")
		}
		if c.Digest.From == "" {
			return fmt.Errorf("digest sender address cannot be empty")
		}
		if c.Digest.SendHour < 0 || c.Digest.SendHour > 23 {
			return fmt.Errorf("digest send hour must be between 0 and 23")
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}

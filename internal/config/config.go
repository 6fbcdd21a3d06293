// Package config loads and validates the adapter service configuration.
//
// DESIGN: All configuration comes from YAML. Values may reference the
// environment with ${VAR} or ${VAR:-default}; a few well-known variables
// override the parsed file afterwards. Validate() rejects incomplete files
// instead of filling in defaults.
//
// FILES:
//   - config.go:     Root Config struct, Load(), Validate()
//   - aws.go:        AWS credentials, Bedrock endpoint, SageMaker endpoints
//   - monitoring.go: Logging and alert thresholds
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`     // HTTP server settings
	AWS        AWSConfig        `yaml:"aws"`        // Region, credentials, Bedrock endpoint
	SageMaker  SageMakerConfig  `yaml:"sagemaker"`  // Model ID -> endpoint name
	Store      StoreConfig      `yaml:"store"`      // Usage ledger
	Monitoring MonitoringConfig `yaml:"monitoring"` // Logging and alerts
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // Port to listen on
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // Max time to read request
	WriteTimeout time.Duration `yaml:"write_timeout"` // Max time to write response
}

// Store types.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// StoreConfig contains usage ledger settings.
type StoreConfig struct {
	Type      string        `yaml:"type"`      // "memory" or "sqlite"
	Path      string        `yaml:"path"`      // SQLite database file
	Retention time.Duration `yaml:"retention"` // How long usage records are kept
}

var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvWithDefaults expands ${VAR} and ${VAR:-default}.
func expandEnvWithDefaults(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) > 2 {
			return parts[2]
		}
		return ""
	})
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from raw YAML bytes.
// Supports ${VAR:-default} env var expansion, env overrides, and validation.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvWithDefaults(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides lets deployments redirect the region, log level and
// ledger path without editing the file.
func (c *Config) applyEnvOverrides() {
	if region := os.Getenv("AWS_REGION"); region != "" && c.AWS.Region == "" {
		c.AWS.Region = region
	}
	if level := os.Getenv("ADAPTERS_LOG_LEVEL"); level != "" {
		c.Monitoring.LogLevel = level
	}
	if path := os.Getenv("ADAPTERS_STORE_PATH"); path != "" {
		c.Store.Path = path
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ReadTimeout == 0 {
		return fmt.Errorf("server.read_timeout is required")
	}
	if c.Server.WriteTimeout == 0 {
		return fmt.Errorf("server.write_timeout is required")
	}

	switch c.Store.Type {
	case "":
		return fmt.Errorf("store.type is required")
	case StoreMemory:
	case StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for sqlite store")
		}
	default:
		return fmt.Errorf("invalid store.type: %q (must be memory or sqlite)", c.Store.Type)
	}
	if c.Store.Retention == 0 {
		return fmt.Errorf("store.retention is required")
	}

	if err := c.AWS.Validate(); err != nil {
		return err
	}
	if err := c.SageMaker.Validate(); err != nil {
		return err
	}
	return c.Monitoring.Validate()
}

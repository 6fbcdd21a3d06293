package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
server:
  port: 18090
  read_timeout: 30s
  write_timeout: 5m
aws:
  region: ${TEST_ADAPTERS_REGION:-eu-west-3}
  timeout: 60s
sagemaker:
  endpoints:
    sagemaker.meta-llama2-13b-chat: llama2-13b-prod
store:
  type: memory
  retention: 24h
monitoring:
  log_level: info
  log_format: console
  high_latency_threshold: 20s
`

func TestLoadFromBytes(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, 18090, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, "eu-west-3", cfg.AWS.Region)
	assert.Equal(t, "llama2-13b-prod", cfg.SageMaker.Endpoints["sagemaker.meta-llama2-13b-chat"])
	assert.Equal(t, StoreMemory, cfg.Store.Type)
	assert.Equal(t, 20*time.Second, cfg.Monitoring.HighLatencyThreshold)
}

func TestLoadFromBytes_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_ADAPTERS_REGION", "ap-south-1")

	cfg, err := LoadFromBytes([]byte(validYAML))
	require.NoError(t, err)
	assert.Equal(t, "ap-south-1", cfg.AWS.Region)
}

func TestLoadFromBytes_EnvOverrides(t *testing.T) {
	t.Setenv("ADAPTERS_LOG_LEVEL", "debug")
	t.Setenv("ADAPTERS_STORE_PATH", "/tmp/usage.db")

	cfg, err := LoadFromBytes([]byte(validYAML))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Monitoring.LogLevel)
	assert.Equal(t, "/tmp/usage.db", cfg.Store.Path)
}

func TestExpandEnvWithDefaults(t *testing.T) {
	t.Setenv("TEST_SET", "value")
	t.Setenv("TEST_EMPTY", "")

	tests := []struct {
		in   string
		want string
	}{
		{"${TEST_SET}", "value"},
		{"${TEST_SET:-fallback}", "value"},
		{"${TEST_EMPTY:-fallback}", "fallback"},
		{"${TEST_UNSET_VARIABLE}", ""},
		{"a-${TEST_SET}-b", "a-value-b"},
		{"no variables", "no variables"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvWithDefaults(tt.in))
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Server: ServerConfig{Port: 8080, ReadTimeout: time.Second, WriteTimeout: time.Second},
			Store:  StoreConfig{Type: StoreMemory, Retention: time.Hour},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing port", func(c *Config) { c.Server.Port = 0 }, "server.port is required"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "invalid server.port"},
		{"missing read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, "server.read_timeout"},
		{"missing store type", func(c *Config) { c.Store.Type = "" }, "store.type is required"},
		{"unknown store type", func(c *Config) { c.Store.Type = "redis" }, "invalid store.type"},
		{"sqlite without path", func(c *Config) { c.Store.Type = StoreSQLite }, "store.path"},
		{"missing retention", func(c *Config) { c.Store.Retention = 0 }, "store.retention"},
		{"half credentials", func(c *Config) { c.AWS.AccessKeyID = "AKIA" }, "must be set together"},
		{"session token alone", func(c *Config) { c.AWS.SessionToken = "tok" }, "session_token"},
		{"empty endpoint", func(c *Config) {
			c.SageMaker.Endpoints = map[string]string{"sagemaker.x": ""}
		}, "sagemaker.endpoints[sagemaker.x]"},
		{"bad log level", func(c *Config) { c.Monitoring.LogLevel = "trace" }, "log_level"},
		{"bad log format", func(c *Config) { c.Monitoring.LogFormat = "xml" }, "log_format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 18090, cfg.Server.Port)

	require.NoError(t, os.WriteFile(path, []byte("server: ["), 0o600))
	_, err = Load(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

// Monitoring configuration - logging and alert settings.
package config

import (
	"fmt"
	"time"
)

// MonitoringConfig contains all monitoring settings.
type MonitoringConfig struct {
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // json, console
	LogOutput string `yaml:"log_output"` // stdout, stderr, or file path

	HighLatencyThreshold time.Duration `yaml:"high_latency_threshold"` // Alert when an invocation is slower
}

// Validate checks the log level and format.
func (m MonitoringConfig) Validate() error {
	switch m.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid monitoring.log_level: %q", m.LogLevel)
	}
	switch m.LogFormat {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid monitoring.log_format: %q", m.LogFormat)
	}
	if m.HighLatencyThreshold < 0 {
		return fmt.Errorf("invalid monitoring.high_latency_threshold: %s", m.HighLatencyThreshold)
	}
	return nil
}

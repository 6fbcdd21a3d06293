// Package monitoring - types.go holds event and config types.
package monitoring

import "time"

// InvocationEvent describes one model call, streamed or not.
type InvocationEvent struct {
	RequestID    string        `json:"request_id"`
	ModelID      string        `json:"model_id"`
	Adapter      string        `json:"adapter"`
	Streaming    bool          `json:"streaming"`
	Latency      time.Duration `json:"latency"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	StopReason   string        `json:"stop_reason,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Success reports whether the invocation returned without error.
func (e InvocationEvent) Success() bool { return e.Error == "" }

// =============================================================================
// CONFIG TYPES
// =============================================================================

// LoggerConfig contains logging configuration.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	Output string `yaml:"output"` // stdout, stderr, or file path
}

// AlertConfig contains alert thresholds.
type AlertConfig struct {
	HighLatencyThreshold time.Duration `yaml:"high_latency_threshold"`
}

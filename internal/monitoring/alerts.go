// Package monitoring - alerts.go flags anomalies and errors.
//
// DESIGN: AlertManager logs notable events at appropriate levels:
//   - FlagHighLatency:       Warn when an invocation exceeds threshold
//   - FlagInvocationFailure: Error when a model call fails
//   - FlagUnknownModel:      Warn when no adapter matches a model ID
//   - FlagPanic:             Error on recovered panics
package monitoring

import "time"

// DefaultHighLatencyThreshold applies when AlertConfig leaves it unset.
const DefaultHighLatencyThreshold = 30 * time.Second

// AlertManager flags anomalies and errors.
type AlertManager struct {
	logger               *Logger
	highLatencyThreshold time.Duration
}

// NewAlertManager creates a new alert manager.
func NewAlertManager(logger *Logger, cfg AlertConfig) *AlertManager {
	threshold := cfg.HighLatencyThreshold
	if threshold == 0 {
		threshold = DefaultHighLatencyThreshold
	}
	return &AlertManager{logger: logger, highLatencyThreshold: threshold}
}

// Threshold returns the high latency threshold.
func (am *AlertManager) Threshold() time.Duration { return am.highLatencyThreshold }

// FlagHighLatency logs when invocation latency exceeds threshold. It
// reports whether an alert was emitted.
func (am *AlertManager) FlagHighLatency(requestID string, latency time.Duration, modelID string) bool {
	if latency < am.highLatencyThreshold {
		return false
	}
	am.logger.Warn().
		Str("request_id", requestID).
		Dur("latency", latency).
		Str("model", modelID).
		Msg("high_latency")
	return true
}

// FlagInvocationFailure logs a failed model call.
func (am *AlertManager) FlagInvocationFailure(requestID, modelID, adapter string, err error) {
	am.logger.Error().
		Str("request_id", requestID).
		Str("model", modelID).
		Str("adapter", adapter).
		Err(err).
		Msg("invocation_failed")
}

// FlagUnknownModel logs a model ID no adapter matched.
func (am *AlertManager) FlagUnknownModel(requestID, modelID string) {
	am.logger.Warn().
		Str("request_id", requestID).
		Str("model", modelID).
		Msg("unknown_model")
}

// FlagInvalidRequest logs invalid request.
func (am *AlertManager) FlagInvalidRequest(requestID, reason string) {
	am.logger.Debug().
		Str("request_id", requestID).
		Str("reason", reason).
		Msg("invalid_request")
}

// FlagPanic logs recovered panic.
func (am *AlertManager) FlagPanic(requestID string, panicValue interface{}, stack string) {
	am.logger.Error().
		Str("request_id", requestID).
		Interface("panic", panicValue).
		Str("stack", stack).
		Msg("panic_recovered")
}

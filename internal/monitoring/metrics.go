// Package monitoring - metrics.go provides simple counters.
//
// DESIGN: Lightweight in-memory counters for operational metrics:
//   - invocations/failures: Model calls and how many returned an error
//   - streams:              Calls served through the streaming path
//   - resolve_misses:       Model IDs no adapter pattern matched
//   - tokens:               Input and output tokens reported or estimated
package monitoring

import (
	"sync/atomic"
	"time"
)

// MetricsCollector collects operational metrics.
type MetricsCollector struct {
	invocations   atomic.Int64
	failures      atomic.Int64
	streams       atomic.Int64
	resolveMisses atomic.Int64
	inputTokens   atomic.Int64
	outputTokens  atomic.Int64
	latencyMillis atomic.Int64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// RecordInvocation records a finished model call.
func (mc *MetricsCollector) RecordInvocation(e InvocationEvent) {
	mc.invocations.Add(1)
	if !e.Success() {
		mc.failures.Add(1)
	}
	if e.Streaming {
		mc.streams.Add(1)
	}
	mc.inputTokens.Add(int64(e.InputTokens))
	mc.outputTokens.Add(int64(e.OutputTokens))
	mc.latencyMillis.Add(e.Latency.Milliseconds())
}

// RecordResolveMiss records a model ID with no matching adapter.
func (mc *MetricsCollector) RecordResolveMiss() { mc.resolveMisses.Add(1) }

// AverageLatency returns the mean invocation latency.
func (mc *MetricsCollector) AverageLatency() time.Duration {
	n := mc.invocations.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(mc.latencyMillis.Load()/n) * time.Millisecond
}

// Stats returns current metrics.
func (mc *MetricsCollector) Stats() map[string]int64 {
	return map[string]int64{
		"invocations":    mc.invocations.Load(),
		"failures":       mc.failures.Load(),
		"streams":        mc.streams.Load(),
		"resolve_misses": mc.resolveMisses.Load(),
		"input_tokens":   mc.inputTokens.Load(),
		"output_tokens":  mc.outputTokens.Load(),
	}
}

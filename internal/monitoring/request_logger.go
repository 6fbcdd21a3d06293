// Package monitoring - request_logger.go logs HTTP request lifecycle.
//
// DESIGN: Structured logging for request tracing at DEBUG level:
//   - LogIncoming:   Request received from client
//   - LogInvocation: Model call finished (INFO, or ERROR on failure)
//   - LogResponse:   Response sent to client
package monitoring

import (
	"net/http"
	"time"
)

// RequestLogger logs HTTP request lifecycle events.
type RequestLogger struct {
	logger *Logger
}

// NewRequestLogger creates a new request logger.
func NewRequestLogger(logger *Logger) *RequestLogger {
	return &RequestLogger{logger: logger}
}

// RequestInfo contains incoming request information.
type RequestInfo struct {
	RequestID  string
	Method     string
	Path       string
	RemoteAddr string
	StartTime  time.Time
}

// NewRequestInfo creates RequestInfo from an HTTP request.
func NewRequestInfo(r *http.Request, requestID string) *RequestInfo {
	return &RequestInfo{
		RequestID:  requestID,
		Method:     r.Method,
		Path:       r.URL.Path,
		RemoteAddr: r.RemoteAddr,
		StartTime:  time.Now(),
	}
}

// LogIncoming logs an incoming request.
func (rl *RequestLogger) LogIncoming(info *RequestInfo) {
	rl.logger.Debug().
		Str("request_id", info.RequestID).
		Str("method", info.Method).
		Str("path", info.Path).
		Str("remote", info.RemoteAddr).
		Msg("incoming")
}

// LogInvocation logs a finished model call.
func (rl *RequestLogger) LogInvocation(e InvocationEvent) {
	ev := rl.logger.Info()
	if !e.Success() {
		ev = rl.logger.Error().Str("error", e.Error)
	}
	ev.Str("request_id", e.RequestID).
		Str("model", e.ModelID).
		Str("adapter", e.Adapter).
		Bool("streaming", e.Streaming).
		Dur("latency", e.Latency).
		Int("input_tokens", e.InputTokens).
		Int("output_tokens", e.OutputTokens).
		Str("stop_reason", e.StopReason).
		Msg("invocation")
}

// LogResponse logs the response sent to the client.
func (rl *RequestLogger) LogResponse(info *RequestInfo, status int) {
	rl.logger.Debug().
		Str("request_id", info.RequestID).
		Int("status", status).
		Dur("duration", time.Since(info.StartTime)).
		Msg("response")
}

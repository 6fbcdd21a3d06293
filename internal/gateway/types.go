// Package gateway types - wire types for the HTTP surface.
//
// DESIGN: JSON shapes exchanged with clients:
//   - ChatRequest:     model + prompt kind + variables + history + kwargs
//   - RenderResponse:  what the adapter would send, without calling the model
//   - ChatResponse:    generated text, stop reason and usage
//   - StreamFrame:     one websocket frame (chunk, done or error)
package gateway

import (
	"github.com/compresr/model-adapters/internal/chat"
	"github.com/compresr/model-adapters/internal/llm"
	"github.com/compresr/model-adapters/internal/store"
)

// Headers.
const (
	HeaderRequestID = "X-Request-ID"
)

// MaxRequestBodySize bounds JSON request bodies.
const MaxRequestBodySize = 4 << 20

// Message is a chat turn on the wire. Role accepts human/user, ai/assistant,
// system and tool.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest selects an adapter and fills one of its templates.
type ChatRequest struct {
	Model       string         `json:"model"`
	Kind        string         `json:"kind,omitempty"` // chat (default), qa, condense
	Input       string         `json:"input,omitempty"`
	Variables   map[string]any `json:"variables,omitempty"`
	ChatHistory []Message      `json:"chat_history,omitempty"`
	Kwargs      map[string]any `json:"model_kwargs,omitempty"`
}

// AdapterInfo describes one registration.
type AdapterInfo struct {
	Pattern string `json:"pattern"`
	Adapter string `json:"adapter"`
}

// ResolveResponse is returned by /v1/adapters/resolve.
type ResolveResponse struct {
	Model   string        `json:"model"`
	Adapter string        `json:"adapter"`
	Pattern string        `json:"pattern"`
	Matches []AdapterInfo `json:"matches"`
}

// RenderResponse is returned by /v1/prompts/render.
type RenderResponse struct {
	Model           string         `json:"model"`
	Adapter         string         `json:"adapter"`
	Kind            string         `json:"kind"`
	TemplateKind    string         `json:"template_kind"`
	InputVariables  []string       `json:"input_variables"`
	System          string         `json:"system,omitempty"`
	Messages        []chat.Message `json:"messages,omitempty"`
	Prompt          string         `json:"prompt,omitempty"`
	EstimatedTokens int            `json:"estimated_tokens"`
}

// ChatResponse is returned by /v1/chat.
type ChatResponse struct {
	RequestID  string    `json:"request_id"`
	Model      string    `json:"model"`
	Adapter    string    `json:"adapter"`
	Text       string    `json:"text"`
	StopReason string    `json:"stop_reason,omitempty"`
	Usage      llm.Usage `json:"usage"`
}

// Stream frame types.
const (
	FrameChunk = "chunk"
	FrameDone  = "done"
	FrameError = "error"
)

// StreamFrame is one websocket message sent by /v1/chat/stream.
type StreamFrame struct {
	Type       string     `json:"type"`
	Text       string     `json:"text,omitempty"`
	StopReason string     `json:"stop_reason,omitempty"`
	Usage      *llm.Usage `json:"usage,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// UsageResponse is returned by /v1/usage.
type UsageResponse struct {
	Metrics   map[string]int64    `json:"metrics"`
	Summaries []store.Summary     `json:"summaries"`
	Recent    []store.UsageRecord `json:"recent"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

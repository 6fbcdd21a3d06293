package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/compresr/model-adapters/internal/chat"
	"github.com/compresr/model-adapters/internal/prompts"
)

// Fixed vendor parameters.
const (
	AnthropicVersion          = "bedrock-2023-05-31"
	CohereReturnLikelihoods   = "GENERATION"
	defaultAnthropicMaxTokens = 1024
)

// setParams writes params into body in key order so encoded bodies are stable.
func setParams(body []byte, params Params) ([]byte, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var err error
	for _, k := range keys {
		body, err = sjson.SetBytes(body, escapePath(k), params[k])
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", k, err)
		}
	}
	return body, nil
}

func escapePath(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(key)
}

// =============================================================================
// ANTHROPIC (Messages API on Bedrock)
// =============================================================================

// AnthropicCodec encodes Anthropic Messages API bodies.
type AnthropicCodec struct{}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (AnthropicCodec) Name() string { return "anthropic" }

// Encode builds {"anthropic_version", "max_tokens", "system", "messages", ...params}.
// max_tokens is required by the API and defaults when not supplied.
func (AnthropicCodec) Encode(in Input, params Params, _ bool) ([]byte, error) {
	body := []byte(`{}`)
	body, err := setParams(body, params)
	if err != nil {
		return nil, err
	}
	if !params.Has("anthropic_version") {
		if body, err = sjson.SetBytes(body, "anthropic_version", AnthropicVersion); err != nil {
			return nil, err
		}
	}
	if !params.Has("max_tokens") {
		if body, err = sjson.SetBytes(body, "max_tokens", defaultAnthropicMaxTokens); err != nil {
			return nil, err
		}
	}

	systemParts := []string{}
	if in.System != "" {
		systemParts = append(systemParts, in.System)
	}
	var messages []anthropicMessage
	add := func(role, text string) {
		if n := len(messages); n > 0 && messages[n-1].Role == role {
			messages[n-1].Content += "\n\n" + text
			return
		}
		messages = append(messages, anthropicMessage{Role: role, Content: text})
	}
	for _, m := range in.Messages {
		switch m.Role {
		case chat.RoleSystem:
			systemParts = append(systemParts, m.Content)
		case chat.RoleHuman:
			add("user", m.Content)
		case chat.RoleAI:
			add("assistant", m.Content)
		default:
			return nil, chat.InvalidMessageError(m)
		}
	}
	if in.Prompt != "" {
		add("user", in.Prompt)
	}
	if len(messages) == 0 {
		return nil, ErrEmptyInput
	}

	if len(systemParts) > 0 {
		if body, err = sjson.SetBytes(body, "system", strings.Join(systemParts, "\n\n")); err != nil {
			return nil, err
		}
	}
	return sjson.SetBytes(body, "messages", messages)
}

// Decode concatenates the text content blocks.
func (AnthropicCodec) Decode(body []byte) (*Output, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON body")
	}
	var sb strings.Builder
	gjson.GetBytes(body, "content").ForEach(func(_, block gjson.Result) bool {
		if block.Get("type").String() == "text" {
			sb.WriteString(block.Get("text").String())
		}
		return true
	})
	out := &Output{
		Text:       sb.String(),
		StopReason: gjson.GetBytes(body, "stop_reason").String(),
		Usage: Usage{
			InputTokens:  int(gjson.GetBytes(body, "usage.input_tokens").Int()),
			OutputTokens: int(gjson.GetBytes(body, "usage.output_tokens").Int()),
		},
	}
	out.Usage.fill()
	return out, nil
}

// DecodeChunk handles message_start, content_block_delta, message_delta and
// the Bedrock invocation metrics attached to message_stop.
func (AnthropicCodec) DecodeChunk(payload []byte) (Chunk, error) {
	if !gjson.ValidBytes(payload) {
		return Chunk{}, fmt.Errorf("invalid JSON chunk")
	}
	event := gjson.ParseBytes(payload)
	var c Chunk
	switch event.Get("type").String() {
	case "message_start":
		c.Usage.InputTokens = int(event.Get("message.usage.input_tokens").Int())
	case "content_block_delta":
		c.Text = event.Get("delta.text").String()
	case "message_delta":
		c.StopReason = event.Get("delta.stop_reason").String()
		c.Usage.OutputTokens = int(event.Get("usage.output_tokens").Int())
	case "message_stop":
		c.Usage = invocationMetrics(event)
	}
	return c, nil
}

// =============================================================================
// COHERE COMMAND (text generation)
// =============================================================================

// CohereCommandCodec encodes Cohere Command text-generation bodies.
type CohereCommandCodec struct{}

func (CohereCommandCodec) Name() string { return "cohere" }

// Encode builds {"prompt", ...params} and sets "stream" for streaming calls.
// Structured input is flattened into a Human/AI transcript.
func (CohereCommandCodec) Encode(in Input, params Params, stream bool) ([]byte, error) {
	prompt, err := flatten(in)
	if err != nil {
		return nil, err
	}

	body, err := sjson.SetBytes([]byte(`{}`), "prompt", prompt)
	if err != nil {
		return nil, err
	}
	if body, err = setParams(body, params); err != nil {
		return nil, err
	}
	if stream {
		return sjson.SetBytes(body, "stream", true)
	}
	return body, nil
}

// Decode reads generations[0].
func (CohereCommandCodec) Decode(body []byte) (*Output, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON body")
	}
	gen := gjson.GetBytes(body, "generations.0")
	if !gen.Exists() {
		return nil, fmt.Errorf("response has no generations")
	}
	return &Output{
		Text:       gen.Get("text").String(),
		StopReason: gen.Get("finish_reason").String(),
	}, nil
}

// DecodeChunk reads {"text", "is_finished", "finish_reason"} stream parts.
func (CohereCommandCodec) DecodeChunk(payload []byte) (Chunk, error) {
	if !gjson.ValidBytes(payload) {
		return Chunk{}, fmt.Errorf("invalid JSON chunk")
	}
	event := gjson.ParseBytes(payload)
	c := Chunk{Text: event.Get("text").String()}
	if c.Text == "" {
		c.Text = event.Get("generations.0.text").String()
	}
	if event.Get("is_finished").Bool() {
		c.StopReason = event.Get("finish_reason").String()
		c.Text = ""
	}
	c.Usage = invocationMetrics(event)
	return c, nil
}

func invocationMetrics(event gjson.Result) Usage {
	m := event.Get(`amazon-bedrock-invocationMetrics`)
	if !m.Exists() {
		return Usage{}
	}
	return Usage{
		InputTokens:  int(m.Get("inputTokenCount").Int()),
		OutputTokens: int(m.Get("outputTokenCount").Int()),
	}
}

// flatten returns the prompt of a text input, or a Human/AI transcript of a
// structured one for vendors that take a single string.
func flatten(in Input) (string, error) {
	if in.Prompt != "" {
		return in.Prompt, nil
	}
	transcript, err := prompts.TranscriptHistory(in.Messages)
	if err != nil {
		return "", err
	}
	if in.System != "" {
		transcript = in.System + "\n\n" + transcript
	}
	if transcript == "" {
		return "", ErrEmptyInput
	}
	return transcript, nil
}

var (
	_ BodyCodec = AnthropicCodec{}
	_ BodyCodec = CohereCommandCodec{}
)

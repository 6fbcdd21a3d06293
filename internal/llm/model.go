// Package llm wraps the vendor model APIs behind a single Model interface.
//
// DESIGN: Three client shapes cover every adapter:
//   - ConverseModel:      Bedrock Converse / ConverseStream (structured messages)
//   - InvokeModel:        Bedrock InvokeModel with a vendor BodyCodec
//   - SageMakerEndpoint:  signed HTTP POST to a SageMaker inference endpoint
//
// Models are configured once by an adapter and are safe for concurrent use.
// Vendor errors are wrapped and returned; nothing here retries.
package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/compresr/model-adapters/internal/chat"
)

// ErrEmptyInput is returned when an Input carries neither prompt nor messages.
var ErrEmptyInput = errors.New("empty model input")

// Input is a rendered prompt. Text templates produce Prompt; chat templates
// produce System plus Messages.
type Input struct {
	System   string         `json:"system,omitempty"`
	Messages []chat.Message `json:"messages,omitempty"`
	Prompt   string         `json:"prompt,omitempty"`
}

// IsEmpty reports whether the input has nothing to send.
func (in Input) IsEmpty() bool {
	return in.System == "" && in.Prompt == "" && len(in.Messages) == 0
}

// Text returns the input as one string, for token estimation and for
// vendors that accept only a prompt.
func (in Input) Text() string {
	if in.Prompt != "" {
		return in.Prompt
	}
	parts := make([]string, 0, len(in.Messages)+1)
	if in.System != "" {
		parts = append(parts, in.System)
	}
	for _, m := range in.Messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n")
}

// Usage is the token accounting reported by the vendor. Zero when unknown.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

func (u *Usage) fill() {
	if u.TotalTokens == 0 {
		u.TotalTokens = u.InputTokens + u.OutputTokens
	}
}

// Output is a completed generation.
type Output struct {
	Text       string `json:"text"`
	StopReason string `json:"stop_reason,omitempty"`
	Usage      Usage  `json:"usage"`
}

// ChunkFunc receives streamed text deltas. Returning an error stops the stream.
type ChunkFunc func(text string) error

// Model is a configured client for one model.
type Model interface {
	// ModelID returns the vendor model or endpoint identifier.
	ModelID() string

	// Params returns the vendor parameters sent with every call.
	Params() Params

	// Streaming reports whether callers should prefer Stream.
	Streaming() bool

	// Generate runs a single non-streaming call.
	Generate(ctx context.Context, in Input) (*Output, error)

	// Stream runs a streaming call, invoking fn per text delta, and returns
	// the aggregated output. Models that cannot stream emit one chunk.
	Stream(ctx context.Context, in Input, fn ChunkFunc) (*Output, error)
}

// Run calls Stream when the model streams and fn is set, Generate otherwise.
func Run(ctx context.Context, m Model, in Input, fn ChunkFunc) (*Output, error) {
	if m.Streaming() && fn != nil {
		return m.Stream(ctx, in, fn)
	}
	return m.Generate(ctx, in)
}

// =============================================================================
// BEDROCK RUNTIME
// =============================================================================

// EventReader is the part of an SDK event stream consumed here.
type EventReader[T any] interface {
	Events() <-chan T
	Close() error
	Err() error
}

// BedrockAPI is the Bedrock runtime surface used by ConverseModel and InvokeModel.
type BedrockAPI interface {
	Converse(ctx context.Context, in *bedrockruntime.ConverseInput) (*bedrockruntime.ConverseOutput, error)
	ConverseStream(ctx context.Context, in *bedrockruntime.ConverseStreamInput) (EventReader[types.ConverseStreamOutput], error)
	InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error)
	InvokeModelWithResponseStream(ctx context.Context, in *bedrockruntime.InvokeModelWithResponseStreamInput) (EventReader[types.ResponseStream], error)
}

// BedrockClient adapts *bedrockruntime.Client to BedrockAPI.
type BedrockClient struct {
	client *bedrockruntime.Client
}

// NewBedrockClient wraps an SDK client.
func NewBedrockClient(client *bedrockruntime.Client) *BedrockClient {
	return &BedrockClient{client: client}
}

// Region returns the client's configured region.
func (c *BedrockClient) Region() string {
	return c.client.Options().Region
}

func (c *BedrockClient) Converse(ctx context.Context, in *bedrockruntime.ConverseInput) (*bedrockruntime.ConverseOutput, error) {
	return c.client.Converse(ctx, in)
}

func (c *BedrockClient) ConverseStream(ctx context.Context, in *bedrockruntime.ConverseStreamInput) (EventReader[types.ConverseStreamOutput], error) {
	out, err := c.client.ConverseStream(ctx, in)
	if err != nil {
		return nil, err
	}
	return out.GetStream(), nil
}

func (c *BedrockClient) InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error) {
	return c.client.InvokeModel(ctx, in)
}

func (c *BedrockClient) InvokeModelWithResponseStream(ctx context.Context, in *bedrockruntime.InvokeModelWithResponseStreamInput) (EventReader[types.ResponseStream], error) {
	out, err := c.client.InvokeModelWithResponseStream(ctx, in)
	if err != nil {
		return nil, err
	}
	return out.GetStream(), nil
}

var _ BedrockAPI = (*BedrockClient)(nil)

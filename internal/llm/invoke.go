package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const jsonContentType = "application/json"

// BodyCodec builds and parses the vendor-native InvokeModel bodies.
type BodyCodec interface {
	// Name identifies the body format in logs.
	Name() string

	// Encode builds the request body. stream is set for
	// InvokeModelWithResponseStream calls.
	Encode(in Input, params Params, stream bool) ([]byte, error)

	// Decode parses a complete response body.
	Decode(body []byte) (*Output, error)

	// DecodeChunk parses one streamed payload part.
	DecodeChunk(payload []byte) (Chunk, error)
}

// Chunk is the information carried by one streamed payload part.
type Chunk struct {
	Text       string
	StopReason string
	Usage      Usage
}

// InvokeConfig configures an InvokeModel client.
type InvokeConfig struct {
	ModelID    string
	Params     Params
	Streaming  bool
	Guardrails *Guardrails
	Codec      BodyCodec
}

// InvokeModel calls the Bedrock InvokeModel API with a vendor-native body.
type InvokeModel struct {
	client BedrockAPI
	cfg    InvokeConfig
}

// NewInvokeModel creates an InvokeModel client for one model.
func NewInvokeModel(client BedrockAPI, cfg InvokeConfig) *InvokeModel {
	if cfg.Params == nil {
		cfg.Params = Params{}
	}
	return &InvokeModel{client: client, cfg: cfg}
}

func (m *InvokeModel) ModelID() string         { return m.cfg.ModelID }
func (m *InvokeModel) Params() Params          { return m.cfg.Params.Clone() }
func (m *InvokeModel) Streaming() bool         { return m.cfg.Streaming }
func (m *InvokeModel) Guardrails() *Guardrails { return m.cfg.Guardrails }
func (m *InvokeModel) Codec() BodyCodec        { return m.cfg.Codec }

// Generate calls InvokeModel.
func (m *InvokeModel) Generate(ctx context.Context, in Input) (*Output, error) {
	if in.IsEmpty() {
		return nil, ErrEmptyInput
	}
	body, err := m.cfg.Codec.Encode(in, m.cfg.Params, false)
	if err != nil {
		return nil, fmt.Errorf("encode %s body: %w", m.cfg.Codec.Name(), err)
	}

	req := &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(m.cfg.ModelID),
		Body:        body,
		ContentType: aws.String(jsonContentType),
		Accept:      aws.String(jsonContentType),
	}
	if g := m.cfg.Guardrails; g != nil {
		req.GuardrailIdentifier = aws.String(g.Identifier)
		req.GuardrailVersion = aws.String(g.Version)
	}

	resp, err := m.client.InvokeModel(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bedrock invoke %s: %w", m.cfg.ModelID, err)
	}
	out, err := m.cfg.Codec.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode %s response: %w", m.cfg.Codec.Name(), err)
	}
	return out, nil
}

// Stream calls InvokeModelWithResponseStream and forwards text deltas to fn.
func (m *InvokeModel) Stream(ctx context.Context, in Input, fn ChunkFunc) (*Output, error) {
	if in.IsEmpty() {
		return nil, ErrEmptyInput
	}
	body, err := m.cfg.Codec.Encode(in, m.cfg.Params, true)
	if err != nil {
		return nil, fmt.Errorf("encode %s body: %w", m.cfg.Codec.Name(), err)
	}

	req := &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(m.cfg.ModelID),
		Body:        body,
		ContentType: aws.String(jsonContentType),
		Accept:      aws.String(jsonContentType),
	}
	if g := m.cfg.Guardrails; g != nil {
		req.GuardrailIdentifier = aws.String(g.Identifier)
		req.GuardrailVersion = aws.String(g.Version)
	}

	stream, err := m.client.InvokeModelWithResponseStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bedrock invoke stream %s: %w", m.cfg.ModelID, err)
	}
	defer stream.Close()

	out := &Output{}
	var sb strings.Builder
	events := stream.Events()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case event, ok := <-events:
			if !ok {
				if err := stream.Err(); err != nil {
					return nil, fmt.Errorf("bedrock invoke stream %s: %w", m.cfg.ModelID, err)
				}
				out.Text = sb.String()
				out.Usage.fill()
				return out, nil
			}
			part, ok := event.(*types.ResponseStreamMemberChunk)
			if !ok {
				continue
			}
			chunk, err := m.cfg.Codec.DecodeChunk(part.Value.Bytes)
			if err != nil {
				return nil, fmt.Errorf("decode %s chunk: %w", m.cfg.Codec.Name(), err)
			}
			mergeUsage(&out.Usage, chunk.Usage)
			if chunk.StopReason != "" {
				out.StopReason = chunk.StopReason
			}
			if chunk.Text == "" {
				continue
			}
			sb.WriteString(chunk.Text)
			if fn != nil {
				if err := fn(chunk.Text); err != nil {
					return nil, err
				}
			}
		}
	}
}

// mergeUsage keeps the latest non-zero counters.
func mergeUsage(dst *Usage, src Usage) {
	if src.InputTokens > 0 {
		dst.InputTokens = src.InputTokens
	}
	if src.OutputTokens > 0 {
		dst.OutputTokens = src.OutputTokens
	}
	if src.TotalTokens > 0 {
		dst.TotalTokens = src.TotalTokens
	}
}

var _ Model = (*InvokeModel)(nil)

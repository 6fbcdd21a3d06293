package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/compresr/model-adapters/internal/chat"
)

// ConverseConfig configures a ConverseModel.
type ConverseConfig struct {
	ModelID    string
	Params     Params
	Streaming  bool
	Guardrails *Guardrails
}

// ConverseModel calls the Bedrock Converse API, which takes structured
// messages and a separate system prompt for every supported vendor.
type ConverseModel struct {
	client BedrockAPI
	cfg    ConverseConfig
}

// NewConverseModel creates a Converse client for one model.
func NewConverseModel(client BedrockAPI, cfg ConverseConfig) *ConverseModel {
	if cfg.Params == nil {
		cfg.Params = Params{}
	}
	return &ConverseModel{client: client, cfg: cfg}
}

func (m *ConverseModel) ModelID() string         { return m.cfg.ModelID }
func (m *ConverseModel) Params() Params          { return m.cfg.Params.Clone() }
func (m *ConverseModel) Streaming() bool         { return m.cfg.Streaming }
func (m *ConverseModel) Guardrails() *Guardrails { return m.cfg.Guardrails }

// Generate calls Converse.
func (m *ConverseModel) Generate(ctx context.Context, in Input) (*Output, error) {
	system, messages, err := converseMessages(in)
	if err != nil {
		return nil, err
	}

	req := &bedrockruntime.ConverseInput{
		ModelId:         aws.String(m.cfg.ModelID),
		Messages:        messages,
		InferenceConfig: inferenceConfig(m.cfg.Params),
		GuardrailConfig: m.cfg.Guardrails.converse(),
	}
	if len(system) > 0 {
		req.System = system
	}

	resp, err := m.client.Converse(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bedrock converse %s: %w", m.cfg.ModelID, err)
	}

	out := &Output{StopReason: string(resp.StopReason)}
	if msg, ok := resp.Output.(*types.ConverseOutputMemberMessage); ok {
		var sb strings.Builder
		for _, block := range msg.Value.Content {
			if text, ok := block.(*types.ContentBlockMemberText); ok {
				sb.WriteString(text.Value)
			}
		}
		out.Text = sb.String()
	}
	out.Usage = tokenUsage(resp.Usage)
	return out, nil
}

// Stream calls ConverseStream and forwards text deltas to fn.
func (m *ConverseModel) Stream(ctx context.Context, in Input, fn ChunkFunc) (*Output, error) {
	system, messages, err := converseMessages(in)
	if err != nil {
		return nil, err
	}

	req := &bedrockruntime.ConverseStreamInput{
		ModelId:         aws.String(m.cfg.ModelID),
		Messages:        messages,
		InferenceConfig: inferenceConfig(m.cfg.Params),
		GuardrailConfig: m.cfg.Guardrails.converseStream(),
	}
	if len(system) > 0 {
		req.System = system
	}

	stream, err := m.client.ConverseStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bedrock converse stream %s: %w", m.cfg.ModelID, err)
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
					return nil, fmt.Errorf("bedrock converse stream %s: %w", m.cfg.ModelID, err)
				}
				out.Text = sb.String()
				out.Usage.fill()
				return out, nil
			}
			switch v := event.(type) {
			case *types.ConverseStreamOutputMemberContentBlockDelta:
				delta, ok := v.Value.Delta.(*types.ContentBlockDeltaMemberText)
				if !ok || delta.Value == "" {
					continue
				}
				sb.WriteString(delta.Value)
				if fn != nil {
					if err := fn(delta.Value); err != nil {
						return nil, err
					}
				}
			case *types.ConverseStreamOutputMemberMessageStop:
				out.StopReason = string(v.Value.StopReason)
			case *types.ConverseStreamOutputMemberMetadata:
				out.Usage = tokenUsage(v.Value.Usage)
			}
		}
	}
}

// converseMessages maps an Input onto Converse system blocks and messages.
// Consecutive turns with the same role are merged, as Converse requires
// alternating roles.
func converseMessages(in Input) ([]types.SystemContentBlock, []types.Message, error) {
	var system []types.SystemContentBlock
	if in.System != "" {
		system = append(system, &types.SystemContentBlockMemberText{Value: in.System})
	}

	var messages []types.Message
	add := func(role types.ConversationRole, text string) {
		block := &types.ContentBlockMemberText{Value: text}
		if n := len(messages); n > 0 && messages[n-1].Role == role {
			messages[n-1].Content = append(messages[n-1].Content, block)
			return
		}
		messages = append(messages, types.Message{Role: role, Content: []types.ContentBlock{block}})
	}

	for _, msg := range in.Messages {
		switch msg.Role {
		case chat.RoleSystem:
			system = append(system, &types.SystemContentBlockMemberText{Value: msg.Content})
		case chat.RoleHuman:
			add(types.ConversationRoleUser, msg.Content)
		case chat.RoleAI:
			add(types.ConversationRoleAssistant, msg.Content)
		default:
			return nil, nil, chat.InvalidMessageError(msg)
		}
	}
	if in.Prompt != "" {
		add(types.ConversationRoleUser, in.Prompt)
	}

	if len(messages) == 0 {
		return nil, nil, ErrEmptyInput
	}
	return system, messages, nil
}

func inferenceConfig(p Params) *types.InferenceConfiguration {
	cfg := &types.InferenceConfiguration{}
	set := false
	if v, ok := p.float("temperature"); ok {
		cfg.Temperature = aws.Float32(float32(v))
		set = true
	}
	if v, ok := p.float("top_p"); ok {
		cfg.TopP = aws.Float32(float32(v))
		set = true
	}
	if v, ok := p.float("max_tokens"); ok {
		cfg.MaxTokens = aws.Int32(int32(v))
		set = true
	}
	if !set {
		return nil
	}
	return cfg
}

func tokenUsage(u *types.TokenUsage) Usage {
	var usage Usage
	if u == nil {
		return usage
	}
	if u.InputTokens != nil {
		usage.InputTokens = int(*u.InputTokens)
	}
	if u.OutputTokens != nil {
		usage.OutputTokens = int(*u.OutputTokens)
	}
	if u.TotalTokens != nil {
		usage.TotalTokens = int(*u.TotalTokens)
	}
	usage.fill()
	return usage
}

var _ Model = (*ConverseModel)(nil)

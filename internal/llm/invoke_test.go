package llm

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/compresr/model-adapters/internal/chat"
)

func payload(s string) types.ResponseStream {
	return &types.ResponseStreamMemberChunk{Value: types.PayloadPart{Bytes: []byte(s)}}
}

func TestAnthropicCodec_Encode(t *testing.T) {
	body, err := AnthropicCodec{}.Encode(Input{Prompt: "Question: hi"}, Params{
		"anthropic_version": AnthropicVersion,
		"temperature":       0.4,
		"top_p":             0.7,
	}, false)
	require.NoError(t, err)

	assert.Equal(t, "bedrock-2023-05-31", gjson.GetBytes(body, "anthropic_version").String())
	assert.Equal(t, 0.4, gjson.GetBytes(body, "temperature").Float())
	assert.Equal(t, 0.7, gjson.GetBytes(body, "top_p").Float())
	assert.Equal(t, int64(defaultAnthropicMaxTokens), gjson.GetBytes(body, "max_tokens").Int())
	assert.False(t, gjson.GetBytes(body, "system").Exists())
	assert.Equal(t, "user", gjson.GetBytes(body, "messages.0.role").String())
	assert.Equal(t, "Question: hi", gjson.GetBytes(body, "messages.0.content").String())
}

func TestAnthropicCodec_EncodeMessages(t *testing.T) {
	body, err := AnthropicCodec{}.Encode(Input{
		System:   "sys",
		Messages: []chat.Message{chat.Human("a"), chat.AI("b"), chat.Human("c")},
	}, Params{"max_tokens": 10}, true)
	require.NoError(t, err)

	assert.Equal(t, "sys", gjson.GetBytes(body, "system").String())
	assert.Equal(t, int64(10), gjson.GetBytes(body, "max_tokens").Int())
	assert.Equal(t, int64(3), gjson.GetBytes(body, "messages.#").Int())
	assert.Equal(t, "assistant", gjson.GetBytes(body, "messages.1.role").String())
	assert.False(t, gjson.GetBytes(body, "stream").Exists())
}

func TestAnthropicCodec_Decode(t *testing.T) {
	out, err := AnthropicCodec{}.Decode([]byte(`{
		"content":[{"type":"text","text":"Bon"},{"type":"tool_use"},{"type":"text","text":"jour"}],
		"stop_reason":"end_turn",
		"usage":{"input_tokens":7,"output_tokens":3}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", out.Text)
	assert.Equal(t, "end_turn", out.StopReason)
	assert.Equal(t, Usage{InputTokens: 7, OutputTokens: 3, TotalTokens: 10}, out.Usage)

	_, err = AnthropicCodec{}.Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestCohereCommandCodec_Encode(t *testing.T) {
	params := Params{"temperature": 0.2, "max_tokens": 50, "return_likelihoods": CohereReturnLikelihoods}

	body, err := CohereCommandCodec{}.Encode(Input{Prompt: "\n\nHuman: hi\n\nAssistant:"}, params, false)
	require.NoError(t, err)
	assert.Equal(t, "\n\nHuman: hi\n\nAssistant:", gjson.GetBytes(body, "prompt").String())
	assert.Equal(t, "GENERATION", gjson.GetBytes(body, "return_likelihoods").String())
	assert.Equal(t, int64(50), gjson.GetBytes(body, "max_tokens").Int())
	assert.False(t, gjson.GetBytes(body, "p").Exists())
	assert.False(t, gjson.GetBytes(body, "stream").Exists())

	body, err = CohereCommandCodec{}.Encode(Input{Messages: []chat.Message{chat.Human("q")}}, params, true)
	require.NoError(t, err)
	assert.Equal(t, "Human: q\n", gjson.GetBytes(body, "prompt").String())
	assert.True(t, gjson.GetBytes(body, "stream").Bool())
}

func TestCohereCommandCodec_Decode(t *testing.T) {
	out, err := CohereCommandCodec{}.Decode([]byte(`{"generations":[{"text":" Salut","finish_reason":"COMPLETE"}]}`))
	require.NoError(t, err)
	assert.Equal(t, " Salut", out.Text)
	assert.Equal(t, "COMPLETE", out.StopReason)

	_, err = CohereCommandCodec{}.Decode([]byte(`{"generations":[]}`))
	assert.Error(t, err)
}

func TestInvokeModel_Generate(t *testing.T) {
	fake := &fakeBedrock{invokeOut: &bedrockruntime.InvokeModelOutput{
		Body: []byte(`{"content":[{"type":"text","text":"ok"}],"usage":{"input_tokens":1,"output_tokens":1}}`),
	}}
	m := NewInvokeModel(fake, InvokeConfig{
		ModelID: "anthropic.claude-v2",
		Params:  Params{"anthropic_version": AnthropicVersion},
		Codec:   AnthropicCodec{},
	})

	out, err := m.Generate(context.Background(), Input{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Text)

	req := fake.invokeIn
	require.NotNil(t, req)
	assert.Equal(t, "anthropic.claude-v2", aws.ToString(req.ModelId))
	assert.Equal(t, "application/json", aws.ToString(req.ContentType))
	assert.Nil(t, req.GuardrailIdentifier)
	assert.Nil(t, req.GuardrailVersion)
}

func TestInvokeModel_Guardrails(t *testing.T) {
	fake := &fakeBedrock{invokeOut: &bedrockruntime.InvokeModelOutput{
		Body: []byte(`{"generations":[{"text":"x"}]}`),
	}}
	m := NewInvokeModel(fake, InvokeConfig{
		ModelID:    "cohere.command-text-v14",
		Codec:      CohereCommandCodec{},
		Guardrails: &Guardrails{Identifier: "gr-9", Version: "1"},
	})
	_, err := m.Generate(context.Background(), Input{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "gr-9", aws.ToString(fake.invokeIn.GuardrailIdentifier))
	assert.Equal(t, "1", aws.ToString(fake.invokeIn.GuardrailVersion))
}

func TestInvokeModel_StreamAnthropic(t *testing.T) {
	reader := newFakeReader(nil,
		payload(`{"type":"message_start","message":{"usage":{"input_tokens":12}}}`),
		payload(`{"type":"content_block_delta","delta":{"type":"text_delta","text":"Bon"}}`),
		payload(`{"type":"content_block_delta","delta":{"type":"text_delta","text":"jour"}}`),
		payload(`{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":2}}`),
		payload(`{"type":"message_stop"}`),
	)
	fake := &fakeBedrock{invokeEvts: reader}
	m := NewInvokeModel(fake, InvokeConfig{ModelID: "claude", Codec: AnthropicCodec{}, Streaming: true})

	var chunks []string
	out, err := m.Stream(context.Background(), Input{Prompt: "hi"}, func(s string) error {
		chunks = append(chunks, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bon", "jour"}, chunks)
	assert.Equal(t, "Bonjour", out.Text)
	assert.Equal(t, "end_turn", out.StopReason)
	assert.Equal(t, Usage{InputTokens: 12, OutputTokens: 2, TotalTokens: 14}, out.Usage)
	assert.True(t, reader.closed)
	assert.NotNil(t, fake.invokeStreamIn)
}

func TestInvokeModel_StreamCohere(t *testing.T) {
	reader := newFakeReader(nil,
		payload(`{"text":"Sa","is_finished":false}`),
		payload(`{"text":"lut","is_finished":false}`),
		payload(`{"is_finished":true,"finish_reason":"COMPLETE","amazon-bedrock-invocationMetrics":{"inputTokenCount":4,"outputTokenCount":2}}`),
	)
	fake := &fakeBedrock{invokeEvts: reader}
	m := NewInvokeModel(fake, InvokeConfig{
		ModelID:    "cohere.command-text-v14",
		Codec:      CohereCommandCodec{},
		Guardrails: &Guardrails{Identifier: "g", Version: "DRAFT"},
	})

	out, err := m.Stream(context.Background(), Input{Prompt: "hi"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Salut", out.Text)
	assert.Equal(t, "COMPLETE", out.StopReason)
	assert.Equal(t, 6, out.Usage.TotalTokens)
	assert.True(t, gjson.GetBytes(fake.invokeStreamIn.Body, "stream").Bool())
	assert.Equal(t, "g", aws.ToString(fake.invokeStreamIn.GuardrailIdentifier))
}

func TestInvokeModel_EmptyInput(t *testing.T) {
	m := NewInvokeModel(&fakeBedrock{}, InvokeConfig{ModelID: "m", Codec: AnthropicCodec{}})
	_, err := m.Generate(context.Background(), Input{})
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = m.Stream(context.Background(), Input{}, nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

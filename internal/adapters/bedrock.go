package adapters

import (
	"github.com/rs/zerolog/log"

	"github.com/compresr/model-adapters/internal/llm"
	"github.com/compresr/model-adapters/internal/prompts"
)

// BedrockChatAdapter serves models through the Bedrock Converse API.
//
// Variants:
//   - noSystemPrompt: the model rejects a system role or structured history,
//     so prompts are single strings with a flattened transcript.
//   - noStreaming: the model cannot stream through ConverseStream.
type BedrockChatAdapter struct {
	BaseAdapter
	noStreaming    bool
	noSystemPrompt bool
}

// NewBedrockChatAdapter creates the standard Converse adapter.
func NewBedrockChatAdapter(modelID string, opts Options) Adapter {
	return &BedrockChatAdapter{BaseAdapter: newBase("bedrock-chat", modelID, opts)}
}

// NewBedrockChatNoSystemPromptAdapter creates a Converse adapter with flattened prompts.
func NewBedrockChatNoSystemPromptAdapter(modelID string, opts Options) Adapter {
	return &BedrockChatAdapter{
		BaseAdapter:    newBase("bedrock-chat-no-system-prompt", modelID, opts),
		noSystemPrompt: true,
	}
}

// NewBedrockChatNoStreamingAdapter creates a Converse adapter that never streams.
func NewBedrockChatNoStreamingAdapter(modelID string, opts Options) Adapter {
	return &BedrockChatAdapter{
		BaseAdapter: newBase("bedrock-chat-no-streaming", modelID, opts),
		noStreaming: true,
	}
}

// NewBedrockChatNoStreamingNoSystemPromptAdapter combines both restrictions.
func NewBedrockChatNoStreamingNoSystemPromptAdapter(modelID string, opts Options) Adapter {
	return &BedrockChatAdapter{
		BaseAdapter:    newBase("bedrock-chat-no-streaming-no-system-prompt", modelID, opts),
		noStreaming:    true,
		noSystemPrompt: true,
	}
}

// StreamingDisabled reports whether the adapter forces streaming off.
func (a *BedrockChatAdapter) StreamingDisabled() bool { return a.noStreaming }

// SystemPromptDisabled reports whether prompts are flattened single strings.
func (a *BedrockChatAdapter) SystemPromptDisabled() bool { return a.noSystemPrompt }

// LLM returns a Converse client. Streaming requires both kwargs.Streaming and
// an adapter that allows it. Guardrails are read from the environment.
func (a *BedrockChatAdapter) LLM(kwargs llm.ModelKwargs) (llm.Model, error) {
	client, err := a.bedrock()
	if err != nil {
		return nil, err
	}

	cfg := llm.ConverseConfig{
		ModelID:    a.modelID,
		Params:     llm.ConverseParams.Apply(kwargs),
		Streaming:  kwargs.Streaming && !a.noStreaming,
		Guardrails: llm.GuardrailsFromEnv(),
	}

	log.Debug().
		Str("adapter", a.name).
		Str("model", a.modelID).
		Bool("streaming", cfg.Streaming).
		Bool("guardrails", cfg.Guardrails != nil).
		Msg("converse client configured")

	return llm.NewConverseModel(client, cfg), nil
}

// =============================================================================
// PROMPTS
// =============================================================================

// Prompt returns the plain chat template.
func (a *BedrockChatAdapter) Prompt() prompts.Template {
	if a.noSystemPrompt {
		return prompts.NoSystemPrompt()
	}
	return prompts.BedrockChatPrompt()
}

// QAPrompt returns the retrieval-augmented template.
func (a *BedrockChatAdapter) QAPrompt() prompts.Template {
	if a.noSystemPrompt {
		return prompts.NoSystemQAPrompt()
	}
	return prompts.BedrockChatQAPrompt()
}

// CondenseQuestionPrompt returns the question-rewriting template.
func (a *BedrockChatAdapter) CondenseQuestionPrompt() prompts.Template {
	if a.noSystemPrompt {
		return prompts.NoSystemCondenseQuestionPrompt()
	}
	return prompts.BedrockChatCondenseQuestionPrompt()
}

// Ensure BedrockChatAdapter implements Adapter
var _ Adapter = (*BedrockChatAdapter)(nil)

package adapters

import (
	"github.com/rs/zerolog/log"

	"github.com/compresr/model-adapters/internal/llm"
	"github.com/compresr/model-adapters/internal/prompts"
)

// BedrockClaudeAdapter serves Claude through InvokeModel with an Anthropic
// Messages body and single-string prompts.
type BedrockClaudeAdapter struct {
	BaseAdapter
}

// NewBedrockClaudeAdapter creates a Claude InvokeModel adapter.
func NewBedrockClaudeAdapter(modelID string, opts Options) Adapter {
	return &BedrockClaudeAdapter{BaseAdapter: newBase("bedrock-claude", modelID, opts)}
}

// LLM returns an InvokeModel client. anthropic_version is always sent.
func (a *BedrockClaudeAdapter) LLM(kwargs llm.ModelKwargs) (llm.Model, error) {
	client, err := a.bedrock()
	if err != nil {
		return nil, err
	}

	params := llm.AnthropicParams.Apply(kwargs)
	params["anthropic_version"] = llm.AnthropicVersion

	log.Debug().
		Str("adapter", a.name).
		Str("model", a.modelID).
		Bool("streaming", kwargs.Streaming).
		Msg("invoke client configured")

	return llm.NewInvokeModel(client, llm.InvokeConfig{
		ModelID:   a.modelID,
		Params:    params,
		Streaming: kwargs.Streaming,
		Codec:     llm.AnthropicCodec{},
	}), nil
}

func (a *BedrockClaudeAdapter) Prompt() prompts.Template   { return prompts.ClaudePrompt() }
func (a *BedrockClaudeAdapter) QAPrompt() prompts.Template { return prompts.ClaudeQAPrompt() }

func (a *BedrockClaudeAdapter) CondenseQuestionPrompt() prompts.Template {
	return prompts.ClaudeCondenseQuestionPrompt()
}

var _ Adapter = (*BedrockClaudeAdapter)(nil)

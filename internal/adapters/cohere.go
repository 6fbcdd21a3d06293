package adapters

import (
	"github.com/rs/zerolog/log"

	"github.com/compresr/model-adapters/internal/llm"
	"github.com/compresr/model-adapters/internal/prompts"
)

// BedrockCohereCommandAdapter serves Cohere Command text models through
// InvokeModel. Only the plain chat prompt is specific; the QA and condense
// prompts are the defaults.
type BedrockCohereCommandAdapter struct {
	BaseAdapter
}

// NewBedrockCohereCommandAdapter creates a Cohere Command adapter.
func NewBedrockCohereCommandAdapter(modelID string, opts Options) Adapter {
	return &BedrockCohereCommandAdapter{BaseAdapter: newBase("bedrock-cohere-command", modelID, opts)}
}

// LLM returns an InvokeModel client. topP is not forwarded and
// return_likelihoods is always GENERATION.
func (a *BedrockCohereCommandAdapter) LLM(kwargs llm.ModelKwargs) (llm.Model, error) {
	client, err := a.bedrock()
	if err != nil {
		return nil, err
	}

	params := llm.CohereCommandParams.Apply(kwargs)
	params["return_likelihoods"] = llm.CohereReturnLikelihoods
	guardrails := llm.GuardrailsFromEnv()

	log.Debug().
		Str("adapter", a.name).
		Str("model", a.modelID).
		Bool("streaming", kwargs.Streaming).
		Bool("guardrails", guardrails != nil).
		Msg("invoke client configured")

	return llm.NewInvokeModel(client, llm.InvokeConfig{
		ModelID:    a.modelID,
		Params:     params,
		Streaming:  kwargs.Streaming,
		Guardrails: guardrails,
		Codec:      llm.CohereCommandCodec{},
	}), nil
}

// Prompt returns the Human/Assistant framed chat template.
func (a *BedrockCohereCommandAdapter) Prompt() prompts.Template {
	return prompts.CohereCommandPrompt()
}

var _ Adapter = (*BedrockCohereCommandAdapter)(nil)

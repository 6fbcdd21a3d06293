package adapters

import (
	"github.com/rs/zerolog/log"

	"github.com/compresr/model-adapters/internal/llm"
	"github.com/compresr/model-adapters/internal/prompts"
)

// SageMakerAdapter serves text-generation models hosted on SageMaker
// endpoints. The family decides the content handler and prompt bank; the
// endpoint never streams.
type SageMakerAdapter struct {
	BaseAdapter
	handler  func() llm.ContentHandler
	prompt   func() *prompts.TextTemplate
	qa       func() *prompts.TextTemplate
	condense func() *prompts.TextTemplate
}

// NewSageMakerMistralInstructAdapter creates a Mistral instruct adapter.
func NewSageMakerMistralInstructAdapter(modelID string, opts Options) Adapter {
	return &SageMakerAdapter{
		BaseAdapter: newBase("sagemaker-mistral-instruct", modelID, opts),
		handler:     func() llm.ContentHandler { return llm.MistralInstructHandler() },
		prompt:      prompts.MistralInstructPrompt,
		qa:          prompts.MistralInstructQAPrompt,
		condense:    prompts.MistralInstructCondenseQuestionPrompt,
	}
}

// NewSageMakerLlama2ChatAdapter creates a Llama 2 chat adapter.
func NewSageMakerLlama2ChatAdapter(modelID string, opts Options) Adapter {
	return &SageMakerAdapter{
		BaseAdapter: newBase("sagemaker-llama2-chat", modelID, opts),
		handler:     func() llm.ContentHandler { return llm.Llama2ChatHandler() },
		prompt:      prompts.Llama2ChatPrompt,
		qa:          prompts.Llama2ChatQAPrompt,
		condense:    prompts.Llama2ChatCondensedQAPrompt,
	}
}

// NewSageMakerLlama3InstructAdapter creates a Llama 3 instruct adapter.
func NewSageMakerLlama3InstructAdapter(modelID string, opts Options) Adapter {
	return &SageMakerAdapter{
		BaseAdapter: newBase("sagemaker-llama3-instruct", modelID, opts),
		handler:     func() llm.ContentHandler { return llm.Llama3InstructHandler() },
		prompt:      prompts.Llama3Prompt,
		qa:          prompts.Llama3QAPrompt,
		condense:    prompts.Llama3CondensedQAPrompt,
	}
}

// LLM returns an endpoint client. kwargs.Streaming is ignored.
func (a *SageMakerAdapter) LLM(kwargs llm.ModelKwargs) (llm.Model, error) {
	target, err := a.sagemaker()
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("adapter", a.name).
		Str("model", a.modelID).
		Str("endpoint", target.EndpointName).
		Msg("sagemaker client configured")

	return llm.NewSageMakerEndpoint(target, a.handler(), llm.SageMakerParams.Apply(kwargs)), nil
}

func (a *SageMakerAdapter) Prompt() prompts.Template                 { return a.prompt() }
func (a *SageMakerAdapter) QAPrompt() prompts.Template               { return a.qa() }
func (a *SageMakerAdapter) CondenseQuestionPrompt() prompts.Template { return a.condense() }

var _ Adapter = (*SageMakerAdapter)(nil)

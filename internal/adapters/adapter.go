// Package adapters maps model identifiers onto model-family adapters.
//
// DESIGN: Hosted model families differ in what they accept (system role or
// not, structured history or a single string, streaming or not) and in how
// generation settings are named. An Adapter hides those differences behind
// four operations:
//
//   - LLM(kwargs):              configured client for the model
//   - Prompt():                 plain chat template
//   - QAPrompt():               retrieval-augmented template ({context})
//   - CondenseQuestionPrompt(): follow-up question rewriting template
//
// FLOW:
//  1. Caller resolves "provider.model" through the Registry (first match wins)
//  2. Constructor builds the adapter for the bare model name
//  3. Caller renders one of the templates with BuildInput
//  4. Caller runs the rendered Input on the model returned by LLM
//
// To add a model family: implement Adapter (embedding BaseAdapter for the
// defaults) and register its pattern in the built-in table.
package adapters

import (
	"errors"
	"fmt"
	"strings"

	"github.com/compresr/model-adapters/internal/chat"
	"github.com/compresr/model-adapters/internal/llm"
	"github.com/compresr/model-adapters/internal/prompts"
)

// ErrNoClients is returned by LLM when the adapter was built without a
// ClientProvider.
var ErrNoClients = errors.New("adapter has no client provider")

// Adapter is the per-model-family contract.
// Adapters are immutable after construction and safe for concurrent use.
type Adapter interface {
	// LLM returns a client configured from kwargs.
	LLM(kwargs llm.ModelKwargs) (llm.Model, error)

	// Prompt returns the plain chat template.
	Prompt() prompts.Template

	// QAPrompt returns the retrieval-augmented template.
	QAPrompt() prompts.Template

	// CondenseQuestionPrompt returns the follow-up rewriting template.
	CondenseQuestionPrompt() prompts.Template
}

// Constructor builds an adapter for a bare model ID.
type Constructor func(modelID string, opts Options) Adapter

// ClientProvider supplies the shared vendor clients.
type ClientProvider interface {
	Bedrock() (llm.BedrockAPI, error)
	SageMaker(modelID string) (*llm.SageMakerTarget, error)
}

// Options are passed to every constructor.
type Options struct {
	Clients ClientProvider
}

// Named is implemented by adapters that report a family name.
type Named interface {
	Name() string
}

// NameOf returns the adapter family name, or its Go type when unnamed.
func NameOf(a Adapter) string {
	if n, ok := a.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", a)
}

// BaseAdapter provides common functionality and the default prompt bank.
// Families embed it and override what differs.
type BaseAdapter struct {
	name    string
	modelID string
	clients ClientProvider
}

func newBase(name, modelID string, opts Options) BaseAdapter {
	return BaseAdapter{name: name, modelID: modelID, clients: opts.Clients}
}

// Name returns the adapter family name.
func (a *BaseAdapter) Name() string { return a.name }

// ModelID returns the bare model ID the adapter was built for.
func (a *BaseAdapter) ModelID() string { return a.modelID }

// Prompt returns the default plain chat template.
func (a *BaseAdapter) Prompt() prompts.Template { return prompts.DefaultPrompt() }

// QAPrompt returns the default retrieval-augmented template.
func (a *BaseAdapter) QAPrompt() prompts.Template { return prompts.DefaultQAPrompt() }

// CondenseQuestionPrompt returns the default question-rewriting template.
func (a *BaseAdapter) CondenseQuestionPrompt() prompts.Template {
	return prompts.DefaultCondenseQuestionPrompt()
}

func (a *BaseAdapter) bedrock() (llm.BedrockAPI, error) {
	if a.clients == nil {
		return nil, ErrNoClients
	}
	client, err := a.clients.Bedrock()
	if err != nil {
		return nil, fmt.Errorf("bedrock client for %s: %w", a.modelID, err)
	}
	return client, nil
}

func (a *BaseAdapter) sagemaker() (*llm.SageMakerTarget, error) {
	if a.clients == nil {
		return nil, ErrNoClients
	}
	target, err := a.clients.SageMaker(a.modelID)
	if err != nil {
		return nil, fmt.Errorf("sagemaker endpoint for %s: %w", a.modelID, err)
	}
	return target, nil
}

// =============================================================================
// PROMPT SELECTION AND RENDERING
// =============================================================================

// PromptKind selects one of an adapter's templates.
type PromptKind string

const (
	PromptChat     PromptKind = "chat"
	PromptQA       PromptKind = "qa"
	PromptCondense PromptKind = "condense"
)

// ParsePromptKind accepts "chat", "qa" and "condense" (empty means chat).
func ParsePromptKind(s string) (PromptKind, error) {
	switch PromptKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", PromptChat:
		return PromptChat, nil
	case PromptQA:
		return PromptQA, nil
	case PromptCondense:
		return PromptCondense, nil
	default:
		return "", fmt.Errorf("unknown prompt kind %q (want chat, qa or condense)", s)
	}
}

// SelectPrompt returns the adapter's template for kind.
func SelectPrompt(a Adapter, kind PromptKind) prompts.Template {
	switch kind {
	case PromptQA:
		return a.QAPrompt()
	case PromptCondense:
		return a.CondenseQuestionPrompt()
	default:
		return a.Prompt()
	}
}

// BuildInput renders tmpl into a model Input. Chat templates become a system
// prompt plus messages; text templates become a single prompt.
func BuildInput(tmpl prompts.Template, vars prompts.Values) (llm.Input, error) {
	switch t := tmpl.(type) {
	case *prompts.TextTemplate:
		prompt, err := t.Format(vars)
		if err != nil {
			return llm.Input{}, err
		}
		return llm.Input{Prompt: prompt}, nil

	case *prompts.ChatTemplate:
		msgs, err := t.FormatMessages(vars)
		if err != nil {
			return llm.Input{}, err
		}
		var in llm.Input
		var system []string
		for i, m := range msgs {
			if m.Role == chat.RoleSystem && len(in.Messages) == 0 {
				system = append(system, m.Content)
				continue
			}
			if m.Role == chat.RoleSystem {
				return llm.Input{}, fmt.Errorf("message %d: system message after conversation start", i)
			}
			in.Messages = append(in.Messages, m)
		}
		in.System = strings.Join(system, "\n\n")
		return in, nil

	default:
		return llm.Input{}, fmt.Errorf("unsupported template type %T", tmpl)
	}
}

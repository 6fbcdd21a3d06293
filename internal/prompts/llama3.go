package prompts

import (
	"strings"

	"github.com/compresr/model-adapters/internal/chat"
)

// Llama 3 special tokens.
// See https://llama.meta.com/docs/model-cards-and-prompt-formats/meta-llama-3/
const (
	Llama3BeginOfText     = "<|begin_of_text|>"
	Llama3SystemHeader    = "<|start_header_id|>system<|end_header_id|>"
	Llama3UserHeader      = "<|start_header_id|>user<|end_header_id|>"
	Llama3AssistantHeader = "<|start_header_id|>assistant<|end_header_id|>"
	Llama3EOT             = "<|eot_id|>"
)

const (
	llama3Prompt = Llama3BeginOfText + Llama3SystemHeader + `

` + friendlyConversationFR + Llama3EOT + `{chat_history}` + Llama3UserHeader + `

Context: {input}` + Llama3EOT + Llama3AssistantHeader

	llama3QAPrompt = Llama3BeginOfText + Llama3SystemHeader + `

` + friendlyConversationFR + Llama3EOT + `{chat_history}` + Llama3UserHeader + `

Context: {context}

{question}` + Llama3EOT + Llama3AssistantHeader

	llama3CondensePrompt = Llama3BeginOfText + Llama3SystemHeader + `

` + standaloneQuestionEN + Llama3EOT + `{chat_history}` + Llama3UserHeader + `

{question}` + Llama3EOT + Llama3AssistantHeader
)

// Llama3Prompt returns the plain chat template.
func Llama3Prompt() *TextTemplate { return NewTextTemplate(llama3Prompt, Llama3History) }

// Llama3QAPrompt returns the retrieval-augmented template.
func Llama3QAPrompt() *TextTemplate { return NewTextTemplate(llama3QAPrompt, Llama3History) }

// Llama3CondensedQAPrompt returns the question-rewriting template.
func Llama3CondensedQAPrompt() *TextTemplate {
	return NewTextTemplate(llama3CondensePrompt, Llama3History)
}

// Llama3History wraps every turn in its role header and terminates it with <|eot_id|>.
func Llama3History(messages []chat.Message) (string, error) {
	var sb strings.Builder
	for _, m := range messages {
		switch m.Role {
		case chat.RoleHuman:
			sb.WriteString(Llama3UserHeader)
		case chat.RoleAI:
			sb.WriteString(Llama3AssistantHeader)
		default:
			return "", chat.InvalidMessageError(m)
		}
		sb.WriteString("\n\n")
		sb.WriteString(m.Content)
		sb.WriteString(Llama3EOT)
	}
	return sb.String(), nil
}

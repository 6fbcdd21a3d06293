package prompts

import (
	"strings"

	"github.com/compresr/model-adapters/internal/chat"
)

// Llama 2 chat prompt bank.
// See https://huggingface.co/blog/llama2#how-to-prompt-llama-2
const (
	llama2Prompt = `<s>[INST] <<SYS>>
` + friendlyConversationFR + `
<</SYS>>

{chat_history}<s>[INST] Context: {input} [/INST]`

	llama2QAPrompt = `<s>[INST] <<SYS>>
` + friendlyConversationFR + `
<</SYS>>

{chat_history}<s>[INST] Context: {context}

{question} [/INST]`

	llama2CondensePrompt = `<s>[INST] <<SYS>>
` + standaloneQuestionEN + `
<</SYS>>

{chat_history}<s>[INST] {question} [/INST]`
)

// Llama2ChatPrompt returns the plain chat template.
func Llama2ChatPrompt() *TextTemplate { return NewTextTemplate(llama2Prompt, Llama2History) }

// Llama2ChatQAPrompt returns the retrieval-augmented template.
func Llama2ChatQAPrompt() *TextTemplate { return NewTextTemplate(llama2QAPrompt, Llama2History) }

// Llama2ChatCondensedQAPrompt returns the question-rewriting template.
func Llama2ChatCondensedQAPrompt() *TextTemplate {
	return NewTextTemplate(llama2CondensePrompt, Llama2History)
}

// Llama2History frames each human turn as "<s>[INST] {content} [/INST]" and
// each AI turn as "{content} </s>".
func Llama2History(messages []chat.Message) (string, error) {
	var sb strings.Builder
	for _, m := range messages {
		switch m.Role {
		case chat.RoleHuman:
			sb.WriteString("<s>[INST] ")
			sb.WriteString(m.Content)
			sb.WriteString(" [/INST]")
		case chat.RoleAI:
			sb.WriteString(m.Content)
			sb.WriteString(" </s>")
		default:
			return "", chat.InvalidMessageError(m)
		}
	}
	return sb.String(), nil
}

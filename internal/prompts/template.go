// Package prompts holds prompt templates and the per-family prompt banks.
//
// DESIGN: Two template shapes exist because model families differ in what
// they accept:
//   - ChatTemplate: system message, chat_history placeholder, human message.
//     Used with models that take structured multi-turn input.
//   - TextTemplate: a single string. Prior turns are serialized by a
//     HistoryFormatter and substituted as {chat_history}.
//
// Templates are immutable after construction and safe for concurrent use.
// Placeholders use {name} syntax.
package prompts

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/compresr/model-adapters/internal/chat"
)

// Well-known variable names.
const (
	VarInput       = "input"
	VarQuestion    = "question"
	VarContext     = "context"
	VarChatHistory = "chat_history"
)

// ErrMissingVariable is returned when a template is formatted without one of
// its input variables.
var ErrMissingVariable = errors.New("missing template variables")

// varPattern matches {variable} placeholders.
var varPattern = regexp.MustCompile(`\{(\w+)\}`)

// Kind distinguishes the two template shapes.
type Kind string

const (
	KindText Kind = "text"
	KindChat Kind = "chat"
)

// Values carries template variables. chat_history may be a string or a
// []chat.Message; every other value is rendered with fmt.Sprint.
type Values map[string]any

// Template is implemented by TextTemplate and ChatTemplate.
type Template interface {
	Kind() Kind
	InputVariables() []string
}

// =============================================================================
// TEXT TEMPLATE
// =============================================================================

// TextTemplate is a single-string template for models that accept only one
// prompt string.
type TextTemplate struct {
	template string
	history  HistoryFormatter
	vars     []string
}

// NewTextTemplate creates a text template. A nil history formatter falls back
// to TranscriptHistory.
func NewTextTemplate(template string, history HistoryFormatter) *TextTemplate {
	if history == nil {
		history = TranscriptHistory
	}
	return &TextTemplate{
		template: template,
		history:  history,
		vars:     extractVars(template),
	}
}

// Kind returns KindText.
func (t *TextTemplate) Kind() Kind { return KindText }

// InputVariables returns the sorted placeholder names.
func (t *TextTemplate) InputVariables() []string {
	return append([]string(nil), t.vars...)
}

// Template returns the raw template string.
func (t *TextTemplate) Template() string { return t.template }

// Format substitutes vars into the template. A chat_history given as
// messages is serialized with the template's history formatter first.
func (t *TextTemplate) Format(vars Values) (string, error) {
	rendered := make(map[string]string, len(vars))
	for name, value := range vars {
		if name == VarChatHistory {
			if msgs, ok := value.([]chat.Message); ok {
				s, err := t.history(msgs)
				if err != nil {
					return "", fmt.Errorf("format chat history: %w", err)
				}
				rendered[name] = s
				continue
			}
		}
		rendered[name] = stringify(value)
	}
	return substituteVars(t.template, rendered)
}

// =============================================================================
// CHAT TEMPLATE
// =============================================================================

// ChatPart is one entry of a chat template: either a fixed-role message
// whose text may contain placeholders, or a placeholder for a list of
// messages.
type ChatPart struct {
	Role        chat.Role
	Text        string
	Placeholder string
}

// SystemPart returns a system message part.
func SystemPart(text string) ChatPart { return ChatPart{Role: chat.RoleSystem, Text: text} }

// HumanPart returns a human message part.
func HumanPart(text string) ChatPart { return ChatPart{Role: chat.RoleHuman, Text: text} }

// MessagesPlaceholder returns a part that expands to the messages bound to name.
func MessagesPlaceholder(name string) ChatPart { return ChatPart{Placeholder: name} }

// ChatTemplate is a structured multi-message template.
type ChatTemplate struct {
	parts []ChatPart
	vars  []string
}

// NewChatTemplate creates a chat template from its parts.
func NewChatTemplate(parts ...ChatPart) *ChatTemplate {
	var all []string
	for _, p := range parts {
		if p.Placeholder != "" {
			all = append(all, p.Placeholder)
			continue
		}
		all = append(all, extractVars(p.Text)...)
	}
	return &ChatTemplate{
		parts: append([]ChatPart(nil), parts...),
		vars:  dedupe(all),
	}
}

// Kind returns KindChat.
func (t *ChatTemplate) Kind() Kind { return KindChat }

// InputVariables returns the sorted placeholder names, including message placeholders.
func (t *ChatTemplate) InputVariables() []string {
	return append([]string(nil), t.vars...)
}

// Parts returns a copy of the template parts.
func (t *ChatTemplate) Parts() []ChatPart {
	return append([]ChatPart(nil), t.parts...)
}

// FormatMessages renders every part. Placeholders expand to the bound
// []chat.Message; a missing placeholder value is an error.
func (t *ChatTemplate) FormatMessages(vars Values) ([]chat.Message, error) {
	rendered := make(map[string]string, len(vars))
	for name, value := range vars {
		if _, ok := value.([]chat.Message); ok {
			continue
		}
		rendered[name] = stringify(value)
	}

	var out []chat.Message
	for i, p := range t.parts {
		if p.Placeholder != "" {
			value, ok := vars[p.Placeholder]
			if !ok {
				return nil, fmt.Errorf("part %d: %w: %s", i, ErrMissingVariable, p.Placeholder)
			}
			msgs, ok := value.([]chat.Message)
			if !ok && value != nil {
				return nil, fmt.Errorf("part %d: placeholder %q expects messages, got %T", i, p.Placeholder, value)
			}
			out = append(out, msgs...)
			continue
		}
		text, err := substituteVars(p.Text, rendered)
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", i, err)
		}
		out = append(out, chat.Message{Role: p.Role, Content: text})
	}
	return out, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// substituteVars replaces all {variable} placeholders in template with values from vars.
func substituteVars(template string, vars map[string]string) (string, error) {
	var missing []string

	result := varPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := vars[name]; ok {
			return value
		}
		missing = append(missing, name)
		return match
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingVariable, strings.Join(dedupe(missing), ", "))
	}
	return result, nil
}

func extractVars(template string) []string {
	var names []string
	for _, m := range varPattern.FindAllStringSubmatch(template, -1) {
		names = append(names, m[1])
	}
	return dedupe(names)
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

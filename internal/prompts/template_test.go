package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compresr/model-adapters/internal/chat"
)

func TestTextTemplate_Format(t *testing.T) {
	tmpl := NewTextTemplate("Hello {name}, you asked: {question}", nil)

	assert.Equal(t, KindText, tmpl.Kind())
	assert.Equal(t, []string{"name", "question"}, tmpl.InputVariables())

	out, err := tmpl.Format(Values{"name": "Ada", "question": "why?"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada, you asked: why?", out)
}

func TestTextTemplate_MissingVariables(t *testing.T) {
	tmpl := NewTextTemplate("{a} and {b} and {a}", nil)

	_, err := tmpl.Format(Values{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingVariable)
	assert.Contains(t, err.Error(), "a, b")
}

func TestTextTemplate_NonStringValues(t *testing.T) {
	tmpl := NewTextTemplate("n={n} nil={x}", nil)
	out, err := tmpl.Format(Values{"n": 42, "x": nil})
	require.NoError(t, err)
	assert.Equal(t, "n=42 nil=", out)
}

func TestTextTemplate_HistoryAsMessages(t *testing.T) {
	tmpl := NewTextTemplate("{chat_history}Q: {input}", nil)
	out, err := tmpl.Format(Values{
		VarChatHistory: []chat.Message{chat.Human("hi"), chat.AI("hello")},
		VarInput:       "next",
	})
	require.NoError(t, err)
	assert.Equal(t, "Human: hi\nAI: hello\nQ: next", out)
}

func TestTextTemplate_HistoryAsString(t *testing.T) {
	tmpl := NewTextTemplate("[{chat_history}]", Llama2History)
	out, err := tmpl.Format(Values{VarChatHistory: "already rendered"})
	require.NoError(t, err)
	assert.Equal(t, "[already rendered]", out)
}

func TestTextTemplate_InvalidHistoryRole(t *testing.T) {
	tmpl := NewTextTemplate("{chat_history}", nil)
	_, err := tmpl.Format(Values{VarChatHistory: []chat.Message{chat.System("rules")}})
	require.Error(t, err)
	assert.ErrorIs(t, err, chat.ErrInvalidMessageType)
}

func TestChatTemplate_FormatMessages(t *testing.T) {
	tmpl := NewChatTemplate(
		SystemPart("You know {context}"),
		MessagesPlaceholder(VarChatHistory),
		HumanPart("{input}"),
	)

	assert.Equal(t, KindChat, tmpl.Kind())
	assert.Equal(t, []string{"chat_history", "context", "input"}, tmpl.InputVariables())
	assert.Len(t, tmpl.Parts(), 3)

	history := []chat.Message{chat.Human("hi"), chat.AI("hello")}
	msgs, err := tmpl.FormatMessages(Values{
		VarContext:     "docs",
		VarChatHistory: history,
		VarInput:       "and now?",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, chat.System("You know docs"), msgs[0])
	assert.Equal(t, history[0], msgs[1])
	assert.Equal(t, history[1], msgs[2])
	assert.Equal(t, chat.Human("and now?"), msgs[3])
}

func TestChatTemplate_NilHistoryExpandsToNothing(t *testing.T) {
	tmpl := NewChatTemplate(MessagesPlaceholder(VarChatHistory), HumanPart("{input}"))
	msgs, err := tmpl.FormatMessages(Values{VarChatHistory: nil, VarInput: "x"})
	require.NoError(t, err)
	assert.Equal(t, []chat.Message{chat.Human("x")}, msgs)
}

func TestChatTemplate_Errors(t *testing.T) {
	tmpl := NewChatTemplate(MessagesPlaceholder(VarChatHistory), HumanPart("{input}"))

	t.Run("missing placeholder", func(t *testing.T) {
		_, err := tmpl.FormatMessages(Values{VarInput: "x"})
		assert.ErrorIs(t, err, ErrMissingVariable)
	})

	t.Run("placeholder not messages", func(t *testing.T) {
		_, err := tmpl.FormatMessages(Values{VarChatHistory: "text", VarInput: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expects messages")
	})

	t.Run("missing text variable", func(t *testing.T) {
		_, err := tmpl.FormatMessages(Values{VarChatHistory: []chat.Message{}})
		assert.ErrorIs(t, err, ErrMissingVariable)
	})
}

func TestBuffer(t *testing.T) {
	b := NewBuffer(nil)
	b.Add(chat.Human("hi"), chat.AI("hello"))

	assert.Len(t, b.Messages(), 2)

	s, err := b.String()
	require.NoError(t, err)
	assert.Equal(t, "Human: hi\nAI: hello\n", s)

	msgs := b.Messages()
	msgs[0].Content = "mutated"
	assert.Equal(t, "hi", b.Messages()[0].Content)

	b.Clear()
	assert.Empty(t, b.Messages())
}

func TestBuffer_FamilyFormatter(t *testing.T) {
	b := NewBuffer(Llama2History)
	b.Add(chat.Human("hi"), chat.AI("hello"))
	s, err := b.String()
	require.NoError(t, err)
	assert.Equal(t, "<s>[INST] hi [/INST]hello </s>", s)
}

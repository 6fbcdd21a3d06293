package prompts

import (
	"strings"
	"sync"

	"github.com/compresr/model-adapters/internal/chat"
)

// HistoryFormatter serializes chat history into a single string. Roles other
// than human and AI fail with chat.ErrInvalidMessageType.
type HistoryFormatter func(messages []chat.Message) (string, error)

// TranscriptHistory renders "Human: ..." / "AI: ..." lines, each terminated
// by a newline. Used by models without structured history support.
func TranscriptHistory(messages []chat.Message) (string, error) {
	var sb strings.Builder
	for _, m := range messages {
		switch m.Role {
		case chat.RoleHuman:
			sb.WriteString("Human: ")
		case chat.RoleAI:
			sb.WriteString("AI: ")
		default:
			return "", chat.InvalidMessageError(m)
		}
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// Buffer is an in-memory conversation buffer that renders its messages with
// a family-specific HistoryFormatter. It is not a persistence layer.
type Buffer struct {
	mu       sync.RWMutex
	messages []chat.Message
	format   HistoryFormatter
}

// NewBuffer creates an empty buffer. A nil formatter falls back to TranscriptHistory.
func NewBuffer(format HistoryFormatter) *Buffer {
	if format == nil {
		format = TranscriptHistory
	}
	return &Buffer{format: format}
}

// Add appends messages to the buffer.
func (b *Buffer) Add(messages ...chat.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, messages...)
}

// Messages returns a copy of the buffered messages.
func (b *Buffer) Messages() []chat.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]chat.Message(nil), b.messages...)
}

// String renders the buffer with its formatter.
func (b *Buffer) String() (string, error) {
	return b.format(b.Messages())
}

// Clear drops all buffered messages.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = nil
}

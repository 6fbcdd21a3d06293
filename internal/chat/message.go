// Package chat defines the conversation messages shared by prompts and model clients.
//
// DESIGN: A message is a role plus text content. Only human and AI turns can
// be flattened into a single prompt string; the other roles exist so callers
// can pass structured input to models that accept a system role, and so that
// flattening can reject them explicitly instead of dropping them.
package chat

import (
	"errors"
	"fmt"
)

// Role identifies the author of a message.
type Role string

const (
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
	RoleSystem Role = "system"
	RoleTool   Role = "tool"
)

// ErrInvalidMessageType is returned when a message role cannot be serialized
// by a history formatter.
var ErrInvalidMessageType = errors.New("unsupported message type")

// Message is a single conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Human returns a human turn.
func Human(content string) Message { return Message{Role: RoleHuman, Content: content} }

// AI returns an AI turn.
func AI(content string) Message { return Message{Role: RoleAI, Content: content} }

// System returns a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// InvalidMessageError wraps ErrInvalidMessageType with the offending message.
func InvalidMessageError(m Message) error {
	return fmt.Errorf("%w: role=%q", ErrInvalidMessageType, m.Role)
}

// ParseRole maps the role spellings used by chat clients onto a Role.
// "user" and "assistant" are accepted as aliases of human and ai.
func ParseRole(s string) (Role, error) {
	switch s {
	case "human", "user":
		return RoleHuman, nil
	case "ai", "assistant":
		return RoleAI, nil
	case "system":
		return RoleSystem, nil
	case "tool":
		return RoleTool, nil
	default:
		return "", fmt.Errorf("%w: role=%q", ErrInvalidMessageType, s)
	}
}

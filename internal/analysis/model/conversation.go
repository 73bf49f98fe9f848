package model

import (
	"fmt"
	"time"
)

// MessageRole is the author of a conversation message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ConversationMessage is one entry of a session's append-only chat history.
type ConversationMessage struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	MessageID string      `json:"messageId"`
}

// NewUserMessage builds a history entry for an incoming question.
func NewUserMessage(content string) ConversationMessage {
	return newMessage(RoleUser, content)
}

// NewAssistantMessage builds a history entry for a generated answer.
func NewAssistantMessage(content string) ConversationMessage {
	return newMessage(RoleAssistant, content)
}

func newMessage(role MessageRole, content string) ConversationMessage {
	now := time.Now().UTC()
	return ConversationMessage{
		Role:      role,
		Content:   content,
		Timestamp: now,
		MessageID: fmt.Sprintf("msg_%d_%s", now.UnixMilli(), role),
	}
}

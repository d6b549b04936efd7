package model

import (
	"time"

	"github.com/google/uuid"
)

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is a single turn in a conversation. The auto-incremented ID keeps
// the ordering stable when two messages share a creation timestamp.
type Message struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	ConversationID uuid.UUID `gorm:"index;not null"`
	Role           string    `gorm:"not null"`
	Text           string    `gorm:"type:text"`
	CreatedAt      time.Time
}

type MessageList []Message

package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ConversationStatus is the externally visible state of a conversation.
// Transitions are driven only by the job processor and the webhook advancer.
type ConversationStatus string

const (
	ConversationStatusPending         ConversationStatus = "pending"
	ConversationStatusProcessing      ConversationStatus = "processing"
	ConversationStatusTranscribing    ConversationStatus = "transcribing"
	ConversationStatusGeneratingNotes ConversationStatus = "generating_notes"
	ConversationStatusDone            ConversationStatus = "done"
	ConversationStatusFailed          ConversationStatus = "failed"
)

// ParseConversationStatus normalizes a raw status string. The legacy
// "completed" value is accepted as a synonym of "done" but never produced
// by the pipeline.
func ParseConversationStatus(s string) (ConversationStatus, error) {
	switch s {
	case "pending":
		return ConversationStatusPending, nil
	case "processing":
		return ConversationStatusProcessing, nil
	case "transcribing":
		return ConversationStatusTranscribing, nil
	case "generating_notes":
		return ConversationStatusGeneratingNotes, nil
	case "done", "completed":
		return ConversationStatusDone, nil
	case "failed":
		return ConversationStatusFailed, nil
	default:
		return "", fmt.Errorf("unknown conversation status %q", s)
	}
}

// IsReadyForMessaging reports whether new messages may be created for a
// conversation in this status.
func (s ConversationStatus) IsReadyForMessaging() bool {
	return s == ConversationStatusDone
}

type Conversation struct {
	ID              uuid.UUID `gorm:"primaryKey"`
	UserID          string    `gorm:"index;not null"`
	Title           *string
	Status          string `gorm:"not null"`
	AudioURL        string
	TranscriptURL   *string
	NotesURL        *string
	TranscriptionID *string   `gorm:"index"`
	Messages        []Message `gorm:"constraint:OnDelete:CASCADE;"`
	Jobs            []Job     `gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type ConversationList []Conversation

func NewConversation(userID string) Conversation {
	return Conversation{
		ID:     uuid.New(),
		UserID: userID,
		Status: string(ConversationStatusPending),
	}
}

func (c Conversation) String() string {
	val, _ := json.Marshal(c)
	return string(val)
}

// Package v1alpha1 holds the wire types of the public API.
package v1alpha1

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	Id              uuid.UUID `json:"id"`
	Title           *string   `json:"title,omitempty"`
	Status          string    `json:"status"`
	AudioUrl        string    `json:"audioUrl,omitempty"`
	TranscriptionId *string   `json:"transcriptionId,omitempty"`
	HasTranscript   bool      `json:"hasTranscript"`
	HasNotes        bool      `json:"hasNotes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type ConversationList []Conversation

// ConversationSummary is the compact history entry: id plus display title.
type ConversationSummary struct {
	Id    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type ConversationSummaryList []ConversationSummary

type Message struct {
	Id        int64     `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type MessageList []Message

type ProcessAudioRequest struct {
	FileKey string `json:"fileKey"`
}

type CreateMessageRequest struct {
	Text string `json:"text"`
}

type SignUploadRequest struct {
	ConversationId uuid.UUID `json:"conversationId"`
	Filename       string    `json:"filename"`
}

type SignUploadResponse struct {
	Url     string `json:"url"`
	FileKey string `json:"fileKey"`
}

type DownloadUrlResponse struct {
	Url       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type TranscriptionWebhook struct {
	TranscriptId string `json:"transcript_id"`
	Status       string `json:"status"`
}

type TriggerResponse struct {
	Triggered bool `json:"triggered"`
}

type Error struct {
	Message string `json:"message"`
}

package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrConversationNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "conversation")
}

func NewErrJobNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "job")
}

type ErrForbidden struct {
	error
}

func NewErrForbidden(id uuid.UUID, userID string) *ErrForbidden {
	return &ErrForbidden{fmt.Errorf("conversation %s does not belong to user %s", id, userID)}
}

// ErrConversationNotReady rejects operations that need a finished pipeline,
// like chatting before the notes exist.
type ErrConversationNotReady struct {
	error
}

func NewErrConversationNotReady(id uuid.UUID, status string) *ErrConversationNotReady {
	return &ErrConversationNotReady{fmt.Errorf("conversation %s is not ready: status is %s", id, status)}
}

type ErrConversationHasNoAudio struct {
	error
}

func NewErrConversationHasNoAudio(id uuid.UUID) *ErrConversationHasNoAudio {
	return &ErrConversationHasNoAudio{fmt.Errorf("conversation %s has no processed audio", id)}
}

type ErrWebhookUnauthorized struct {
	error
}

func NewErrWebhookUnauthorized() *ErrWebhookUnauthorized {
	return &ErrWebhookUnauthorized{fmt.Errorf("webhook secret mismatch")}
}

type ErrWebhookMalformed struct {
	error
}

func NewErrWebhookMalformed(message string) *ErrWebhookMalformed {
	return &ErrWebhookMalformed{fmt.Errorf("malformed webhook payload: %s", message)}
}

// ErrUnknownTranscription is returned when a webhook callback references a
// transcription no job is waiting for.
type ErrUnknownTranscription struct {
	error
}

func NewErrUnknownTranscription(transcriptionID string) *ErrUnknownTranscription {
	return &ErrUnknownTranscription{fmt.Errorf("no job found for transcription %s", transcriptionID)}
}

package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a unit of work. The lifecycle is a
// strict subset of pending -> transcribing -> generating_notes -> completed,
// with failed reachable from any non-terminal state.
type JobStatus string

const (
	JobStatusPending         JobStatus = "pending"
	JobStatusTranscribing    JobStatus = "transcribing"
	JobStatusGeneratingNotes JobStatus = "generating_notes"
	JobStatusCompleted       JobStatus = "completed"
	JobStatusFailed          JobStatus = "failed"
)

func ParseJobStatus(s string) (JobStatus, error) {
	switch s {
	case "pending":
		return JobStatusPending, nil
	case "transcribing":
		return JobStatusTranscribing, nil
	case "generating_notes":
		return JobStatusGeneratingNotes, nil
	case "completed":
		return JobStatusCompleted, nil
	case "failed":
		return JobStatusFailed, nil
	default:
		return "", fmt.Errorf("unknown job status %q", s)
	}
}

// IsTerminal reports whether the status is final. A terminal job must never
// be moved back into the pipeline, in particular not by a late or duplicate
// webhook delivery.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo validates a single lifecycle step.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == JobStatusFailed {
		return true
	}
	switch s {
	case JobStatusPending:
		return next == JobStatusTranscribing
	case JobStatusTranscribing:
		return next == JobStatusGeneratingNotes
	case JobStatusGeneratingNotes:
		return next == JobStatusCompleted
	}
	return false
}

type Job struct {
	ID              uuid.UUID `gorm:"primaryKey"`
	ConversationID  uuid.UUID `gorm:"index;not null"`
	AudioURL        string
	Status          string `gorm:"index;not null"`
	Attempts        int
	TranscriptionID *string `gorm:"index"`
	LastError       *string
	ClaimToken      *string `gorm:"index"`
	ClaimedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type JobList []Job

func NewJob(conversationID uuid.UUID, audioURL string) Job {
	return Job{
		ID:             uuid.New(),
		ConversationID: conversationID,
		AudioURL:       audioURL,
		Status:         string(JobStatusPending),
	}
}

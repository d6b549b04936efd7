package service

import (
	"bytes"
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/voxnotes/voxnotes/internal/events"
	"github.com/voxnotes/voxnotes/internal/store/model"
)

func emitConversationEvent(ctx context.Context, producer *events.EventProducer, conv *model.Conversation) {
	if producer == nil || conv == nil {
		return
	}

	data, err := json.Marshal(events.ConversationEvent{
		ConversationID: conv.ID.String(),
		Status:         conv.Status,
	})
	if err != nil {
		return
	}

	if err := producer.Write(ctx, events.ConversationMessageKind, bytes.NewReader(data)); err != nil {
		zap.S().Named("service").Warnw("failed to emit conversation event", "error", err)
	}
}

func emitJobEvent(ctx context.Context, producer *events.EventProducer, job *model.Job) {
	if producer == nil || job == nil {
		return
	}

	event := events.JobEvent{
		JobID:          job.ID.String(),
		ConversationID: job.ConversationID.String(),
		Status:         job.Status,
	}
	if job.LastError != nil {
		event.Error = *job.LastError
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	if err := producer.Write(ctx, events.JobMessageKind, bytes.NewReader(data)); err != nil {
		zap.S().Named("service").Warnw("failed to emit job event", "error", err)
	}
}

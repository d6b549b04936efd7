package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxnotes/voxnotes/internal/generator"
	"github.com/voxnotes/voxnotes/internal/storage"
	"github.com/voxnotes/voxnotes/internal/store"
	"github.com/voxnotes/voxnotes/internal/store/model"
)

type MessageService struct {
	store     store.Store
	storage   storage.Storage
	generator generator.Generator
}

func NewMessageService(store store.Store, storage storage.Storage, generator generator.Generator) *MessageService {
	return &MessageService{store: store, storage: storage, generator: generator}
}

func (s *MessageService) ListMessages(ctx context.Context, userID string, conversationID uuid.UUID) (model.MessageList, error) {
	conversation, err := s.getOwned(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	return s.store.Message().List(ctx, conversation.ID)
}

// CreateMessage stores the user's question and the generated answer. The
// conversation must have finished the pipeline; the transcript and notes are
// the grounding context for the model.
func (s *MessageService) CreateMessage(ctx context.Context, userID string, conversationID uuid.UUID, text string) (*model.Message, error) {
	conversation, err := s.getOwned(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	status, err := model.ParseConversationStatus(conversation.Status)
	if err != nil || !status.IsReadyForMessaging() {
		return nil, NewErrConversationNotReady(conversationID, conversation.Status)
	}

	transcript, err := s.storage.GetText(ctx, storage.TranscriptKey(conversationID))
	if err != nil {
		zap.S().Named("message").Warnf("failed to load transcript of %s: %s", conversationID, err)
	}
	notes, err := s.storage.GetText(ctx, storage.NotesKey(conversationID))
	if err != nil {
		zap.S().Named("message").Warnf("failed to load notes of %s: %s", conversationID, err)
	}

	history, err := s.store.Message().List(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	turns := make([]generator.Turn, 0, len(history))
	for _, msg := range history {
		turns = append(turns, generator.Turn{Role: msg.Role, Text: msg.Text})
	}

	if _, err := s.store.Message().Create(ctx, model.Message{
		ConversationID: conversationID,
		Role:           string(model.MessageRoleUser),
		Text:           text,
	}); err != nil {
		return nil, err
	}

	answer, err := s.generator.GenerateChatResponse(ctx, text, transcript, notes, turns)
	if err != nil {
		return nil, err
	}

	return s.store.Message().Create(ctx, model.Message{
		ConversationID: conversationID,
		Role:           string(model.MessageRoleAssistant),
		Text:           answer,
	})
}

func (s *MessageService) getOwned(ctx context.Context, userID string, conversationID uuid.UUID) (*model.Conversation, error) {
	conversation, err := s.store.Conversation().Get(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrConversationNotFound(conversationID)
		}
		return nil, err
	}

	if conversation.UserID != userID {
		return nil, NewErrForbidden(conversationID, userID)
	}

	return conversation, nil
}

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voxnotes/voxnotes/internal/store/model"
)

type Message interface {
	List(ctx context.Context, conversationID uuid.UUID) (model.MessageList, error)
	Create(ctx context.Context, message model.Message) (*model.Message, error)
	DeleteByConversation(ctx context.Context, conversationID uuid.UUID) error
	InitialMigration(ctx context.Context) error
}

type MessageStore struct {
	db *gorm.DB
}

// Make sure we conform to the Message interface
var _ Message = (*MessageStore)(nil)

func NewMessageStore(db *gorm.DB) Message {
	return &MessageStore{db: db}
}

func (s *MessageStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.Message{})
}

// List returns the conversation's messages oldest first. The auto-increment
// id breaks ties between messages created within the same timestamp tick.
func (s *MessageStore) List(ctx context.Context, conversationID uuid.UUID) (model.MessageList, error) {
	var messages model.MessageList

	err := s.getDB(ctx).WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at").
		Order("id").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (s *MessageStore) Create(ctx context.Context, message model.Message) (*model.Message, error) {
	if err := s.getDB(ctx).WithContext(ctx).Create(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (s *MessageStore) DeleteByConversation(ctx context.Context, conversationID uuid.UUID) error {
	result := s.getDB(ctx).WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Delete(&model.Message{})
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (s *MessageStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}

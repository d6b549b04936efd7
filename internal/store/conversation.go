package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voxnotes/voxnotes/internal/store/model"
)

type Conversation interface {
	List(ctx context.Context, filter *ConversationQueryFilter, opts *ConversationQueryOptions) (model.ConversationList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Conversation, error)
	Create(ctx context.Context, conversation model.Conversation) (*model.Conversation, error)
	Update(ctx context.Context, id uuid.UUID, updates ConversationUpdate) (*model.Conversation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ConversationStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	InitialMigration(ctx context.Context) error
}

// ConversationUpdate lists the mutable fields; nil fields are left untouched.
type ConversationUpdate struct {
	Status          *model.ConversationStatus
	Title           *string
	AudioURL        *string
	TranscriptURL   *string
	NotesURL        *string
	TranscriptionID *string
}

type ConversationStore struct {
	db *gorm.DB
}

// Make sure we conform to the Conversation interface
var _ Conversation = (*ConversationStore)(nil)

func NewConversationStore(db *gorm.DB) Conversation {
	return &ConversationStore{db: db}
}

func (s *ConversationStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.Conversation{})
}

func (s *ConversationStore) List(ctx context.Context, filter *ConversationQueryFilter, opts *ConversationQueryOptions) (model.ConversationList, error) {
	var conversations model.ConversationList
	tx := s.getDB(ctx)

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Model(&conversations).Find(&conversations).Error; err != nil {
		return nil, err
	}

	return conversations, nil
}

func (s *ConversationStore) Get(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	conversation := &model.Conversation{ID: id}

	if err := s.getDB(ctx).WithContext(ctx).First(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return conversation, nil
}

func (s *ConversationStore) Create(ctx context.Context, conversation model.Conversation) (*model.Conversation, error) {
	if err := s.getDB(ctx).WithContext(ctx).Create(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}

	return &conversation, nil
}

func (s *ConversationStore) Update(ctx context.Context, id uuid.UUID, updates ConversationUpdate) (*model.Conversation, error) {
	conversation := model.Conversation{ID: id}
	selectFields := []string{}

	if updates.Status != nil {
		conversation.Status = string(*updates.Status)
		selectFields = append(selectFields, "status")
	}
	if updates.Title != nil {
		conversation.Title = updates.Title
		selectFields = append(selectFields, "title")
	}
	if updates.AudioURL != nil {
		conversation.AudioURL = *updates.AudioURL
		selectFields = append(selectFields, "audio_url")
	}
	if updates.TranscriptURL != nil {
		conversation.TranscriptURL = updates.TranscriptURL
		selectFields = append(selectFields, "transcript_url")
	}
	if updates.NotesURL != nil {
		conversation.NotesURL = updates.NotesURL
		selectFields = append(selectFields, "notes_url")
	}
	if updates.TranscriptionID != nil {
		conversation.TranscriptionID = updates.TranscriptionID
		selectFields = append(selectFields, "transcription_id")
	}

	if len(selectFields) == 0 {
		return s.Get(ctx, id)
	}

	result := s.getDB(ctx).WithContext(ctx).Model(&conversation).Clauses(clause.Returning{}).Select(selectFields).Updates(&conversation)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}

	return &conversation, nil
}

func (s *ConversationStore) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ConversationStatus) error {
	_, err := s.Update(ctx, id, ConversationUpdate{Status: &status})
	return err
}

func (s *ConversationStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.getDB(ctx).WithContext(ctx).Delete(&model.Conversation{ID: id})
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (s *ConversationStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voxnotes/voxnotes/internal/events"
	"github.com/voxnotes/voxnotes/internal/storage"
	"github.com/voxnotes/voxnotes/internal/store"
	"github.com/voxnotes/voxnotes/internal/store/model"
)

type ConversationService struct {
	store    store.Store
	storage  storage.Storage
	producer *events.EventProducer
}

func NewConversationService(store store.Store, storage storage.Storage, producer *events.EventProducer) *ConversationService {
	return &ConversationService{store: store, storage: storage, producer: producer}
}

func (s *ConversationService) CreateConversation(ctx context.Context, userID string) (*model.Conversation, error) {
	conversation, err := s.store.Conversation().Create(ctx, model.NewConversation(userID))
	if err != nil {
		return nil, err
	}

	emitConversationEvent(ctx, s.producer, conversation)
	return conversation, nil
}

func (s *ConversationService) ListConversations(ctx context.Context, userID string) (model.ConversationList, error) {
	filter := store.NewConversationQueryFilter().ByUserID(userID)
	opts := store.NewConversationQueryOptions().WithSortOrder(store.SortByCreatedTimeDesc)

	return s.store.Conversation().List(ctx, filter, opts)
}

// GetConversation returns the conversation if it exists and belongs to the
// user.
func (s *ConversationService) GetConversation(ctx context.Context, userID string, id uuid.UUID) (*model.Conversation, error) {
	conversation, err := s.store.Conversation().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrConversationNotFound(id)
		}
		return nil, err
	}

	if conversation.UserID != userID {
		return nil, NewErrForbidden(id, userID)
	}

	return conversation, nil
}

// SignAudioUpload hands the client a short-lived URL to upload a recording
// directly to the object store, together with the object key to send back
// on ProcessAudio.
func (s *ConversationService) SignAudioUpload(ctx context.Context, userID string, id uuid.UUID, filename string) (string, string, error) {
	if _, err := s.GetConversation(ctx, userID, id); err != nil {
		return "", "", err
	}

	key := storage.AudioKey(id, filename)
	url, err := s.storage.PresignPut(ctx, key, storage.UploadURLExpiry)
	if err != nil {
		return "", "", err
	}

	return url.String(), key, nil
}

// ProcessAudio attaches an uploaded recording to the conversation and queues
// the pipeline job. The conversation moves to processing; from here on the
// job processor owns the status.
func (s *ConversationService) ProcessAudio(ctx context.Context, userID string, id uuid.UUID, audioKey string) (*model.Conversation, error) {
	if _, err := s.GetConversation(ctx, userID, id); err != nil {
		return nil, err
	}

	// The transcription provider needs to read the recording for as long as
	// the job may sit in the queue.
	audioURL, err := s.storage.PresignGet(ctx, audioKey, storage.DownloadURLExpiry)
	if err != nil {
		return nil, err
	}

	ctx, err = s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	status := model.ConversationStatusProcessing
	audio := audioURL.String()
	conversation, err := s.store.Conversation().Update(ctx, id, store.ConversationUpdate{
		Status:   &status,
		AudioURL: &audio,
	})
	if err != nil {
		_, _ = store.Rollback(ctx)
		return nil, err
	}

	job, err := s.store.Job().Create(ctx, model.NewJob(id, audio))
	if err != nil {
		_, _ = store.Rollback(ctx)
		return nil, err
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	zap.S().Named("conversation").Infof("queued job %s for conversation %s", job.ID, id)

	emitConversationEvent(ctx, s.producer, conversation)
	emitJobEvent(ctx, s.producer, job)

	return conversation, nil
}

// GetTranscriptURL returns a signed link to the stored transcript.
func (s *ConversationService) GetTranscriptURL(ctx context.Context, userID string, id uuid.UUID) (string, time.Time, error) {
	conversation, err := s.GetConversation(ctx, userID, id)
	if err != nil {
		return "", time.Time{}, err
	}

	if conversation.TranscriptURL == nil {
		return "", time.Time{}, NewErrConversationHasNoAudio(id)
	}

	url, err := s.storage.PresignGet(ctx, storage.TranscriptKey(id), storage.DownloadURLExpiry)
	if err != nil {
		return "", time.Time{}, err
	}

	return url.String(), time.Now().Add(storage.DownloadURLExpiry), nil
}

// GetNotesURL returns a signed link to the stored notes.
func (s *ConversationService) GetNotesURL(ctx context.Context, userID string, id uuid.UUID) (string, time.Time, error) {
	conversation, err := s.GetConversation(ctx, userID, id)
	if err != nil {
		return "", time.Time{}, err
	}

	if conversation.NotesURL == nil {
		return "", time.Time{}, NewErrConversationHasNoAudio(id)
	}

	url, err := s.storage.PresignGet(ctx, storage.NotesKey(id), storage.DownloadURLExpiry)
	if err != nil {
		return "", time.Time{}, err
	}

	return url.String(), time.Now().Add(storage.DownloadURLExpiry), nil
}

// DeleteConversation removes the conversation with its jobs, messages and
// stored objects.
func (s *ConversationService) DeleteConversation(ctx context.Context, userID string, id uuid.UUID) error {
	if _, err := s.GetConversation(ctx, userID, id); err != nil {
		return err
	}

	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return err
	}

	if err := s.store.Message().DeleteByConversation(ctx, id); err != nil {
		_, _ = store.Rollback(ctx)
		return err
	}

	if err := s.store.Job().DeleteByConversation(ctx, id); err != nil {
		_, _ = store.Rollback(ctx)
		return err
	}

	if err := s.store.Conversation().Delete(ctx, id); err != nil {
		_, _ = store.Rollback(ctx)
		return err
	}

	if _, err := store.Commit(ctx); err != nil {
		return err
	}

	// storage cleanup is best-effort; orphaned objects expire with the bucket
	// lifecycle policy
	if err := s.storage.RemovePrefix(ctx, storage.Prefix(id)); err != nil {
		zap.S().Named("conversation").Warnf("failed to remove objects of conversation %s: %s", id, err)
	}

	return nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voxnotes/voxnotes/internal/store/model"
)

// claimTTL bounds how long a claim shields a job from other processors.
// A processor that dies mid-pipeline leaves its claim behind; once the
// claim is older than this, the job becomes claimable again.
const claimTTL = 10 * time.Minute

type Job interface {
	List(ctx context.Context, filter *JobQueryFilter, opts *JobQueryOptions) (model.JobList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Job, error)
	Create(ctx context.Context, job model.Job) (*model.Job, error)
	Claim(ctx context.Context, status model.JobStatus, limit int) (model.JobList, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.JobStatus, lastError *string) (*model.Job, error)
	SetTranscriptionID(ctx context.Context, id uuid.UUID, transcriptionID string) error
	GetByTranscriptionID(ctx context.Context, transcriptionID string) (*model.Job, error)
	DeleteByConversation(ctx context.Context, conversationID uuid.UUID) error
	InitialMigration(ctx context.Context) error
}

type JobStore struct {
	db *gorm.DB
}

// Make sure we conform to the Job interface
var _ Job = (*JobStore)(nil)

func NewJobStore(db *gorm.DB) Job {
	return &JobStore{db: db}
}

func (s *JobStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.Job{})
}

func (s *JobStore) List(ctx context.Context, filter *JobQueryFilter, opts *JobQueryOptions) (model.JobList, error) {
	var jobs model.JobList
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

	if err := tx.Model(&jobs).Find(&jobs).Error; err != nil {
		return nil, err
	}

	return jobs, nil
}

func (s *JobStore) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	job := &model.Job{ID: id}

	if err := s.getDB(ctx).WithContext(ctx).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return job, nil
}

func (s *JobStore) Create(ctx context.Context, job model.Job) (*model.Job, error) {
	if err := s.getDB(ctx).WithContext(ctx).Create(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}

	return &job, nil
}

// Claim atomically tags up to limit jobs in the given status with a fresh
// claim token and hands them back. A claimed job keeps its status; the token
// only keeps concurrent claim cycles from picking the same rows. Jobs whose
// claim has gone stale (processor crashed mid-pipeline) are claimable again.
func (s *JobStore) Claim(ctx context.Context, status model.JobStatus, limit int) (model.JobList, error) {
	if limit <= 0 {
		return model.JobList{}, nil
	}

	now := time.Now().UTC()
	token := uuid.NewString()
	stale := now.Add(-claimTTL)

	tx := s.getDB(ctx).WithContext(ctx)

	sub := tx.Session(&gorm.Session{NewDB: true}).
		Model(&model.Job{}).
		Select("id").
		Where("status = ?", string(status)).
		Where("claim_token IS NULL OR claimed_at < ?", stale).
		Order("created_at").
		Limit(limit)

	if tx.Dialector.Name() == "postgres" {
		sub = sub.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}

	var jobs model.JobList
	result := tx.Model(&jobs).
		Clauses(clause.Returning{}).
		Where("id IN (?)", sub).
		Updates(map[string]any{
			"claim_token": token,
			"claimed_at":  now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrStoreUnavailable, result.Error)
	}

	return jobs, nil
}

// UpdateStatus moves a job to the given status and clears its claim so the
// job is immediately claimable in its new stage. Writing the current status
// again only releases the claim; any other move must be a legal lifecycle
// step. Entering the transcribing stage counts as a delivery attempt.
func (s *JobStore) UpdateStatus(ctx context.Context, id uuid.UUID, status model.JobStatus, lastError *string) (*model.Job, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	current, err := model.ParseJobStatus(existing.Status)
	if err != nil {
		return nil, err
	}
	if status != current && !current.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	job := model.Job{ID: id}

	updates := map[string]any{
		"status":      string(status),
		"last_error":  lastError,
		"claim_token": nil,
		"claimed_at":  nil,
	}
	if status == model.JobStatusTranscribing {
		updates["attempts"] = gorm.Expr("attempts + 1")
	}

	result := s.getDB(ctx).WithContext(ctx).Model(&job).Clauses(clause.Returning{}).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}

	return &job, nil
}

func (s *JobStore) SetTranscriptionID(ctx context.Context, id uuid.UUID, transcriptionID string) error {
	result := s.getDB(ctx).WithContext(ctx).
		Model(&model.Job{ID: id}).
		Update("transcription_id", transcriptionID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *JobStore) GetByTranscriptionID(ctx context.Context, transcriptionID string) (*model.Job, error) {
	filter := NewJobQueryFilter().ByTranscriptionID(transcriptionID)
	opts := NewJobQueryOptions().WithLimit(1)

	jobs, err := s.List(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, ErrRecordNotFound
	}

	return &jobs[0], nil
}

func (s *JobStore) DeleteByConversation(ctx context.Context, conversationID uuid.UUID) error {
	result := s.getDB(ctx).WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Delete(&model.Job{})
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (s *JobStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}

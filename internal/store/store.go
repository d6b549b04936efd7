package store

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Conversation() Conversation
	Job() Job
	Message() Message
	InitialMigration() error
	Close() error
}

type DataStore struct {
	conversation Conversation
	job          Job
	message      Message
	db           *gorm.DB
	log          *zap.SugaredLogger
}

func NewStore(db *gorm.DB, log *zap.SugaredLogger) Store {
	return &DataStore{
		conversation: NewConversationStore(db),
		job:          NewJobStore(db),
		message:      NewMessageStore(db),
		db:           db,
		log:          log,
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Conversation() Conversation {
	return s.conversation
}

func (s *DataStore) Job() Job {
	return s.job
}

func (s *DataStore) Message() Message {
	return s.message
}

func (s *DataStore) InitialMigration() error {
	ctx, err := s.NewTransactionContext(context.Background())
	if err != nil {
		return err
	}

	if err := s.Conversation().InitialMigration(ctx); err != nil {
		if _, rollbackErr := Rollback(ctx); rollbackErr != nil {
			s.log.Errorf("rollback failed: %s", rollbackErr)
		}
		return err
	}

	if err := s.Job().InitialMigration(ctx); err != nil {
		if _, rollbackErr := Rollback(ctx); rollbackErr != nil {
			s.log.Errorf("rollback failed: %s", rollbackErr)
		}
		return err
	}

	if err := s.Message().InitialMigration(ctx); err != nil {
		if _, rollbackErr := Rollback(ctx); rollbackErr != nil {
			s.log.Errorf("rollback failed: %s", rollbackErr)
		}
		return err
	}

	_, err = Commit(ctx)
	return err
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

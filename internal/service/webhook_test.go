package service_test

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/voxnotes/voxnotes/internal/config"
	"github.com/voxnotes/voxnotes/internal/events"
	"github.com/voxnotes/voxnotes/internal/service"
	"github.com/voxnotes/voxnotes/internal/store"
	"github.com/voxnotes/voxnotes/internal/store/model"
)

const (
	insertCompletedJobStm = "INSERT INTO jobs (id, conversation_id, audio_url, status, attempts, transcription_id, created_at) VALUES ('%s', '%s', 'https://audio.test/a', 'completed', 1, '%s', '2026-01-01 10:00:00');"
)

var _ = Describe("webhook", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		srv    *service.WebhookService
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db, zap.S())
		gormdb = db
		Expect(s.InitialMigration()).To(BeNil())
	})

	BeforeEach(func() {
		srv = service.NewWebhookService(s, events.NewEventProducer(newTestWriter()), "topsecret")
	})

	AfterEach(func() {
		gormdb.Exec("DELETE from jobs;")
		gormdb.Exec("DELETE from conversations;")
	})

	AfterAll(func() {
		s.Close()
	})

	It("rejects a wrong secret", func() {
		err := srv.HandleTranscription(context.TODO(), "wrong", service.TranscriptionCallback{TranscriptID: "tr-1", Status: "completed"})
		Expect(err).To(BeAssignableToTypeOf(&service.ErrWebhookUnauthorized{}))
	})

	It("rejects a payload without transcript id", func() {
		err := srv.HandleTranscription(context.TODO(), "topsecret", service.TranscriptionCallback{Status: "completed"})
		Expect(err).To(BeAssignableToTypeOf(&service.ErrWebhookMalformed{}))
	})

	It("ignores non completed notifications", func() {
		conversationID := uuid.NewString()
		jobID := uuid.NewString()
		Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, conversationID, "user-1", "transcribing")).Error).To(BeNil())
		Expect(gormdb.Exec(fmt.Sprintf(insertTranscribingJobStm, jobID, conversationID, "tr-1")).Error).To(BeNil())

		err := srv.HandleTranscription(context.TODO(), "topsecret", service.TranscriptionCallback{TranscriptID: "tr-1", Status: "processing"})
		Expect(err).To(BeNil())

		job, err := s.Job().Get(context.TODO(), uuid.MustParse(jobID))
		Expect(err).To(BeNil())
		Expect(job.Status).To(Equal(string(model.JobStatusTranscribing)))
	})

	It("rejects an unknown transcription", func() {
		err := srv.HandleTranscription(context.TODO(), "topsecret", service.TranscriptionCallback{TranscriptID: "tr-unknown", Status: "completed"})
		Expect(err).To(BeAssignableToTypeOf(&service.ErrUnknownTranscription{}))
	})

	It("advances the job to the notes stage and touches nothing else", func() {
		conversationID := uuid.NewString()
		jobID := uuid.NewString()
		Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, conversationID, "user-1", "transcribing")).Error).To(BeNil())
		Expect(gormdb.Exec(fmt.Sprintf(insertTranscribingJobStm, jobID, conversationID, "tr-1")).Error).To(BeNil())

		err := srv.HandleTranscription(context.TODO(), "topsecret", service.TranscriptionCallback{TranscriptID: "tr-1", Status: "completed"})
		Expect(err).To(BeNil())

		job, err := s.Job().Get(context.TODO(), uuid.MustParse(jobID))
		Expect(err).To(BeNil())
		Expect(job.Status).To(Equal(string(model.JobStatusGeneratingNotes)))

		// the conversation is the notes stage's to move
		conversation, err := s.Conversation().Get(context.TODO(), uuid.MustParse(conversationID))
		Expect(err).To(BeNil())
		Expect(conversation.Status).To(Equal(string(model.ConversationStatusTranscribing)))
	})

	It("never moves a finished job backwards", func() {
		conversationID := uuid.NewString()
		jobID := uuid.NewString()
		Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, conversationID, "user-1", "done")).Error).To(BeNil())
		Expect(gormdb.Exec(fmt.Sprintf(insertCompletedJobStm, jobID, conversationID, "tr-1")).Error).To(BeNil())

		err := srv.HandleTranscription(context.TODO(), "topsecret", service.TranscriptionCallback{TranscriptID: "tr-1", Status: "completed"})
		Expect(err).To(BeNil())

		job, err := s.Job().Get(context.TODO(), uuid.MustParse(jobID))
		Expect(err).To(BeNil())
		Expect(job.Status).To(Equal(string(model.JobStatusCompleted)))

		conversation, err := s.Conversation().Get(context.TODO(), uuid.MustParse(conversationID))
		Expect(err).To(BeNil())
		Expect(conversation.Status).To(Equal(string(model.ConversationStatusDone)))
	})

	It("is idempotent on duplicate deliveries", func() {
		conversationID := uuid.NewString()
		jobID := uuid.NewString()
		Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, conversationID, "user-1", "transcribing")).Error).To(BeNil())
		Expect(gormdb.Exec(fmt.Sprintf(insertTranscribingJobStm, jobID, conversationID, "tr-1")).Error).To(BeNil())

		Expect(srv.HandleTranscription(context.TODO(), "topsecret", service.TranscriptionCallback{TranscriptID: "tr-1", Status: "completed"})).To(BeNil())
		Expect(srv.HandleTranscription(context.TODO(), "topsecret", service.TranscriptionCallback{TranscriptID: "tr-1", Status: "completed"})).To(BeNil())

		job, err := s.Job().Get(context.TODO(), uuid.MustParse(jobID))
		Expect(err).To(BeNil())
		Expect(job.Status).To(Equal(string(model.JobStatusGeneratingNotes)))
	})
})

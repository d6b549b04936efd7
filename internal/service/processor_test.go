package service_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/voxnotes/voxnotes/internal/config"
	"github.com/voxnotes/voxnotes/internal/events"
	"github.com/voxnotes/voxnotes/internal/service"
	"github.com/voxnotes/voxnotes/internal/storage"
	"github.com/voxnotes/voxnotes/internal/store"
	"github.com/voxnotes/voxnotes/internal/store/model"
)

const (
	insertConversationStm    = "INSERT INTO conversations (id, user_id, status, created_at) VALUES ('%s', '%s', '%s', '2026-01-01 10:00:00');"
	insertPendingJobStm      = "INSERT INTO jobs (id, conversation_id, audio_url, status, attempts, created_at) VALUES ('%s', '%s', 'https://audio.test/%s', 'pending', 0, '%s');"
	insertNotesJobStm        = "INSERT INTO jobs (id, conversation_id, audio_url, status, attempts, transcription_id, created_at) VALUES ('%s', '%s', 'https://audio.test/a', 'generating_notes', 1, '%s', '2026-01-01 10:00:00');"
	insertTranscribingJobStm = "INSERT INTO jobs (id, conversation_id, audio_url, status, attempts, transcription_id, created_at) VALUES ('%s', '%s', 'https://audio.test/a', 'transcribing', 1, '%s', '2026-01-01 10:00:00');"
)

var _ = Describe("processor", Ordered, func() {
	var (
		s       store.Store
		gormdb  *gorm.DB
		gateway *fakeGateway
		gen     *fakeGenerator
		objects *memStorage
	)

	newProcessor := func() *service.Processor {
		return service.NewProcessor(s, gateway, gen, objects, events.NewEventProducer(newTestWriter()), "https://api.test", time.Minute)
	}

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db, zap.S())
		gormdb = db
		Expect(s.InitialMigration()).To(BeNil())
	})

	BeforeEach(func() {
		gateway = newFakeGateway()
		gen = newFakeGenerator()
		objects = newMemStorage()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE from jobs;")
		gormdb.Exec("DELETE from conversations;")
	})

	AfterAll(func() {
		s.Close()
	})

	Context("transcription stage", func() {
		It("submits a pending job and parks it in transcribing", func() {
			conversationID := uuid.NewString()
			jobID := uuid.NewString()
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, conversationID, "user-1", "processing")).Error).To(BeNil())
			Expect(gormdb.Exec(fmt.Sprintf(insertPendingJobStm, jobID, conversationID, "rec", "2026-01-01 10:00:00")).Error).To(BeNil())

			p := newProcessor()
			Expect(p.ProcessJobs(context.TODO())).To(BeNil())
			p.Wait()

			job, err := s.Job().Get(context.TODO(), uuid.MustParse(jobID))
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(string(model.JobStatusTranscribing)))
			Expect(job.TranscriptionID).NotTo(BeNil())
			Expect(job.Attempts).To(Equal(1))

			conversation, err := s.Conversation().Get(context.TODO(), uuid.MustParse(conversationID))
			Expect(err).To(BeNil())
			Expect(conversation.Status).To(Equal(string(model.ConversationStatusTranscribing)))
			Expect(gateway.submittedCount()).To(Equal(1))
		})

		It("fails the job when the provider rejects the submission", func() {
			conversationID := uuid.NewString()
			jobID := uuid.NewString()
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, conversationID, "user-1", "processing")).Error).To(BeNil())
			Expect(gormdb.Exec(fmt.Sprintf(insertPendingJobStm, jobID, conversationID, "rec", "2026-01-01 10:00:00")).Error).To(BeNil())

			gateway.submitErr = errors.New("provider down")

			p := newProcessor()
			Expect(p.ProcessJobs(context.TODO())).To(BeNil())
			p.Wait()

			job, err := s.Job().Get(context.TODO(), uuid.MustParse(jobID))
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(string(model.JobStatusFailed)))
			Expect(job.LastError).NotTo(BeNil())

			conversation, err := s.Conversation().Get(context.TODO(), uuid.MustParse(conversationID))
			Expect(err).To(BeNil())
			Expect(conversation.Status).To(Equal(string(model.ConversationStatusFailed)))
		})
	})

	Context("notes stage", func() {
		It("completes the job and the conversation", func() {
			conversationID := uuid.NewString()
			jobID := uuid.NewString()
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, conversationID, "user-1", "generating_notes")).Error).To(BeNil())
			Expect(gormdb.Exec(fmt.Sprintf(insertNotesJobStm, jobID, conversationID, "tr-9")).Error).To(BeNil())

			gateway.transcripts["tr-9"] = "we talked about the roadmap"

			p := newProcessor()
			Expect(p.ProcessJobs(context.TODO())).To(BeNil())
			p.Wait()

			job, err := s.Job().Get(context.TODO(), uuid.MustParse(jobID))
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(string(model.JobStatusCompleted)))

			conversation, err := s.Conversation().Get(context.TODO(), uuid.MustParse(conversationID))
			Expect(err).To(BeNil())
			Expect(conversation.Status).To(Equal(string(model.ConversationStatusDone)))
			Expect(*conversation.Title).To(Equal("Meeting Recap"))

			cid := uuid.MustParse(conversationID)
			Expect(objects.get(storage.TranscriptKey(cid))).To(Equal("we talked about the roadmap"))
			Expect(objects.get(storage.NotesKey(cid))).To(ContainSubstring("decisions were made"))
		})

		It("releases the claim when the transcript is not ready yet", func() {
			conversationID := uuid.NewString()
			jobID := uuid.NewString()
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, conversationID, "user-1", "generating_notes")).Error).To(BeNil())
			Expect(gormdb.Exec(fmt.Sprintf(insertNotesJobStm, jobID, conversationID, "tr-9")).Error).To(BeNil())

			// no transcript registered in the fake gateway: fetch reports not ready

			p := newProcessor()
			Expect(p.ProcessJobs(context.TODO())).To(BeNil())
			p.Wait()

			job, err := s.Job().Get(context.TODO(), uuid.MustParse(jobID))
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(string(model.JobStatusGeneratingNotes)))
			Expect(job.ClaimToken).To(BeNil())
		})

		It("fails the job when notes generation fails", func() {
			conversationID := uuid.NewString()
			jobID := uuid.NewString()
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, conversationID, "user-1", "generating_notes")).Error).To(BeNil())
			Expect(gormdb.Exec(fmt.Sprintf(insertNotesJobStm, jobID, conversationID, "tr-9")).Error).To(BeNil())

			gateway.transcripts["tr-9"] = "some transcript"
			gen.notesErr = errors.New("model unavailable")

			p := newProcessor()
			Expect(p.ProcessJobs(context.TODO())).To(BeNil())
			p.Wait()

			job, err := s.Job().Get(context.TODO(), uuid.MustParse(jobID))
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(string(model.JobStatusFailed)))
		})
	})

	Context("scheduling", func() {
		It("never runs more jobs than the concurrency cap", func() {
			conversationID := uuid.NewString()
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, conversationID, "user-1", "processing")).Error).To(BeNil())
			for i := 0; i < 7; i++ {
				Expect(gormdb.Exec(fmt.Sprintf(insertPendingJobStm, uuid.NewString(), conversationID, fmt.Sprintf("rec-%d", i), fmt.Sprintf("2026-01-01 10:0%d:00", i))).Error).To(BeNil())
			}

			p := newProcessor()
			Expect(p.ProcessJobs(context.TODO())).To(BeNil())
			p.Wait()

			pending, err := s.Job().List(context.TODO(), store.NewJobQueryFilter().ByStatus(model.JobStatusPending), store.NewJobQueryOptions())
			Expect(err).To(BeNil())
			Expect(pending).To(HaveLen(2))

			transcribing, err := s.Job().List(context.TODO(), store.NewJobQueryFilter().ByStatus(model.JobStatusTranscribing), store.NewJobQueryOptions())
			Expect(err).To(BeNil())
			Expect(transcribing).To(HaveLen(5))
		})

		It("holds the cap when cycles overlap", func() {
			conversationID := uuid.NewString()
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, conversationID, "user-1", "processing")).Error).To(BeNil())
			for i := 0; i < 10; i++ {
				Expect(gormdb.Exec(fmt.Sprintf(insertPendingJobStm, uuid.NewString(), conversationID, fmt.Sprintf("rec-%d", i), fmt.Sprintf("2026-01-01 10:0%d:00", i))).Error).To(BeNil())
			}

			// park every submission so the launched pipelines stay in flight
			// while the second cycle runs
			gateway.submitGate = make(chan struct{})

			p := newProcessor()
			done := make(chan error, 2)
			go func() { done <- p.ProcessJobs(context.TODO()) }()
			go func() { done <- p.ProcessJobs(context.TODO()) }()
			Expect(<-done).To(BeNil())
			Expect(<-done).To(BeNil())

			close(gateway.submitGate)
			p.Wait()

			Expect(gateway.peakConcurrent()).To(BeNumerically("<=", service.MaxConcurrentJobs))

			transcribing, err := s.Job().List(context.TODO(), store.NewJobQueryFilter().ByStatus(model.JobStatusTranscribing), store.NewJobQueryOptions())
			Expect(err).To(BeNil())
			Expect(len(transcribing)).To(BeNumerically("<=", service.MaxConcurrentJobs))
		})

		It("prefers jobs waiting for notes over fresh ones", func() {
			conversationID := uuid.NewString()
			notesJobID := uuid.NewString()
			Expect(gormdb.Exec(fmt.Sprintf(insertConversationStm, conversationID, "user-1", "generating_notes")).Error).To(BeNil())
			Expect(gormdb.Exec(fmt.Sprintf(insertNotesJobStm, notesJobID, conversationID, "tr-9")).Error).To(BeNil())
			for i := 0; i < 5; i++ {
				Expect(gormdb.Exec(fmt.Sprintf(insertPendingJobStm, uuid.NewString(), conversationID, fmt.Sprintf("rec-%d", i), fmt.Sprintf("2026-01-01 10:0%d:00", i))).Error).To(BeNil())
			}

			gateway.transcripts["tr-9"] = "transcript"

			p := newProcessor()
			Expect(p.ProcessJobs(context.TODO())).To(BeNil())
			p.Wait()

			job, err := s.Job().Get(context.TODO(), uuid.MustParse(notesJobID))
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(string(model.JobStatusCompleted)))

			// one of the five slots went to the notes job
			pending, err := s.Job().List(context.TODO(), store.NewJobQueryFilter().ByStatus(model.JobStatusPending), store.NewJobQueryOptions())
			Expect(err).To(BeNil())
			Expect(pending).To(HaveLen(1))
		})
	})
})

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	"github.com/voxnotes/voxnotes/internal/events"
	"github.com/voxnotes/voxnotes/internal/generator"
	"github.com/voxnotes/voxnotes/internal/storage"
	"github.com/voxnotes/voxnotes/internal/store"
	"github.com/voxnotes/voxnotes/internal/store/model"
	"github.com/voxnotes/voxnotes/internal/transcriber"
	"github.com/voxnotes/voxnotes/pkg/metrics"
)

const (
	// MaxConcurrentJobs caps the number of pipeline jobs in flight across
	// both stages.
	MaxConcurrentJobs = 5

	webhookPath = "/api/v1/webhook/transcription"
)

// Processor drives queued jobs through the two pipeline stages. A cycle
// claims jobs up to the free slots, preferring jobs waiting for notes over
// fresh ones, and runs each claimed job on its own goroutine.
type Processor struct {
	store          store.Store
	gateway        transcriber.Gateway
	generator      generator.Generator
	storage        storage.Storage
	producer       *events.EventProducer
	webhookBaseURL string
	interval       time.Duration

	active atomic.Int64
	wg     sync.WaitGroup
	log    *zap.SugaredLogger
}

func NewProcessor(
	store store.Store,
	gateway transcriber.Gateway,
	generator generator.Generator,
	storage storage.Storage,
	producer *events.EventProducer,
	webhookBaseURL string,
	interval time.Duration,
) *Processor {
	return &Processor{
		store:          store,
		gateway:        gateway,
		generator:      generator,
		storage:        storage,
		producer:       producer,
		webhookBaseURL: webhookBaseURL,
		interval:       interval,
		log:            zap.S().Named("processor"),
	}
}

// Run triggers a processing cycle on every tick until the context ends.
func (p *Processor) Run(ctx context.Context) error {
	ticker := jitterbug.New(p.interval, &jitterbug.Norm{Stdev: 30 * time.Millisecond, Mean: 0})
	defer ticker.Stop()

	p.log.Infof("processor started, interval %s", p.interval)

	for {
		select {
		case <-ctx.Done():
			p.wg.Wait()
			p.log.Info("processor stopped")
			return nil
		case <-ticker.C:
			if err := p.ProcessJobs(ctx); err != nil {
				p.log.Errorf("processing cycle failed: %s", err)
			}
		}
	}
}

// ProcessJobs runs one claim cycle. It returns once the claimed jobs are
// launched; the per-job pipelines finish in the background.
func (p *Processor) ProcessJobs(ctx context.Context) error {
	slots := p.reserveSlots()
	if slots == 0 {
		p.log.Debug("all job slots busy, skipping cycle")
		return nil
	}

	launched := 0
	defer func() {
		if unused := slots - launched; unused > 0 {
			p.releaseSlots(unused)
		}
	}()

	// jobs already holding a transcript go first, they are closest to done
	notesJobs, err := p.store.Job().Claim(ctx, model.JobStatusGeneratingNotes, slots)
	if err != nil {
		return err
	}
	for i := range notesJobs {
		p.launch(ctx, notesJobs[i], p.runNotesStage)
	}
	launched += len(notesJobs)

	if remaining := slots - launched; remaining > 0 {
		pendingJobs, err := p.store.Job().Claim(ctx, model.JobStatusPending, remaining)
		if err != nil {
			return err
		}
		for i := range pendingJobs {
			p.launch(ctx, pendingJobs[i], p.runTranscriptionStage)
		}
		launched += len(pendingJobs)
	}

	if launched > 0 {
		p.log.Infof("claimed %d jobs (%d notes, %d pending)", launched, len(notesJobs), launched-len(notesJobs))
	}

	return nil
}

// reserveSlots atomically takes every free slot below the cap. The slots are
// reserved before anything is claimed, so overlapping cycles (the ticker
// racing a manual trigger) split the cap between them instead of each
// launching a full batch.
func (p *Processor) reserveSlots() int {
	for {
		active := p.active.Load()
		free := MaxConcurrentJobs - active
		if free <= 0 {
			return 0
		}
		if p.active.CompareAndSwap(active, active+free) {
			metrics.UpdateJobsActiveCountMetric(int(p.active.Load()))
			return int(free)
		}
	}
}

func (p *Processor) releaseSlots(n int) {
	p.active.Add(-int64(n))
	metrics.UpdateJobsActiveCountMetric(int(p.active.Load()))
}

// Wait blocks until all in-flight jobs have finished. Used on shutdown and
// by the tests.
func (p *Processor) Wait() {
	p.wg.Wait()
}

// launch runs the stage on its own goroutine. The caller has already
// reserved the slot; the goroutine gives it back when the stage returns.
func (p *Processor) launch(ctx context.Context, job model.Job, stage func(ctx context.Context, job model.Job)) {
	// the stage must outlive the caller, e.g. the trigger request
	stageCtx := context.WithoutCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer func() {
			p.releaseSlots(1)
			p.wg.Done()
		}()
		stage(stageCtx, job)
	}()
}

// runTranscriptionStage submits the recording to the transcription provider.
// The job then parks in the transcribing stage until the provider calls the
// webhook back.
func (p *Processor) runTranscriptionStage(ctx context.Context, job model.Job) {
	if err := p.store.Conversation().UpdateStatus(ctx, job.ConversationID, model.ConversationStatusTranscribing); err != nil {
		p.log.Errorf("job %s: failed to update conversation %s: %s", job.ID, job.ConversationID, err)
	}

	updated, err := p.store.Job().UpdateStatus(ctx, job.ID, model.JobStatusTranscribing, nil)
	if err != nil {
		p.log.Errorf("job %s: failed to enter transcribing: %s", job.ID, err)
		return
	}
	emitJobEvent(ctx, p.producer, updated)

	transcriptionID, err := p.gateway.Submit(ctx, job.AudioURL, p.webhookBaseURL+webhookPath)
	if err != nil {
		p.failJob(ctx, job, fmt.Errorf("failed to submit recording: %w", err))
		return
	}

	if err := p.store.Job().SetTranscriptionID(ctx, job.ID, transcriptionID); err != nil {
		p.failJob(ctx, job, fmt.Errorf("failed to record transcription id: %w", err))
		return
	}
	if _, err := p.store.Conversation().Update(ctx, job.ConversationID, store.ConversationUpdate{TranscriptionID: &transcriptionID}); err != nil {
		p.log.Errorf("job %s: failed to record transcription id on conversation: %s", job.ID, err)
	}

	metrics.IncreaseJobsProcessedTotalMetric("transcription", "submitted")
	p.log.Infof("job %s submitted as transcription %s", job.ID, transcriptionID)
}

// runNotesStage turns the finished transcript into notes and completes the
// job.
func (p *Processor) runNotesStage(ctx context.Context, job model.Job) {
	if job.TranscriptionID == nil {
		p.failJob(ctx, job, fmt.Errorf("job has no transcription id"))
		return
	}

	if err := p.store.Conversation().UpdateStatus(ctx, job.ConversationID, model.ConversationStatusGeneratingNotes); err != nil {
		p.log.Errorf("job %s: failed to update conversation %s: %s", job.ID, job.ConversationID, err)
	}

	transcript, err := p.gateway.Fetch(ctx, *job.TranscriptionID)
	if err != nil {
		if errors.Is(err, transcriber.ErrNotReady) {
			// release the claim and retry on a later cycle
			if _, err := p.store.Job().UpdateStatus(ctx, job.ID, model.JobStatusGeneratingNotes, nil); err != nil {
				p.log.Errorf("job %s: failed to release claim: %s", job.ID, err)
			}
			return
		}
		p.failJob(ctx, job, fmt.Errorf("failed to fetch transcript: %w", err))
		return
	}

	if err := p.storage.PutText(ctx, storage.TranscriptKey(job.ConversationID), transcript); err != nil {
		p.failJob(ctx, job, fmt.Errorf("failed to store transcript: %w", err))
		return
	}

	notes, err := p.generator.GenerateNotes(ctx, transcript)
	if err != nil {
		p.failJob(ctx, job, fmt.Errorf("failed to generate notes: %w", err))
		return
	}

	if err := p.storage.PutText(ctx, storage.NotesKey(job.ConversationID), notes); err != nil {
		p.failJob(ctx, job, fmt.Errorf("failed to store notes: %w", err))
		return
	}

	if err := p.completeConversation(ctx, job.ConversationID, notes); err != nil {
		p.failJob(ctx, job, err)
		return
	}

	completed, err := p.store.Job().UpdateStatus(ctx, job.ID, model.JobStatusCompleted, nil)
	if err != nil {
		p.log.Errorf("job %s: failed to complete: %s", job.ID, err)
		return
	}
	emitJobEvent(ctx, p.producer, completed)

	metrics.IncreaseJobsProcessedTotalMetric("notes", "completed")
	p.log.Infof("job %s completed", job.ID)
}

func (p *Processor) completeConversation(ctx context.Context, conversationID uuid.UUID, notes string) error {
	conversation, err := p.store.Conversation().Get(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	status := model.ConversationStatusDone
	transcriptKey := storage.TranscriptKey(conversationID)
	notesKey := storage.NotesKey(conversationID)
	update := store.ConversationUpdate{
		Status:        &status,
		TranscriptURL: &transcriptKey,
		NotesURL:      &notesKey,
	}

	if conversation.Title == nil || *conversation.Title == "" {
		title := ExtractTitle(notes)
		if title == "" {
			title = FallbackTitle(conversationID)
		}
		update.Title = &title
	}

	updated, err := p.store.Conversation().Update(ctx, conversationID, update)
	if err != nil {
		return fmt.Errorf("failed to complete conversation: %w", err)
	}

	emitConversationEvent(ctx, p.producer, updated)
	return nil
}

func (p *Processor) failJob(ctx context.Context, job model.Job, cause error) {
	p.log.Errorf("job %s failed: %s", job.ID, cause)

	lastError := cause.Error()
	failed, err := p.store.Job().UpdateStatus(ctx, job.ID, model.JobStatusFailed, &lastError)
	if err != nil {
		p.log.Errorf("job %s: failed to mark failed: %s", job.ID, err)
	} else {
		emitJobEvent(ctx, p.producer, failed)
	}

	if err := p.store.Conversation().UpdateStatus(ctx, job.ConversationID, model.ConversationStatusFailed); err != nil {
		p.log.Errorf("job %s: failed to mark conversation failed: %s", job.ID, err)
	}

	metrics.IncreaseJobsProcessedTotalMetric("pipeline", "failed")
}

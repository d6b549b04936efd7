package service

import (
	"context"
	"crypto/subtle"
	"errors"

	"go.uber.org/zap"

	"github.com/voxnotes/voxnotes/internal/events"
	"github.com/voxnotes/voxnotes/internal/store"
	"github.com/voxnotes/voxnotes/internal/store/model"
	"github.com/voxnotes/voxnotes/pkg/metrics"
)

// TranscriptionCallback is the payload the transcription provider posts when
// a transcript changes state.
type TranscriptionCallback struct {
	TranscriptID string `json:"transcript_id"`
	Status       string `json:"status"`
}

// WebhookService advances jobs parked in the transcribing stage when the
// provider reports the transcript is ready. It is idempotent: duplicate or
// late deliveries never move a job backwards.
type WebhookService struct {
	store    store.Store
	producer *events.EventProducer
	secret   string
	log      *zap.SugaredLogger
}

func NewWebhookService(store store.Store, producer *events.EventProducer, secret string) *WebhookService {
	return &WebhookService{
		store:    store,
		producer: producer,
		secret:   secret,
		log:      zap.S().Named("webhook"),
	}
}

func (s *WebhookService) HandleTranscription(ctx context.Context, secret string, callback TranscriptionCallback) error {
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) != 1 {
		metrics.IncreaseWebhooksTotalMetric("unauthorized")
		return NewErrWebhookUnauthorized()
	}

	if callback.TranscriptID == "" {
		metrics.IncreaseWebhooksTotalMetric("malformed")
		return NewErrWebhookMalformed("missing transcript_id")
	}

	// only the completion notification advances the pipeline; failure and
	// progress notifications are left for the processor to discover
	if callback.Status != "completed" {
		s.log.Infof("ignoring webhook for transcription %s with status %s", callback.TranscriptID, callback.Status)
		metrics.IncreaseWebhooksTotalMetric("ignored")
		return nil
	}

	job, err := s.store.Job().GetByTranscriptionID(ctx, callback.TranscriptID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			metrics.IncreaseWebhooksTotalMetric("unknown")
			return NewErrUnknownTranscription(callback.TranscriptID)
		}
		return err
	}

	status, err := model.ParseJobStatus(job.Status)
	if err != nil {
		return err
	}
	if status.IsTerminal() || status == model.JobStatusGeneratingNotes {
		// duplicate or late delivery
		s.log.Infof("ignoring webhook for job %s in status %s", job.ID, job.Status)
		metrics.IncreaseWebhooksTotalMetric("duplicate")
		return nil
	}

	// single write: the notes stage owns the conversation status once the
	// processor picks the job up
	updated, err := s.store.Job().UpdateStatus(ctx, job.ID, model.JobStatusGeneratingNotes, nil)
	if err != nil {
		return err
	}
	emitJobEvent(ctx, s.producer, updated)

	metrics.IncreaseWebhooksTotalMetric("advanced")
	s.log.Infof("job %s advanced to notes stage", job.ID)

	return nil
}

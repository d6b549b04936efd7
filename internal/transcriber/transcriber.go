package transcriber

import (
	"context"
	"errors"
)

var (
	// ErrNotReady signals the provider has accepted the job but the
	// transcript is not available yet.
	ErrNotReady = errors.New("transcription not completed yet")

	// ErrProviderFailed signals the provider gave up on the recording.
	ErrProviderFailed = errors.New("transcription failed")

	ErrEmptyTranscript = errors.New("transcript is empty")
)

// Gateway submits recordings to a speech-to-text provider and fetches the
// finished transcripts. Results arrive asynchronously via webhook; Submit
// only returns the provider-side id used to correlate the callback.
type Gateway interface {
	Submit(ctx context.Context, audioURL string, webhookURL string) (string, error)
	Fetch(ctx context.Context, transcriptionID string) (string, error)
}

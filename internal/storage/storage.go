// Package storage holds the object store backing audio uploads, transcripts
// and notes. Objects are laid out under one prefix per conversation:
//
//	<conversation-id>/audio-<timestamp>-<nonce>.<ext>
//	<conversation-id>/transcript.txt
//	<conversation-id>/notes.txt
package storage

import (
	"context"
	"net/url"
	"time"
)

const (
	TranscriptObjectName = "transcript.txt"
	NotesObjectName      = "notes.txt"

	// UploadURLExpiry bounds how long a signed upload link stays usable.
	UploadURLExpiry = 15 * time.Minute

	// DownloadURLExpiry bounds signed read links handed to clients and to
	// the transcription provider.
	DownloadURLExpiry = 24 * time.Hour
)

type Storage interface {
	PutText(ctx context.Context, key string, text string) error
	GetText(ctx context.Context, key string) (string, error)
	PresignPut(ctx context.Context, key string, expiry time.Duration) (*url.URL, error)
	PresignGet(ctx context.Context, key string, expiry time.Duration) (*url.URL, error)
	RemovePrefix(ctx context.Context, prefix string) error
}

// nopStorage discards writes and serves empty reads. Used when the service
// runs without object store credentials, e.g. local development.
type nopStorage struct{}

func NewNopStorage() Storage {
	return &nopStorage{}
}

func (n *nopStorage) PutText(ctx context.Context, key string, text string) error {
	return nil
}

func (n *nopStorage) GetText(ctx context.Context, key string) (string, error) {
	return "", nil
}

func (n *nopStorage) PresignPut(ctx context.Context, key string, expiry time.Duration) (*url.URL, error) {
	return url.Parse("https://storage.invalid/" + key)
}

func (n *nopStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (*url.URL, error) {
	return url.Parse("https://storage.invalid/" + key)
}

func (n *nopStorage) RemovePrefix(ctx context.Context, prefix string) error {
	return nil
}

package storage

import (
	"fmt"
	"math/rand"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AudioKey builds a fresh object key for an uploaded recording. The
// timestamp and nonce keep re-uploads from clobbering each other.
func AudioKey(conversationID uuid.UUID, filename string) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		ext = "m4a"
	}
	return fmt.Sprintf("%s/audio-%d-%04d.%s", conversationID, time.Now().UnixMilli(), rand.Intn(10000), ext)
}

func TranscriptKey(conversationID uuid.UUID) string {
	return fmt.Sprintf("%s/%s", conversationID, TranscriptObjectName)
}

func NotesKey(conversationID uuid.UUID) string {
	return fmt.Sprintf("%s/%s", conversationID, NotesObjectName)
}

// Prefix is the per-conversation object namespace, removed wholesale when
// the conversation goes away.
func Prefix(conversationID uuid.UUID) string {
	return conversationID.String() + "/"
}

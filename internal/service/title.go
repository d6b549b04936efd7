package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ExtractTitle derives a conversation title from generated notes: the first
// non-blank line, stripped of markdown heading markers.
func ExtractTitle(notes string) string {
	for _, line := range strings.Split(notes, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(strings.TrimLeft(line, "#*"))
		if line == "" {
			continue
		}
		return line
	}
	return ""
}

// FallbackTitle names a conversation when the notes give nothing usable.
func FallbackTitle(id uuid.UUID) string {
	return fmt.Sprintf("Conversation %s", id.String()[:8])
}

package mappers

import (
	api "github.com/voxnotes/voxnotes/api/v1alpha1"
	"github.com/voxnotes/voxnotes/internal/service"
	"github.com/voxnotes/voxnotes/internal/store/model"
)

func ConversationToApi(c model.Conversation) api.Conversation {
	return api.Conversation{
		Id:              c.ID,
		Title:           c.Title,
		Status:          c.Status,
		AudioUrl:        c.AudioURL,
		TranscriptionId: c.TranscriptionID,
		HasTranscript:   c.TranscriptURL != nil,
		HasNotes:        c.NotesURL != nil,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func ConversationListToApi(conversations model.ConversationList) api.ConversationList {
	out := make(api.ConversationList, 0, len(conversations))
	for _, c := range conversations {
		out = append(out, ConversationToApi(c))
	}
	return out
}

func ConversationHistoryToApi(conversations model.ConversationList) api.ConversationSummaryList {
	out := make(api.ConversationSummaryList, 0, len(conversations))
	for _, c := range conversations {
		title := service.FallbackTitle(c.ID)
		if c.Title != nil && *c.Title != "" {
			title = *c.Title
		}
		out = append(out, api.ConversationSummary{Id: c.ID, Title: title})
	}
	return out
}

func MessageToApi(m model.Message) api.Message {
	return api.Message{
		Id:        m.ID,
		Role:      m.Role,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

func MessageListToApi(messages model.MessageList) api.MessageList {
	out := make(api.MessageList, 0, len(messages))
	for _, m := range messages {
		out = append(out, MessageToApi(m))
	}
	return out
}

package v1alpha1

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	api "github.com/voxnotes/voxnotes/api/v1alpha1"
	"github.com/voxnotes/voxnotes/internal/auth"
	"github.com/voxnotes/voxnotes/internal/handlers/v1alpha1/mappers"
)

// (POST /api/v1/conversations)
func (s *ServiceHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	conversation, err := s.conversationSrv.CreateConversation(r.Context(), user.ID)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, mappers.ConversationToApi(*conversation))
}

// (GET /api/v1/conversations)
func (s *ServiceHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	conversations, err := s.conversationSrv.ListConversations(r.Context(), user.ID)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.ConversationListToApi(conversations))
}

// (GET /api/v1/conversations/history)
func (s *ServiceHandler) ListConversationHistory(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	conversations, err := s.conversationSrv.ListConversations(r.Context(), user.ID)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.ConversationHistoryToApi(conversations))
}

// (GET /api/v1/conversations/{id})
func (s *ServiceHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, api.Error{Message: "invalid conversation id"})
		return
	}

	conversation, err := s.conversationSrv.GetConversation(r.Context(), user.ID, id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.ConversationToApi(*conversation))
}

// (POST /api/v1/conversations/{id}/process-audio)
func (s *ServiceHandler) ProcessAudio(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, api.Error{Message: "invalid conversation id"})
		return
	}

	var body api.ProcessAudioRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil || body.FileKey == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, api.Error{Message: "fileKey is required"})
		return
	}

	conversation, err := s.conversationSrv.ProcessAudio(r.Context(), user.ID, id, body.FileKey)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, mappers.ConversationToApi(*conversation))
}

// (GET /api/v1/conversations/{id}/transcript/download)
func (s *ServiceHandler) GetTranscriptDownloadURL(w http.ResponseWriter, r *http.Request) {
	s.downloadURL(w, r, s.conversationSrv.GetTranscriptURL)
}

// (GET /api/v1/conversations/{id}/notes/download)
func (s *ServiceHandler) GetNotesDownloadURL(w http.ResponseWriter, r *http.Request) {
	s.downloadURL(w, r, s.conversationSrv.GetNotesURL)
}

// (DELETE /api/v1/conversations/{id})
func (s *ServiceHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, api.Error{Message: "invalid conversation id"})
		return
	}

	if err := s.conversationSrv.DeleteConversation(r.Context(), user.ID, id); err != nil {
		renderError(w, r, err)
		return
	}

	render.NoContent(w, r)
}

func (s *ServiceHandler) downloadURL(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID string, id uuid.UUID) (string, time.Time, error)) {
	user := auth.MustHaveUser(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, api.Error{Message: "invalid conversation id"})
		return
	}

	url, expiresAt, err := fn(r.Context(), user.ID, id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, api.DownloadUrlResponse{Url: url, ExpiresAt: expiresAt})
}

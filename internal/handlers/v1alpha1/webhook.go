package v1alpha1

import (
	"net/http"

	"github.com/go-chi/render"

	api "github.com/voxnotes/voxnotes/api/v1alpha1"
	"github.com/voxnotes/voxnotes/internal/service"
	"github.com/voxnotes/voxnotes/internal/transcriber"
)

// (POST /api/v1/webhook/transcription)
//
// Callback endpoint for the transcription provider. Authenticated with the
// shared webhook secret, not with user tokens.
func (s *ServiceHandler) TranscriptionWebhook(w http.ResponseWriter, r *http.Request) {
	var body api.TranscriptionWebhook
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, api.Error{Message: "invalid payload"})
		return
	}

	err := s.webhookSrv.HandleTranscription(r.Context(), r.Header.Get(transcriber.WebhookSecretHeader), service.TranscriptionCallback{
		TranscriptID: body.TranscriptId,
		Status:       body.Status,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]bool{"received": true})
}

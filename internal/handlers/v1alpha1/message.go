package v1alpha1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	api "github.com/voxnotes/voxnotes/api/v1alpha1"
	"github.com/voxnotes/voxnotes/internal/auth"
	"github.com/voxnotes/voxnotes/internal/handlers/v1alpha1/mappers"
)

// (GET /api/v1/conversations/{id}/messages)
func (s *ServiceHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, api.Error{Message: "invalid conversation id"})
		return
	}

	messages, err := s.messageSrv.ListMessages(r.Context(), user.ID, id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.MessageListToApi(messages))
}

// (POST /api/v1/conversations/{id}/messages)
func (s *ServiceHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, api.Error{Message: "invalid conversation id"})
		return
	}

	var body api.CreateMessageRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil || body.Text == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, api.Error{Message: "text is required"})
		return
	}

	message, err := s.messageSrv.CreateMessage(r.Context(), user.ID, id, body.Text)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, mappers.MessageToApi(*message))
}

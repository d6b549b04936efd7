package v1alpha1

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	api "github.com/voxnotes/voxnotes/api/v1alpha1"
	"github.com/voxnotes/voxnotes/internal/auth"
)

// (POST /api/v1/uploads/sign)
func (s *ServiceHandler) SignUpload(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	var body api.SignUploadRequest
	if err := render.DecodeJSON(r.Body, &body); err != nil || body.ConversationId == uuid.Nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, api.Error{Message: "conversationId is required"})
		return
	}

	url, fileKey, err := s.conversationSrv.SignAudioUpload(r.Context(), user.ID, body.ConversationId, body.Filename)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, api.SignUploadResponse{Url: url, FileKey: fileKey})
}

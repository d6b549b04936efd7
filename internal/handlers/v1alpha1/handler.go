package v1alpha1

import (
	"net/http"

	"github.com/go-chi/render"

	api "github.com/voxnotes/voxnotes/api/v1alpha1"
	"github.com/voxnotes/voxnotes/internal/service"
)

type ServiceHandler struct {
	conversationSrv *service.ConversationService
	messageSrv      *service.MessageService
	webhookSrv      *service.WebhookService
	processor       *service.Processor
}

func NewServiceHandler(
	conversationService *service.ConversationService,
	messageService *service.MessageService,
	webhookService *service.WebhookService,
	processor *service.Processor,
) *ServiceHandler {
	return &ServiceHandler{
		conversationSrv: conversationService,
		messageSrv:      messageService,
		webhookSrv:      webhookService,
		processor:       processor,
	}
}

// renderError maps service errors to HTTP status codes.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch err.(type) {
	case *service.ErrResourceNotFound:
		status = http.StatusNotFound
	case *service.ErrForbidden:
		status = http.StatusForbidden
	case *service.ErrConversationNotReady:
		status = http.StatusConflict
	case *service.ErrConversationHasNoAudio:
		status = http.StatusNotFound
	case *service.ErrWebhookUnauthorized:
		status = http.StatusUnauthorized
	case *service.ErrWebhookMalformed:
		status = http.StatusBadRequest
	case *service.ErrUnknownTranscription:
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
	}

	render.Status(r, status)
	if status == http.StatusInternalServerError {
		render.JSON(w, r, api.Error{Message: "internal server error"})
		return
	}
	render.JSON(w, r, api.Error{Message: err.Error()})
}

package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/voxnotes/voxnotes/internal/auth"
	"github.com/voxnotes/voxnotes/internal/config"
	handlers "github.com/voxnotes/voxnotes/internal/handlers/v1alpha1"
	"github.com/voxnotes/voxnotes/pkg/metrics"
	"github.com/voxnotes/voxnotes/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg      *config.Config
	handler  *handlers.ServiceHandler
	listener net.Listener
}

// New returns a new instance of the voxnotes API server.
func New(cfg *config.Config, handler *handlers.ServiceHandler, listener net.Listener) *Server {
	return &Server{
		cfg:      cfg,
		handler:  handler,
		listener: listener,
	}
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	authenticator, err := auth.NewAuthenticator(s.cfg.Service.Auth)
	if err != nil {
		return fmt.Errorf("failed to create authenticator: %w", err)
	}

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// provider callbacks and the trigger are not user facing, they carry no
	// user token
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhook/transcription", s.handler.TranscriptionWebhook)
		r.Post("/jobs/trigger", s.handler.TriggerJobs)

		r.Group(func(r chi.Router) {
			r.Use(authenticator.Authenticator)

			r.Post("/conversations", s.handler.CreateConversation)
			r.Get("/conversations", s.handler.ListConversations)
			r.Get("/conversations/history", s.handler.ListConversationHistory)
			r.Get("/conversations/{id}", s.handler.GetConversation)
			r.Delete("/conversations/{id}", s.handler.DeleteConversation)
			r.Post("/conversations/{id}/process-audio", s.handler.ProcessAudio)
			r.Get("/conversations/{id}/transcript/download", s.handler.GetTranscriptDownloadURL)
			r.Get("/conversations/{id}/notes/download", s.handler.GetNotesDownloadURL)
			r.Get("/conversations/{id}/messages", s.handler.ListMessages)
			r.Post("/conversations/{id}/messages", s.handler.CreateMessage)
			r.Post("/uploads/sign", s.handler.SignUpload)
		})
	})

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}

package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apiserver "github.com/voxnotes/voxnotes/internal/api_server"
	"github.com/voxnotes/voxnotes/internal/config"
	"github.com/voxnotes/voxnotes/internal/events"
	"github.com/voxnotes/voxnotes/internal/generator"
	handlers "github.com/voxnotes/voxnotes/internal/handlers/v1alpha1"
	"github.com/voxnotes/voxnotes/internal/service"
	"github.com/voxnotes/voxnotes/internal/storage"
	"github.com/voxnotes/voxnotes/internal/store"
	"github.com/voxnotes/voxnotes/internal/transcriber"
	"github.com/voxnotes/voxnotes/pkg/log"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the voxnotes api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		logger := log.InitLog(log.Level(cfg.Service.LogLevel))
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Info("Starting API service")
		defer zap.S().Info("API service stopped")

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db, zap.S().Named("store"))
		defer s.Close()

		if err := s.InitialMigration(); err != nil {
			zap.S().Fatalw("running initial migration", "error", err)
		}

		objectStore := storage.NewNopStorage()
		if cfg.Service.Storage.AccessKey != "" {
			objectStore, err = storage.NewMinioStorage(
				storage.WithEndpoint(cfg.Service.Storage.Endpoint),
				storage.WithBucket(cfg.Service.Storage.Bucket),
				storage.WithAccessKey(cfg.Service.Storage.AccessKey),
				storage.WithSecretKey(cfg.Service.Storage.SecretKey),
				storage.WithSSL(cfg.Service.Storage.UseSSL),
			)
			if err != nil {
				zap.S().Fatalw("initializing object store", "error", err)
			}
		} else {
			zap.S().Warn("no object store credentials, uploads and downloads are disabled")
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		gen, err := generator.NewGeminiGenerator(ctx, cfg.Service.Generator.APIKey, cfg.Service.Generator.Model)
		if err != nil {
			zap.S().Fatalw("initializing generator", "error", err)
		}
		defer gen.Close()

		gateway := transcriber.NewAssemblyAIGateway(cfg.Service.Transcriber.APIKey, cfg.Service.Webhook.Secret)

		producer := events.NewEventProducer(&events.StdoutWriter{})
		defer producer.Close()

		processor := service.NewProcessor(
			s,
			gateway,
			gen,
			objectStore,
			producer,
			cfg.Service.Webhook.BaseUrl,
			cfg.Service.ProcessInterval,
		)

		handler := handlers.NewServiceHandler(
			service.NewConversationService(s, objectStore, producer),
			service.NewMessageService(s, objectStore, gen),
			service.NewWebhookService(s, producer, cfg.Service.Webhook.Secret),
			processor,
		)

		go func() {
			defer cancel()
			if err := processor.Run(ctx); err != nil {
				zap.S().Fatalw("error running processor", "error", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			server := apiserver.New(cfg, handler, listener)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalw("error running server", "error", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Fatalw("creating metrics listener", "error", err)
			}

			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Fatalw("error running metrics server", "error", err)
			}
		}()

		<-ctx.Done()
		processor.Wait()
		return nil
	},
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}

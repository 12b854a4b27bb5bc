package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"sales-conversation-service/internal/app"
	"sales-conversation-service/internal/config"
	"sales-conversation-service/internal/crm"
	"sales-conversation-service/internal/events"
	httpapi "sales-conversation-service/internal/http"
	"sales-conversation-service/internal/observability"
	"sales-conversation-service/internal/observability/logging"
	"sales-conversation-service/internal/service/insight"
	"sales-conversation-service/internal/service/pipeline"
	"sales-conversation-service/internal/service/stt"
	sttgoogle "sales-conversation-service/internal/service/stt/google"
	sttmock "sales-conversation-service/internal/service/stt/mock"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("application start failed")
	}

	ctx := context.Background()

	var transcriber stt.Transcriber
	switch cfg.STT.Provider {
	case "mock":
		transcriber = sttmock.New()
		log.Warn().Msg("Using mock STT provider")
	default:
		adapter, err := sttgoogle.New(ctx, sttgoogle.Config{
			LanguageCode:    cfg.STT.LanguageCode,
			SampleRateHz:    cfg.STT.SampleRateHz,
			AudioChannels:   cfg.STT.AudioChannels,
			AudioEncoding:   cfg.STT.AudioEncoding,
			MaxAlternatives: cfg.STT.MaxAlternatives,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create Google STT client")
		}
		defer adapter.Close()
		transcriber = adapter
	}

	extractor := insight.NewOpenAIExtractor(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.MaxTokens)

	sessions := crm.NewSessionStore()
	crmClient := crm.NewClient(crm.Credentials{
		LoginURL:      cfg.Salesforce.LoginURL,
		Username:      cfg.Salesforce.Username,
		Password:      cfg.Salesforce.Password,
		SecurityToken: cfg.Salesforce.SecurityToken,
	}, cfg.Salesforce.APIVersion, sessions)

	publisher := events.New(&events.Config{
		Enabled:   cfg.Kafka.Enabled,
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.Topic,
		Principal: cfg.Kafka.Principal,
	})
	defer publisher.Close()

	pipe := pipeline.New(
		transcriber,
		extractor,
		crmClient,
		pipeline.DefaultLeadMapper(cfg.Lead.DefaultLastName, cfg.Lead.DefaultCompany),
		publisher,
	)

	obsServer := observability.NewServer(":" + cfg.Observability.HTTPPort)
	obsServer.Start()

	router := httpapi.NewRouter(httpapi.NewHandler(pipe, crmClient))
	server := &http.Server{
		Addr:        ":" + cfg.Service.HTTPPort,
		Handler:     router,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Sales conversation service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http serve failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("observability shutdown failed")
	}
	application.Shutdown()
}

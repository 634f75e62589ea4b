package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"ai-interpretation-service/internal/app"
	"ai-interpretation-service/internal/config"
	"ai-interpretation-service/internal/delivery"
	"ai-interpretation-service/internal/events"
	httpapi "ai-interpretation-service/internal/http"
	"ai-interpretation-service/internal/observability"
	"ai-interpretation-service/internal/service/classify"
	"ai-interpretation-service/internal/service/interpret"
	"ai-interpretation-service/internal/service/stream"
	"ai-interpretation-service/internal/service/stt"
	sttgoogle "ai-interpretation-service/internal/service/stt/google"
	sttmock "ai-interpretation-service/internal/service/stt/mock"
	"ai-interpretation-service/internal/service/translation"
	"ai-interpretation-service/internal/service/tts"
	"ai-interpretation-service/internal/session"
	"ai-interpretation-service/internal/storage"
	"ai-interpretation-service/internal/store"
	"ai-interpretation-service/internal/ws"
)

func main() {
	cfg := config.Load()
	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Startup failed")
	}

	ctx := context.Background()

	st := newStore(ctx, cfg)
	defer st.Close()

	objects := newObjectStore(ctx, cfg)
	defer objects.Close()

	publisher := events.New(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicResults: cfg.Kafka.TopicResults,
		TopicReviews: cfg.Kafka.TopicReviews,
		Principal:    cfg.Kafka.Principal,
	})
	defer publisher.Close()

	factory, translator, classifier, synthesizer := newProviders(ctx, cfg)

	hub := delivery.NewHub(nil)
	registry := session.NewRegistry(st, cfg.Languages.DefaultSource, cfg.Languages.DefaultTarget, nil)

	processor := interpret.NewProcessor(interpret.Options{
		Translator:  translator,
		Classifier:  classifier,
		Synthesizer: synthesizer,
		Objects:     objects,
		Store:       st,
		Sender:      hub,
		Publisher:   publisher,
		Threshold:   cfg.Pipeline.ConfidenceThreshold,
		Voice:       cfg.Pipeline.VoiceName,
		PresignTTL:  cfg.Pipeline.PresignTTL,
	})

	streams := stream.NewManager(factory, hub, processor, stream.Config{
		Provider:       cfg.STT.Provider,
		SampleRateHz:   int32(cfg.STT.SampleRateHz),
		QueueSize:      cfg.STT.QueueSize,
		InterimResults: cfg.STT.InterimResults,
		SegmentTimeout: cfg.Pipeline.SegmentTimeout,
	}, nil)

	wsHandler := ws.NewHandler(hub, registry, streams, processor, ws.Config{
		SegmentTimeout: cfg.Pipeline.SegmentTimeout,
	}, nil)

	router := httpapi.NewRouter(wsHandler, st)
	server := &http.Server{
		Addr:         ":" + cfg.Service.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	obsServer := observability.NewServer(":"+cfg.Observability.MetricsPort, func() bool { return true })
	obsServer.Start()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Interpretation service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	streams.StopAll()
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Observability server shutdown error")
	}
	application.Shutdown()
}

func newStore(ctx context.Context, cfg *config.Config) store.Store {
	if !cfg.Redis.Enabled {
		log.Info().Msg("Redis disabled, using in-memory store")
		return store.NewMemory()
	}
	st, err := store.NewRedis(ctx, store.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.TTL,
	})
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
	}
	return st
}

func newObjectStore(ctx context.Context, cfg *config.Config) storage.Store {
	if cfg.Storage.Bucket == "" {
		log.Info().Msg("No storage bucket configured, using in-memory object store")
		return storage.NewMemory()
	}
	objects, err := storage.NewGCS(ctx, cfg.Storage.Bucket)
	if err != nil {
		log.Fatal().Err(err).Str("bucket", cfg.Storage.Bucket).Msg("Failed to open storage bucket")
	}
	return objects
}

// newProviders builds the STT factory and the enrichment providers. The
// "google" provider requires application default credentials; anything else
// runs fully self-contained on the mock recognizer and stub providers.
func newProviders(ctx context.Context, cfg *config.Config) (stt.Factory, translation.Translator, classify.Classifier, tts.Synthesizer) {
	if cfg.STT.Provider != "google" {
		log.Info().Str("provider", cfg.STT.Provider).Msg("Using mock recognizer and stub providers")
		var synthesizer tts.Synthesizer
		if cfg.Pipeline.SynthesisEnabled {
			synthesizer = &tts.StubSynthesizer{}
		}
		return sttmock.Factory(), &translation.StubTranslator{}, &classify.StubClassifier{}, synthesizer
	}

	factory, err := sttgoogle.NewFactory(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create speech client")
	}
	translator, err := translation.NewGoogle(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create translation client")
	}
	classifier, err := classify.NewGoogle(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create language client")
	}
	var synthesizer tts.Synthesizer
	if cfg.Pipeline.SynthesisEnabled {
		s, err := tts.NewGoogle(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create text-to-speech client")
		}
		synthesizer = s
	}
	return factory, translator, classifier, synthesizer
}

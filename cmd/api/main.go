package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"voice-ingest-go/internal/audio"
	"voice-ingest-go/internal/blobstore"
	"voice-ingest-go/internal/catalog"
	"voice-ingest-go/internal/config"
	"voice-ingest-go/internal/credentials"
	"voice-ingest-go/internal/httpapi"
	"voice-ingest-go/internal/identity"
	"voice-ingest-go/internal/logger"
	"voice-ingest-go/internal/pipeline"
	"voice-ingest-go/internal/summarization"
	"voice-ingest-go/internal/transcription"
	"voice-ingest-go/internal/types"
	"voice-ingest-go/internal/upstream"
	"voice-ingest-go/internal/watcher"
)

func main() {
	_ = godotenv.Load() // loads .env

	cfg, err := config.Load(envOr("CONFIG_PATH", "config.yaml"))
	if err != nil {
		logger.New().WithError(err).Fatal("failed to load config")
	}

	log := logger.NewWith(cfg.Logging.Environment, cfg.Logging.Level, os.Stdout)
	log.WithField("service", "voice-ingest-go").Info("starting service")

	store := catalog.NewJSONStore(cfg.CatalogPath)
	if err := store.Load(); err != nil {
		log.WithError(err).Fatal("failed to load catalog")
	}
	log.WithField("catalog", store.Path()).
		WithField("transcripts", len(store.Transcripts())).
		Info("catalog loaded")

	// a key from the environment seeds an empty catalog; it still needs
	// verification before items are processed
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && store.Credentials().APIKey == "" {
		store.SetCredentials(key, os.Getenv("OPENAI_ORGANIZATION"))
		if err := store.Save(); err != nil {
			log.WithError(err).Warn("failed to persist seeded credentials")
		}
	}

	extractor, err := identity.New(cfg.Identity.Strategy, time.Local)
	if err != nil {
		log.WithError(err).Fatal("invalid identity strategy")
	}
	blobs := blobstore.New(cfg.DataDir, extractor.DerivesName())

	caller := upstream.NewCaller(time.Duration(cfg.OpenAI.TimeoutSeconds)*time.Second, cfg.OpenAI.MaxRetries)
	transcriber := transcription.New(cfg.OpenAI.BaseURL, cfg.OpenAI.TranscriptionModel, caller, log)
	transcriber.Mock = cfg.OpenAI.MockTranscribe
	summarizer := summarization.New(cfg.OpenAI.BaseURL, cfg.OpenAI.CompletionModel, cfg.OpenAI.MaxTokens, caller, log)
	summarizer.Mock = cfg.OpenAI.MockLLM
	creds := credentials.NewService(store, cfg.OpenAI.BaseURL, caller, log)

	log.WithField("identity", cfg.Identity.Strategy).
		WithField("mock_transcribe", transcriber.Mock).
		WithField("mock_llm", summarizer.Mock).
		Info("pipeline configured")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := pipeline.NewDriver(pipeline.Deps{
		Credentials: store,
		Catalog:     store,
		Identity:    extractor,
		Blobs:       blobs,
		Transcriber: transcriber,
		Summarizer:  summarizer,
		Durations:   audio.MP3{},
	}, log)
	runner := pipeline.NewRunner(ctx, driver, log)

	if cfg.Watch.InboxDir != "" {
		w, err := watcher.New(cfg.Watch.InboxDir, time.Duration(cfg.Watch.SettleMillis)*time.Millisecond,
			func(files []types.CandidateFile) error {
				_, err := runner.Start(files)
				return err
			}, log)
		if err != nil {
			log.WithError(err).Fatal("failed to watch inbox")
		}
		w.Busy = runner.Busy
		defer w.Close()
		go func() {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("inbox watcher stopped")
			}
		}()
	}

	api := httpapi.NewServer(runner, store, blobs, creds, log)
	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      api.Handler(),
		ReadTimeout:  5 * time.Minute, // uploads
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown incomplete")
		}
	}()

	log.WithField("addr", cfg.ListenAddr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}

	if runner.Busy() {
		log.Info("waiting for in-flight item")
		runner.Wait()
	}
	log.Info("stopped")
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MikeSquared-Agency/vantage/internal/api"
	"github.com/MikeSquared-Agency/vantage/internal/config"
	"github.com/MikeSquared-Agency/vantage/internal/features"
	"github.com/MikeSquared-Agency/vantage/internal/hermes"
	"github.com/MikeSquared-Agency/vantage/internal/logging"
	"github.com/MikeSquared-Agency/vantage/internal/model"
	"github.com/MikeSquared-Agency/vantage/internal/predict"
	"github.com/MikeSquared-Agency/vantage/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel)

	slog.Info("vantage starting", "port", cfg.Port, "bundle", cfg.ModelBundle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Model bundle. Serving without one would answer every request with 503.
	loadCtx, loadCancel := context.WithTimeout(ctx, cfg.ModelLoadTimeout)
	bundle, err := model.LoadFile(loadCtx, cfg.ModelBundle)
	loadCancel()
	if err != nil {
		slog.Error("failed to load model bundle", "path", cfg.ModelBundle, "error", err)
		os.Exit(1)
	}
	slog.Info("model bundle loaded", "version", bundle.Version, "trained_at", bundle.TrainedAt)

	var observers []features.Observer
	opts := api.Options{
		Port:        cfg.Port,
		APIToken:    cfg.APIToken,
		LoadTimeout: cfg.ModelLoadTimeout,
		BundleDir:   filepath.Dir(cfg.ModelBundle),
		Logger:      logger,
	}

	// Database (optional)
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		opts.Audit = db
		opts.Vocabulary = db
		observers = append(observers, store.NewVocabularyRecorder(db, logger))
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set, predictions will not be audited")
	}

	// NATS/Hermes (optional)
	var hermesClient *hermes.Client
	if cfg.NatsURL != "" {
		hermesClient, err = hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		opts.Events = hermesClient
		observers = append(observers, hermes.NewUnmappedPublisher(hermesClient, logger))
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS_URL not set, running without events or hot reload")
	}

	// Database and NATS writes for unmapped vocabulary run off the request path.
	forwarder := features.NewForwarder(features.DefaultForwardBuffer, logger, observers...)
	fwdCtx, stopForwarder := context.WithCancel(context.Background())
	go forwarder.Run(fwdCtx)

	opts.Tally = features.NewTally(forwarder)
	opts.Encoder = features.NewEncoder(opts.Tally, logger)
	opts.Predictor = predict.New(bundle, opts.Encoder)

	srv := api.NewServer(opts)

	if hermesClient != nil {
		if err := hermesClient.Subscribe(hermes.SubjectModelTrained, srv.HandleModelTrained); err != nil {
			slog.Error("failed to subscribe to model events", "error", err)
			os.Exit(1)
		}
	}

	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	slog.Info("vantage ready", "port", cfg.Port, "model", bundle.Version)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	stopForwarder()
	if err := forwarder.Wait(shutdownCtx); err != nil {
		slog.Warn("unmapped vocabulary not fully flushed", "error", err, "dropped", forwarder.Dropped())
	}
	cancel()
	slog.Info("vantage stopped")
}

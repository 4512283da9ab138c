package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"reflections/internal/classifier"
	"reflections/internal/config"
	"reflections/internal/db"
	"reflections/internal/handlers"
	"reflections/internal/logging"
	"reflections/internal/metrics"
	"reflections/internal/services"
	"reflections/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, db.Config{
		Driver:          cfg.Database.Driver,
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to open db", zap.Error(err))
		return err
	}
	defer conn.Close()

	if err := db.RunMigrations(ctx, conn); err != nil {
		logger.Error("failed migrations", zap.Error(err))
		return err
	}

	enc, err := services.NewEncryptionService(cfg.Encryption.Key)
	if err != nil {
		return fmt.Errorf("encryption: %w", err)
	}
	if enc == nil {
		logger.Warn("ENCRYPTION_KEY not set; reflection text is stored in plain form")
	}

	m := metrics.NewCollector("reflections")
	cls, err := newClassifier(cfg.Classifier, m, logger)
	if err != nil {
		return err
	}

	registry := store.NewTopicRegistry(conn, m)
	router := handlers.NewRouter(handlers.Deps{
		Users:  store.NewUserStore(conn),
		Stats:  store.NewStatsStore(conn),
		Topics: services.NewTopicService(conn, registry),
		Workflow: services.NewReflectionWorkflow(services.WorkflowDeps{
			Conn:        conn,
			Topics:      registry,
			Reflections: store.NewReflectionStore(conn, registry),
			Classifier:  cls,
			Encryption:  enc,
			Metrics:     m,
			Logger:      logger,
			MaxTopics:   cfg.Classifier.MaxTopics,
		}),
		Metrics: m,
		Logger:  logger,
	})

	srv := &http.Server{Addr: cfg.Addr(), Handler: router}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("db_driver", cfg.Database.Driver),
			zap.String("classifier", cfg.Classifier.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

func newClassifier(cfg config.ClassifierConfig, m *metrics.Collector, logger *zap.Logger) (classifier.Classifier, error) {
	var inner classifier.Classifier
	switch cfg.Provider {
	case config.ProviderOpenAI:
		llm, err := classifier.NewLLM(classifier.LLMConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTopics: cfg.MaxTopics,
		})
		if err != nil {
			return nil, err
		}
		inner = llm
	default:
		inner = classifier.KeywordClassifier{}
	}

	guard := classifier.DefaultGuardConfig()
	guard.Timeout = cfg.Timeout
	guard.RateLimit = cfg.RateLimit
	guard.Burst = cfg.Burst
	return classifier.NewGuarded(inner, guard, m, logger.Named("classifier")), nil
}

// Package main wires the ingestor, classifier, and risk engine into a
// single process and serves the HTTP API in front of them.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nextier/signal-engine/internal/api"
	"github.com/nextier/signal-engine/internal/bus"
	"github.com/nextier/signal-engine/internal/classifier"
	"github.com/nextier/signal-engine/internal/config"
	"github.com/nextier/signal-engine/internal/db"
	"github.com/nextier/signal-engine/internal/db/repositories"
	"github.com/nextier/signal-engine/internal/ingestor"
	"github.com/nextier/signal-engine/internal/riskengine"
	"github.com/nextier/signal-engine/internal/temporal"
)

const version = "0.1.0"

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("SIGNAL_ENGINE_ENV") == "development" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	logger.Info("starting signal-engine", "version", version)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("configuration loaded", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.New(cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	messageBus, err := bus.Connect(cfg.Bus, logger)
	if err != nil {
		logger.Error("failed to connect to message bus", "error", err)
		os.Exit(1)
	}
	defer messageBus.Close()

	articlesRepo := repositories.NewArticleRepository(database.DB)
	eventsRepo := repositories.NewParsedEventRepository(database.DB)
	signalsRepo := repositories.NewRiskSignalRepository(database.DB)
	econRepo := repositories.NewEconomicDataRepository(database.DB)

	orchestrator := ingestor.NewOrchestrator(cfg.Ingestor, articlesRepo, messageBus, logger)
	ingestorScheduler := ingestor.NewScheduler(orchestrator, cfg.Ingestor.PollInterval, logger)
	if err := ingestorScheduler.Start(ctx); err != nil {
		logger.Error("failed to start ingestor scheduler", "error", err)
		os.Exit(1)
	}

	classifierService := classifier.NewService(cfg.Classifier, articlesRepo, eventsRepo, messageBus, logger)

	// The classifier scheduler drives extraction/categorization through a
	// Runner: classifierService in-process when Temporal is unavailable, or
	// a Temporal-backed Driver dispatching ExtractEventWorkflow/
	// CategorizeArticleWorkflow executions when it is. Either way the
	// worker below binds its Activities to the same classifierService, so
	// the model-then-rule-fallback logic itself never changes.
	var classifierRunner classifier.Runner = classifierService

	temporalClient, err := temporal.NewClient(logger, temporal.ClientConfig{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		TaskQueue: cfg.Temporal.TaskQueue,
		Timeout:   30 * time.Second,
	})
	if err != nil {
		logger.Warn("temporal unavailable, falling back to in-process extraction/categorization", "error", err)
	} else {
		defer temporalClient.Close()

		activities := temporal.NewActivities(classifierService)
		worker, err := temporal.StartWorker(logger, temporalClient, temporal.WorkerConfig{TaskQueue: cfg.Temporal.TaskQueue}, activities)
		if err != nil {
			logger.Error("failed to start temporal worker, falling back to in-process extraction/categorization", "error", err)
		} else {
			defer worker.Stop()
			classifierRunner = temporal.NewDriver(temporalClient, articlesRepo, eventsRepo, messageBus, logger, cfg.Classifier.MaxConcurrentProcessing)
		}
	}

	classifierScheduler := classifier.NewScheduler(classifierRunner, cfg.Classifier.PollInterval, cfg.Classifier.CategorizationInterval, cfg.Classifier.MaxConcurrentProcessing, logger)
	if err := classifierScheduler.Start(ctx); err != nil {
		logger.Error("failed to start classifier scheduler", "error", err)
		os.Exit(1)
	}

	engine := riskengine.NewEngine(cfg.RiskEngine, econRepo, eventsRepo, signalsRepo, logger)
	riskScheduler := riskengine.NewScheduler(engine, cfg.RiskEngine.PollInterval, cfg.RiskEngine.BatchSize, logger)
	if err := riskScheduler.Start(ctx); err != nil {
		logger.Error("failed to start risk engine scheduler", "error", err)
		os.Exit(1)
	}

	server := api.NewAPIServer(articlesRepo, signalsRepo, engine, logger)
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)

	go func() {
		if err := server.Start(addr); err != nil {
			logger.Error("API server error", "error", err)
		}
	}()
	logger.Info("API server listening", "address", addr)

	<-ctx.Done()
	logger.Info("shutdown signal received, draining background workers")

	ingestorScheduler.Stop()
	classifierScheduler.Stop()
	riskScheduler.Stop()

	logger.Info("signal-engine shutdown complete")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RocketHubAI/rocket-dispatch/internal/api"
	"github.com/RocketHubAI/rocket-dispatch/internal/api/handlers"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/contextload"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/effects"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/generation"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/leader"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/poller"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/recovery"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/reports"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/store"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/tasks"
	"github.com/RocketHubAI/rocket-dispatch/internal/domain/repositories"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/config"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/database"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/logger"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/queue"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/redis"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	logger.Init(cfg.App.Environment, cfg.App.Debug)
	log.Info().Str("app", cfg.App.Name).Str("version", version).Msg("dispatcher starting")

	db, err := database.NewGormDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	rdb, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}

	queueClient := queue.NewClient(&cfg.Redis)
	defer queueClient.Close()

	// Stores and supporting services.
	pg := store.NewPostgresStore(db)
	taskStore := store.NewTaskPostgresStore(db)
	userRepo := repositories.NewUserRepository(db)
	teamRepo := repositories.NewTeamRepository(db)
	execRepo := repositories.NewExecutionRepository(db)

	loader := contextload.NewLoader(userRepo, teamRepo, log.Logger)
	generator := generation.NewWebhookGenerator(
		cfg.Generation.WebhookURL,
		cfg.Generation.Token,
		cfg.Generation.Timeout,
		cfg.Generation.CallsPerMin,
	)
	trigger := effects.NewQueueTrigger(queueClient, log.Logger)

	reportDispatcher := reports.NewDispatcher(
		pg, pg, loader, generator, trigger,
		cfg.Dispatch.ReportBatchSize, cfg.Dispatch.ClaimLease, log.Logger,
	)
	taskProcessor := tasks.NewProcessor(
		taskStore, taskStore, pg, loader, generator, trigger,
		cfg.Dispatch.TaskBatchSize, cfg.Dispatch.TaskLookahead,
		cfg.Dispatch.ClaimLease, cfg.Dispatch.TaskFailurePolicy, log.Logger,
	)
	sweeper := recovery.NewStaleSweeper(execRepo, taskStore, cfg.Dispatch.StaleExecution, log.Logger)
	cleaner := recovery.NewCleaner(execRepo, cfg.Dispatch.RetentionDays, log.Logger)

	dispatchHandler := handlers.NewDispatchHandler(reportDispatcher, taskProcessor, sweeper, cleaner, log.Logger)
	feedHandler := handlers.NewFeedHandler(
		repositories.NewMessageRepository(db),
		repositories.NewNotificationRepository(db),
		execRepo,
	)
	healthHandler := handlers.NewHealthHandler(db, version)
	server := api.NewServer(cfg, dispatchHandler, feedHandler, healthHandler, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Dispatch.PollEnabled {
		election := leader.NewElection(rdb, cfg.Dispatch.LeaderKey, cfg.Dispatch.LeaderTTL, log.Logger)
		go election.Run(ctx)

		loop := poller.New(reportDispatcher, taskProcessor, sweeper, cleaner,
			election, cfg.Dispatch.PollInterval, log.Logger)
		go loop.Run(ctx)
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	log.Info().Msg("dispatcher stopped")
}

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/RocketHubAI/rocket-dispatch/internal/domain/repositories"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/config"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/database"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/email"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/logger"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/queue"
	"github.com/RocketHubAI/rocket-dispatch/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	logger.Init(cfg.App.Environment, cfg.App.Debug)
	log.Info().Str("app", cfg.App.Name).Msg("worker starting")

	db, err := database.NewGormDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	mailer := email.NewService(&email.Config{
		SMTPHost:     cfg.SMTP.Host,
		SMTPPort:     cfg.SMTP.Port,
		SMTPUser:     cfg.SMTP.Username,
		SMTPPassword: cfg.SMTP.Password,
		FromEmail:    cfg.SMTP.From,
		FromName:     cfg.SMTP.FromName,
		UseSTARTTLS:  true,
		FrontendURL:  cfg.App.FrontendURL,
	})

	userRepo := repositories.NewUserRepository(db)
	emailHandler := worker.NewEmailHandler(mailer, userRepo, log.Logger)
	vizHandler := worker.NewVisualizationHandler(cfg.Renderer.WebhookURL, cfg.Renderer.Token, log.Logger)

	srv := queue.NewServer(&cfg.Redis, 10)
	srv.HandleFunc(queue.TypeReportEmail, emailHandler.ProcessTask)
	srv.HandleFunc(queue.TypeVisualization, vizHandler.ProcessTask)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("queue server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	srv.Shutdown()
	log.Info().Msg("worker stopped")
}

package queue

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/config"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/metrics"
)

// Server consumes the dispatcher's side-effect queues. Report emails
// ride the default queue and are drained ahead of visualization
// thumbnails on low; critical stays reserved for operator-injected
// jobs.
type Server struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewServer(cfg *config.RedisConfig, concurrency int) *Server {
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Addr(),
			Password: cfg.Password,
			DB:       cfg.DB,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				QueueCritical: 6,
				QueueDefault:  3,
				QueueLow:      1,
			},
			// SMTP and renderer hiccups clear in seconds, not the
			// default exponential minutes; keep retries tight so an
			// email lands near its delivery slot.
			RetryDelayFunc: func(n int, _ error, _ *asynq.Task) time.Duration {
				return time.Duration(n*n) * 10 * time.Second
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				metrics.SideEffectsTotal.WithLabelValues(effectLabel(task.Type()), "failed").Inc()
				taskID := "unknown"
				if rw := task.ResultWriter(); rw != nil {
					taskID = rw.TaskID()
				}
				ev := log.Error()
				if errors.Is(err, asynq.SkipRetry) {
					ev = log.Warn()
				}
				ev.Str("task_type", task.Type()).
					Str("task_id", taskID).
					Err(err).
					Msg("Side effect failed")
			}),
			Logger: &asynqLogger{},
		},
	)

	return &Server{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

func effectLabel(taskType string) string {
	switch taskType {
	case TypeReportEmail:
		return "email"
	case TypeVisualization:
		return "visualization"
	default:
		return taskType
	}
}

func (s *Server) HandleFunc(pattern string, handler func(context.Context, *asynq.Task) error) {
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) Start() error {
	log.Info().Msg("Starting side-effect worker...")
	return s.server.Start(s.mux)
}

func (s *Server) Shutdown() {
	log.Info().Msg("Shutting down side-effect worker...")
	s.server.Shutdown()
}

// asynqLogger adapts asynq's internal logging onto zerolog.
type asynqLogger struct{}

func (l *asynqLogger) Debug(args ...interface{}) {
	log.Debug().Msgf("%v", args)
}

func (l *asynqLogger) Info(args ...interface{}) {
	log.Info().Msgf("%v", args)
}

func (l *asynqLogger) Warn(args ...interface{}) {
	log.Warn().Msgf("%v", args)
}

func (l *asynqLogger) Error(args ...interface{}) {
	log.Error().Msgf("%v", args)
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	log.Fatal().Msgf("%v", args)
}

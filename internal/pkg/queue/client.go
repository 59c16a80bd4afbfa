package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/config"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TypeReportEmail   = "report:email"
	TypeVisualization = "report:visualization"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg *config.RedisConfig) *Client {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Client{client: client}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// ReportEmailPayload carries one recipient's email dispatch for one
// delivered message. Enqueued per recipient so a single failure never
// suppresses the rest of the fan-out.
type ReportEmailPayload struct {
	ReportID      *uuid.UUID `json:"report_id,omitempty"`
	TaskID        *uuid.UUID `json:"task_id,omitempty"`
	ChatMessageID uuid.UUID  `json:"chat_message_id"`
	UserID        uuid.UUID  `json:"user_id"`
	UserEmail     string     `json:"user_email"`
	UserName      string     `json:"user_name"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Frequency     string     `json:"frequency"`
	IsTeamReport  bool       `json:"is_team_report"`
}

func (c *Client) EnqueueReportEmail(ctx context.Context, payload ReportEmailPayload) (*asynq.TaskInfo, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeReportEmail, data,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
		asynq.Retention(24*time.Hour),
	)

	return c.client.EnqueueContext(ctx, task)
}

// VisualizationPayload asks the renderer webhook for a thumbnail of one
// delivered message.
type VisualizationPayload struct {
	ChatMessageID uuid.UUID `json:"chat_message_id"`
	ReportContent string    `json:"report_content"`
}

func (c *Client) EnqueueVisualization(ctx context.Context, payload VisualizationPayload) (*asynq.TaskInfo, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeVisualization, data,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(3),
		asynq.Timeout(60*time.Second),
		asynq.Retention(24*time.Hour),
	)

	return c.client.EnqueueContext(ctx, task)
}

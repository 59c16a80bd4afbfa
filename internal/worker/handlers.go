// Package worker consumes the side-effect queues: report emails and
// visualization rendering.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/RocketHubAI/rocket-dispatch/internal/domain/models"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/httpclient"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/metrics"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/queue"
)

// Mailer is the slice of the email service the worker needs.
type Mailer interface {
	SendReport(ctx context.Context, to, name, title, content, frequency string) error
	SendTaskDigest(ctx context.Context, to, name, title, content string) error
}

// UserLookup answers whether a recipient still accepts email.
type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type EmailHandler struct {
	mailer Mailer
	users  UserLookup
	log    zerolog.Logger
}

func NewEmailHandler(mailer Mailer, users UserLookup, log zerolog.Logger) *EmailHandler {
	return &EmailHandler{mailer: mailer, users: users, log: log}
}

// ProcessTask sends one recipient's report email. A recipient who
// opted out is a successful no-op, not a retryable failure.
func (h *EmailHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p queue.ReportEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode email payload: %v: %w", err, asynq.SkipRetry)
	}

	log := h.log.With().
		Str("chat_message_id", p.ChatMessageID.String()).
		Str("user_email", p.UserEmail).
		Logger()

	if user, err := h.users.FindByID(ctx, p.UserID); err == nil && !user.EmailNotifications {
		log.Info().Msg("recipient opted out of email, skipping")
		metrics.SideEffectsTotal.WithLabelValues("email", "opted_out").Inc()
		return nil
	}

	var err error
	if p.ReportID != nil {
		err = h.mailer.SendReport(ctx, p.UserEmail, p.UserName, p.Title, p.Content, p.Frequency)
	} else {
		err = h.mailer.SendTaskDigest(ctx, p.UserEmail, p.UserName, p.Title, p.Content)
	}
	if err != nil {
		metrics.SideEffectsTotal.WithLabelValues("email", "failed").Inc()
		return fmt.Errorf("send report email: %w", err)
	}

	metrics.SideEffectsTotal.WithLabelValues("email", "sent").Inc()
	log.Info().Msg("report email sent")
	return nil
}

type VisualizationHandler struct {
	webhookURL string
	token      string
	client     *httpclient.PooledClient
	log        zerolog.Logger
}

func NewVisualizationHandler(webhookURL, token string, log zerolog.Logger) *VisualizationHandler {
	return &VisualizationHandler{
		webhookURL: webhookURL,
		token:      token,
		client:     httpclient.Default(),
		log:        log,
	}
}

// ProcessTask asks the renderer webhook for a visualization of one
// delivered message. An unconfigured renderer is a no-op.
func (h *VisualizationHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if h.webhookURL == "" {
		return nil
	}

	var p queue.VisualizationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode visualization payload: %v: %w", err, asynq.SkipRetry)
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode visualization request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build visualization request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		metrics.SideEffectsTotal.WithLabelValues("visualization", "failed").Inc()
		return fmt.Errorf("visualization call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.SideEffectsTotal.WithLabelValues("visualization", "failed").Inc()
		return fmt.Errorf("visualization webhook returned %d", resp.StatusCode)
	}

	metrics.SideEffectsTotal.WithLabelValues("visualization", "rendered").Inc()
	h.log.Info().Str("chat_message_id", p.ChatMessageID.String()).Msg("visualization rendered")
	return nil
}

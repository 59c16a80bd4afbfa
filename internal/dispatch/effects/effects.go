// Package effects fires the post-delivery side effects: email fan-out
// and visualization rendering. Triggers are best effort, a failed
// enqueue is logged and never fails the dispatch that produced it.
package effects

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/metrics"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/queue"
)

// Trigger fires side effects for freshly delivered content.
type Trigger interface {
	EmailReport(ctx context.Context, p queue.ReportEmailPayload)
	Visualize(ctx context.Context, p queue.VisualizationPayload)
}

// QueueTrigger enqueues side effects onto the background task queue.
type QueueTrigger struct {
	client *queue.Client
	log    zerolog.Logger
}

func NewQueueTrigger(client *queue.Client, log zerolog.Logger) *QueueTrigger {
	return &QueueTrigger{client: client, log: log}
}

func (t *QueueTrigger) EmailReport(ctx context.Context, p queue.ReportEmailPayload) {
	if _, err := t.client.EnqueueReportEmail(ctx, p); err != nil {
		metrics.SideEffectsTotal.WithLabelValues("email", "enqueue_failed").Inc()
		t.log.Warn().Err(err).
			Str("chat_message_id", p.ChatMessageID.String()).
			Str("user_email", p.UserEmail).
			Msg("email side effect enqueue failed")
		return
	}
	metrics.SideEffectsTotal.WithLabelValues("email", "enqueued").Inc()
}

func (t *QueueTrigger) Visualize(ctx context.Context, p queue.VisualizationPayload) {
	if _, err := t.client.EnqueueVisualization(ctx, p); err != nil {
		metrics.SideEffectsTotal.WithLabelValues("visualization", "enqueue_failed").Inc()
		t.log.Warn().Err(err).
			Str("chat_message_id", p.ChatMessageID.String()).
			Msg("visualization side effect enqueue failed")
		return
	}
	metrics.SideEffectsTotal.WithLabelValues("visualization", "enqueued").Inc()
}

// NopTrigger drops every side effect; tests and dry runs use it.
type NopTrigger struct {
	Emails         []queue.ReportEmailPayload
	Visualizations []queue.VisualizationPayload
}

func (t *NopTrigger) EmailReport(_ context.Context, p queue.ReportEmailPayload) {
	t.Emails = append(t.Emails, p)
}

func (t *NopTrigger) Visualize(_ context.Context, p queue.VisualizationPayload) {
	t.Visualizations = append(t.Visualizations, p)
}

// Package tasks drives the generic scheduled task pipeline: reminders,
// research, check-ins, report-typed tasks and custom instructions.
package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/contextload"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/effects"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/generation"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/recurrence"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/store"
	"github.com/RocketHubAI/rocket-dispatch/internal/domain/models"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/metrics"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/queue"
)

// Failure policies for a generation that produced nothing usable.
const (
	PolicySkipSlot = "skip_slot"
	PolicyHoldSlot = "hold_slot"
)

// ContextLoader resolves the enrichment bundle for one item.
type ContextLoader interface {
	Load(ctx context.Context, userID uuid.UUID, teamID *uuid.UUID) contextload.Bundle
}

// Options tune one processor run.
type Options struct {
	// Trigger labels the run origin for metrics: "http" or "poll".
	Trigger string
}

type Processor struct {
	tasks         store.TaskStore
	executions    store.ExecutionStore
	deliveries    store.DeliveryStore
	loader        ContextLoader
	generator     generation.Generator
	effects       effects.Trigger
	batchSize     int
	lookahead     time.Duration
	lease         time.Duration
	failurePolicy string
	log           zerolog.Logger
	now           func() time.Time
}

func NewProcessor(
	tasks store.TaskStore,
	executions store.ExecutionStore,
	deliveries store.DeliveryStore,
	loader ContextLoader,
	generator generation.Generator,
	effects effects.Trigger,
	batchSize int,
	lookahead time.Duration,
	lease time.Duration,
	failurePolicy string,
	log zerolog.Logger,
) *Processor {
	if failurePolicy != PolicyHoldSlot {
		failurePolicy = PolicySkipSlot
	}
	return &Processor{
		tasks:         tasks,
		executions:    executions,
		deliveries:    deliveries,
		loader:        loader,
		generator:     generator,
		effects:       effects,
		batchSize:     batchSize,
		lookahead:     lookahead,
		lease:         lease,
		failurePolicy: failurePolicy,
		log:           log,
		now:           time.Now,
	}
}

// Run processes one batch of due tasks. The due window includes a
// short lookahead so a task landing between ticks is not deferred a
// whole interval. It returns an error only when the due selection
// itself fails.
func (p *Processor) Run(ctx context.Context, opts Options) (*dispatch.Result, error) {
	start := p.now().UTC()
	result := dispatch.NewResult(start)

	if opts.Trigger == "" {
		opts.Trigger = "http"
	}
	metrics.DispatchRunsTotal.WithLabelValues("tasks", opts.Trigger).Inc()
	defer func() {
		metrics.BatchDuration.WithLabelValues("tasks").Observe(time.Since(start).Seconds())
	}()

	cutoff := start.Add(p.lookahead)
	due, total, err := p.tasks.GetDue(ctx, cutoff, p.batchSize)
	if err != nil {
		return nil, fmt.Errorf("select due tasks: %w", err)
	}
	// Items past the batch cap stay due for the next tick but still
	// count as skipped in this run's result.
	if overCap := total - len(due); overCap > 0 {
		result.SkippedCount += overCap
	}

	p.log.Info().Int("due", len(due)).Int("total_due", total).Time("cutoff", cutoff).Msg("task dispatch tick")

	for _, task := range due {
		item := p.processOne(ctx, task)
		result.Add(item)
		metrics.ItemsProcessedTotal.WithLabelValues("tasks", item.Status).Inc()
	}

	p.log.Info().
		Int("processed", result.Processed).
		Int("failed", result.Failed).
		Int("skipped", result.SkippedCount).
		Msg("task dispatch done")
	return result, nil
}

func (p *Processor) processOne(ctx context.Context, task *store.Task) (item dispatch.ItemResult) {
	item = dispatch.ItemResult{ID: task.ID.String(), Title: task.Title}
	log := p.log.With().Str("task_id", task.ID.String()).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("task dispatch panicked")
			item.Status = dispatch.StatusFailed
			item.Detail = fmt.Sprintf("panic: %v", r)
			if err := p.tasks.ReleaseClaim(ctx, task.ID); err != nil {
				log.Error().Err(err).Msg("release claim after panic failed")
			}
		}
	}()

	claimed, err := p.tasks.Claim(ctx, task.ID, p.lease)
	if err != nil {
		item.Status = dispatch.StatusFailed
		item.Detail = err.Error()
		return item
	}
	if !claimed {
		log.Debug().Msg("task already claimed, skipping")
		item.Status = dispatch.StatusSkipped
		item.Detail = "claimed by another run"
		return item
	}

	execID, err := p.executions.Start(ctx, task.ID, task.UserID, task.TeamID)
	if err != nil {
		log.Error().Err(err).Msg("execution open failed")
		if relErr := p.tasks.ReleaseClaim(ctx, task.ID); relErr != nil {
			log.Error().Err(relErr).Msg("release claim failed")
		}
		item.Status = dispatch.StatusFailed
		item.Detail = err.Error()
		return item
	}
	log = log.With().Str("execution_id", execID.String()).Logger()

	bundle := p.loader.Load(ctx, task.UserID, &task.TeamID)

	teamID := task.TeamID
	content, err := p.generator.Generate(ctx, generation.Request{
		Prompt:        p.buildPrompt(task, bundle),
		UserID:        task.UserID,
		TeamID:        &teamID,
		Source:        models.SourceScheduledTask,
		UserName:      bundle.UserName,
		UserEmail:     bundle.UserEmail,
		TeamName:      bundle.TeamName,
		AssistantName: bundle.AssistantName,
		Priorities:    bundle.Priorities,
		Skills:        bundle.Skills,
	})
	if err != nil {
		return p.failItem(ctx, task, execID, err, item, log)
	}

	if err := p.deliver(ctx, task, content, log); err != nil {
		return p.failItem(ctx, task, execID, err, item, log)
	}

	if err := p.executions.Complete(ctx, execID, content); err != nil {
		log.Error().Err(err).Msg("execution close failed")
	}

	next, status := p.advance(task, log)
	if err := p.tasks.RecordRun(ctx, task.ID, next, status); err != nil {
		log.Error().Err(err).Msg("record run failed")
		item.Status = dispatch.StatusFailed
		item.Detail = err.Error()
		return item
	}

	log.Info().Str("task_type", task.TaskType).Str("new_status", status).Msg("task dispatched")
	item.Status = dispatch.StatusDelivered
	item.Recipients = 1
	return item
}

// failItem closes the execution as failed and applies the configured
// slot policy: skip_slot consumes the slot and reschedules, hold_slot
// leaves the task due for the next tick.
func (p *Processor) failItem(ctx context.Context, task *store.Task, execID uuid.UUID, cause error, item dispatch.ItemResult, log zerolog.Logger) dispatch.ItemResult {
	log.Error().Err(cause).Msg("task dispatch failed")
	if err := p.executions.Fail(ctx, execID, cause.Error()); err != nil {
		log.Error().Err(err).Msg("execution close failed")
	}

	if p.failurePolicy == PolicySkipSlot {
		next, err := p.nextRun(task)
		if err != nil {
			log.Error().Err(err).Msg("schedule advance failed, holding slot")
			if relErr := p.tasks.ReleaseClaim(ctx, task.ID); relErr != nil {
				log.Error().Err(relErr).Msg("release claim failed")
			}
		} else if err := p.tasks.Reschedule(ctx, task.ID, next); err != nil {
			log.Error().Err(err).Msg("reschedule failed")
		}
	} else {
		if err := p.tasks.ReleaseClaim(ctx, task.ID); err != nil {
			log.Error().Err(err).Msg("release claim failed")
		}
	}

	item.Status = dispatch.StatusFailed
	item.Detail = cause.Error()
	return item
}

// deliver routes the generated content by task type and delivery
// method. Report-typed tasks land in the reports channel with a short
// pointer message in the conversation; everything else goes to the
// conversation directly.
func (p *Processor) deliver(ctx context.Context, task *store.Task, content string, log zerolog.Logger) error {
	teamID := task.TeamID

	if task.DeliveryMethod != models.DeliveryNotification {
		if task.TaskType == models.TaskTypeReport {
			msgID, err := p.deliveries.InsertMessage(ctx, &store.Message{
				UserID:     task.UserID,
				TeamID:     &teamID,
				Channel:    models.ChannelReports,
				Content:    content,
				SourceType: models.SourceScheduledTask,
				TaskID:     &task.ID,
				Title:      task.Title,
				Frequency:  task.Frequency,
			})
			if err != nil {
				metrics.DeliveriesTotal.WithLabelValues(models.ChannelReports, "failed").Inc()
				return fmt.Errorf("insert report message: %w", err)
			}
			metrics.DeliveriesTotal.WithLabelValues(models.ChannelReports, "written").Inc()
			p.effects.Visualize(ctx, queue.VisualizationPayload{
				ChatMessageID: msgID,
				ReportContent: content,
			})

			pointer := fmt.Sprintf("Your report %q is ready in the Reports tab.", task.Title)
			if _, err := p.deliveries.InsertMessage(ctx, &store.Message{
				UserID:     task.UserID,
				TeamID:     &teamID,
				Channel:    models.ChannelConversation,
				Content:    pointer,
				SourceType: models.SourceScheduledTask,
				TaskID:     &task.ID,
				Title:      task.Title,
			}); err != nil {
				// The report row exists; a lost pointer is not fatal.
				log.Warn().Err(err).Msg("pointer message insert failed")
			}
		} else {
			_, err := p.deliveries.InsertMessage(ctx, &store.Message{
				UserID:     task.UserID,
				TeamID:     &teamID,
				Channel:    models.ChannelConversation,
				Content:    content,
				SourceType: models.SourceScheduledTask,
				TaskID:     &task.ID,
				Title:      task.Title,
				Frequency:  task.Frequency,
			})
			if err != nil {
				metrics.DeliveriesTotal.WithLabelValues(models.ChannelConversation, "failed").Inc()
				return fmt.Errorf("insert conversation message: %w", err)
			}
			metrics.DeliveriesTotal.WithLabelValues(models.ChannelConversation, "written").Inc()
		}
	}

	if task.DeliveryMethod == models.DeliveryNotification || task.DeliveryMethod == models.DeliveryBoth {
		if err := p.deliveries.InsertNotice(ctx, &store.Notice{
			UserID: task.UserID,
			TaskID: &task.ID,
			Title:  task.Title,
			Body:   truncate(content, 500),
		}); err != nil {
			if task.DeliveryMethod == models.DeliveryNotification {
				return fmt.Errorf("insert notification: %w", err)
			}
			// Conversation copy already landed.
			log.Warn().Err(err).Msg("notification insert failed")
		}
	}

	return nil
}

// advance computes the post-run schedule: one-shot tasks and tasks
// that hit their run cap complete, everything else gets its next slot.
func (p *Processor) advance(task *store.Task, log zerolog.Logger) (*time.Time, string) {
	newCount := task.RunCount + 1
	if task.Frequency == models.FrequencyOnce {
		return nil, models.TaskStatusCompleted
	}
	if task.MaxRuns != nil && newCount >= *task.MaxRuns {
		return nil, models.TaskStatusCompleted
	}

	next, err := p.nextRun(task)
	if err != nil {
		// A schedule that stopped computing is effectively over.
		log.Error().Err(err).Msg("schedule advance failed, completing task")
		return nil, models.TaskStatusCompleted
	}
	return next, models.TaskStatusActive
}

func (p *Processor) nextRun(task *store.Task) (*time.Time, error) {
	return recurrence.Next(p.now().UTC(), recurrence.Rule{
		Frequency:      task.Frequency,
		Day:            task.ScheduleDay,
		Hour:           task.ScheduleHour,
		Minute:         task.ScheduleMinute,
		Timezone:       task.Timezone,
		CronExpression: task.CronExpression,
	})
}

// buildPrompt folds the task definition and context into the upstream
// instruction. The stored AI prompt is authoritative; title and
// description frame it for task types created without one.
func (p *Processor) buildPrompt(task *store.Task, bundle contextload.Bundle) string {
	var b strings.Builder

	switch task.TaskType {
	case models.TaskTypeReminder:
		b.WriteString("Write a short, friendly reminder")
		if bundle.UserName != "" {
			b.WriteString(" for " + bundle.UserName)
		}
		b.WriteString(".\n")
	case models.TaskTypeResearch:
		b.WriteString("Research the following and summarize the findings.\n")
	case models.TaskTypeCheckIn:
		b.WriteString("Write a brief check-in prompt to start the conversation.\n")
	case models.TaskTypeReport:
		b.WriteString("Produce a structured report.\n")
	}

	if task.Title != "" {
		b.WriteString("Task: " + task.Title + "\n")
	}
	if task.Description != "" {
		b.WriteString("Details: " + task.Description + "\n")
	}
	if task.AIPrompt != "" {
		b.WriteString(task.AIPrompt)
	}
	return strings.TrimSpace(b.String())
}

// truncate cuts on a rune boundary so multi-byte content survives.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

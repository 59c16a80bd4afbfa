// Package reports drives the scheduled report pipeline: select due
// definitions, claim, load context, generate, fan out deliveries and
// advance the schedule.
package reports

import (
	"context"
	"fmt"
	"time"

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

// ContextLoader resolves the enrichment bundle for one item.
type ContextLoader interface {
	Load(ctx context.Context, userID uuid.UUID, teamID *uuid.UUID) contextload.Bundle
}

// Options tune one dispatcher run.
type Options struct {
	// Trigger labels the run origin for metrics: "http" or "poll".
	Trigger string

	// Pregenerate widens the due window to HoursAhead and stamps each
	// delivery with the item's scheduled time instead of delivering
	// immediately.
	Pregenerate bool
	HoursAhead  int
}

type Dispatcher struct {
	reports    store.ReportStore
	deliveries store.DeliveryStore
	loader     ContextLoader
	generator  generation.Generator
	effects    effects.Trigger
	batchSize  int
	lease      time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

func NewDispatcher(
	reports store.ReportStore,
	deliveries store.DeliveryStore,
	loader ContextLoader,
	generator generation.Generator,
	effects effects.Trigger,
	batchSize int,
	lease time.Duration,
	log zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		reports:    reports,
		deliveries: deliveries,
		loader:     loader,
		generator:  generator,
		effects:    effects,
		batchSize:  batchSize,
		lease:      lease,
		log:        log,
		now:        time.Now,
	}
}

// Run processes one batch of due report definitions. It returns an
// error only when the due selection itself fails; per-item failures
// are folded into the result.
func (d *Dispatcher) Run(ctx context.Context, opts Options) (*dispatch.Result, error) {
	start := d.now().UTC()
	result := dispatch.NewResult(start)

	if opts.Trigger == "" {
		opts.Trigger = "http"
	}
	metrics.DispatchRunsTotal.WithLabelValues("reports", opts.Trigger).Inc()
	defer func() {
		metrics.BatchDuration.WithLabelValues("reports").Observe(time.Since(start).Seconds())
	}()

	cutoff := start
	if opts.Pregenerate && opts.HoursAhead > 0 {
		cutoff = start.Add(time.Duration(opts.HoursAhead) * time.Hour)
	}

	due, total, err := d.reports.GetDue(ctx, cutoff, d.batchSize)
	if err != nil {
		return nil, fmt.Errorf("select due reports: %w", err)
	}
	// Items past the batch cap stay due for the next tick but still
	// count as skipped in this run's result.
	if overCap := total - len(due); overCap > 0 {
		result.SkippedCount += overCap
	}

	d.log.Info().
		Int("due", len(due)).
		Int("total_due", total).
		Bool("pregenerate", opts.Pregenerate).
		Time("cutoff", cutoff).
		Msg("report dispatch tick")

	for _, rep := range due {
		item := d.processOne(ctx, rep, opts)
		result.Add(item)
		metrics.ItemsProcessedTotal.WithLabelValues("reports", item.Status).Inc()
	}

	d.log.Info().
		Int("processed", result.Processed).
		Int("failed", result.Failed).
		Int("skipped", result.SkippedCount).
		Msg("report dispatch done")
	return result, nil
}

func (d *Dispatcher) processOne(ctx context.Context, rep *store.Report, opts Options) (item dispatch.ItemResult) {
	item = dispatch.ItemResult{ID: rep.ID.String(), Title: rep.Title}
	log := d.log.With().Str("report_id", rep.ID.String()).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("report dispatch panicked")
			item.Status = dispatch.StatusFailed
			item.Detail = fmt.Sprintf("panic: %v", r)
			if err := d.reports.ReleaseClaim(ctx, rep.ID); err != nil {
				log.Error().Err(err).Msg("release claim after panic failed")
			}
		}
	}()

	claimed, err := d.reports.Claim(ctx, rep.ID, d.lease)
	if err != nil {
		item.Status = dispatch.StatusFailed
		item.Detail = err.Error()
		return item
	}
	if !claimed {
		log.Debug().Msg("report already claimed, skipping")
		item.Status = dispatch.StatusSkipped
		item.Detail = "claimed by another run"
		return item
	}

	bundle := d.loader.Load(ctx, rep.UserID, rep.TeamID)

	content, err := d.generator.Generate(ctx, generation.Request{
		Prompt:        rep.Prompt,
		UserID:        rep.UserID,
		TeamID:        rep.TeamID,
		Source:        models.SourceScheduledReport,
		UserName:      bundle.UserName,
		UserEmail:     bundle.UserEmail,
		TeamName:      bundle.TeamName,
		AssistantName: bundle.AssistantName,
		Priorities:    bundle.Priorities,
		Skills:        bundle.Skills,
	})
	if err != nil {
		// Leave next_run_at untouched so the next tick retries.
		log.Error().Err(err).Msg("report generation failed")
		if relErr := d.reports.ReleaseClaim(ctx, rep.ID); relErr != nil {
			log.Error().Err(relErr).Msg("release claim after generation failure failed")
		}
		item.Status = dispatch.StatusFailed
		item.Detail = err.Error()
		return item
	}

	recipients := d.resolveRecipients(ctx, rep, log)
	if len(recipients) == 0 {
		log.Error().Msg("no resolvable recipients")
		if relErr := d.reports.ReleaseClaim(ctx, rep.ID); relErr != nil {
			log.Error().Err(relErr).Msg("release claim failed")
		}
		item.Status = dispatch.StatusFailed
		item.Detail = "no resolvable recipients"
		return item
	}

	var deliverAt *time.Time
	if opts.Pregenerate && rep.NextRunAt != nil && rep.NextRunAt.After(d.now()) {
		deliverAt = rep.NextRunAt
	}

	inserted := 0
	for _, rcpt := range recipients {
		msgID, err := d.deliveries.InsertMessage(ctx, &store.Message{
			UserID:       rcpt.UserID,
			TeamID:       rep.TeamID,
			Channel:      models.ChannelReports,
			Content:      content,
			SourceType:   models.SourceScheduledReport,
			ReportID:     &rep.ID,
			Title:        rep.Title,
			Frequency:    rep.Frequency,
			IsTeamReport: rep.IsTeamReport,
			CreatedBy:    rep.CreatedBy,
			DeliverAt:    deliverAt,
		})
		if err != nil {
			log.Error().Err(err).Str("user_id", rcpt.UserID.String()).Msg("message insert failed")
			metrics.DeliveriesTotal.WithLabelValues(models.ChannelReports, "failed").Inc()
			continue
		}
		inserted++
		metrics.DeliveriesTotal.WithLabelValues(models.ChannelReports, "written").Inc()

		// Side effects fire only for immediate deliveries; a
		// pre-generated message waits for its scheduled time.
		if deliverAt == nil {
			if rep.SendEmail && rcpt.Email != "" {
				d.effects.EmailReport(ctx, queue.ReportEmailPayload{
					ReportID:      &rep.ID,
					ChatMessageID: msgID,
					UserID:        rcpt.UserID,
					UserEmail:     rcpt.Email,
					UserName:      rcpt.Name,
					Title:         rep.Title,
					Content:       content,
					Frequency:     rep.Frequency,
					IsTeamReport:  rep.IsTeamReport,
				})
			}
			d.effects.Visualize(ctx, queue.VisualizationPayload{
				ChatMessageID: msgID,
				ReportContent: content,
			})
		}
	}

	if inserted == 0 {
		// Nothing persisted, keep the slot due so the next tick retries.
		if relErr := d.reports.ReleaseClaim(ctx, rep.ID); relErr != nil {
			log.Error().Err(relErr).Msg("release claim failed")
		}
		item.Status = dispatch.StatusFailed
		item.Detail = "all deliveries failed"
		return item
	}

	// A pre-generated slot is already served; advance from it, not from
	// now, or the normal tick at the slot would claim and deliver again.
	advanceFrom := d.now().UTC()
	if deliverAt != nil {
		advanceFrom = deliverAt.UTC()
	}
	next, err := recurrence.Next(advanceFrom, recurrence.Rule{
		Frequency: rep.Frequency,
		Day:       rep.ScheduleDay,
		Hour:      rep.ScheduleHour,
		Minute:    rep.ScheduleMinute,
		Timezone:  rep.Timezone,
	})
	if err != nil {
		log.Error().Err(err).Msg("schedule advance failed")
		if relErr := d.reports.ReleaseClaim(ctx, rep.ID); relErr != nil {
			log.Error().Err(relErr).Msg("release claim failed")
		}
		item.Status = dispatch.StatusFailed
		item.Detail = fmt.Sprintf("delivered to %d recipients but schedule advance failed: %v", inserted, err)
		item.Recipients = inserted
		return item
	}

	if err := d.reports.RecordRun(ctx, rep.ID, next); err != nil {
		log.Error().Err(err).Msg("record run failed")
		item.Status = dispatch.StatusFailed
		item.Detail = err.Error()
		item.Recipients = inserted
		return item
	}

	log.Info().Int("recipients", inserted).Bool("pregenerated", deliverAt != nil).Msg("report dispatched")
	item.Status = dispatch.StatusDelivered
	item.Recipients = inserted
	return item
}

// resolveRecipients expands a team report to the roster and falls back
// to the owner when the roster is empty or unresolvable.
func (d *Dispatcher) resolveRecipients(ctx context.Context, rep *store.Report, log zerolog.Logger) []store.Recipient {
	if rep.IsTeamReport && rep.TeamID != nil {
		members, err := d.deliveries.TeamRecipients(ctx, *rep.TeamID)
		if err != nil {
			log.Warn().Err(err).Msg("roster lookup failed, falling back to owner")
		} else if len(members) > 0 {
			return members
		}
	}

	owner, err := d.deliveries.OwnerRecipient(ctx, rep.UserID)
	if err != nil {
		log.Error().Err(err).Msg("owner lookup failed")
		return nil
	}
	return []store.Recipient{owner}
}

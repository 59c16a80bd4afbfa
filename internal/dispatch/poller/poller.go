// Package poller runs the dispatchers on a fixed interval for
// deployments without an external cron hitting the trigger endpoints.
package poller

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/recovery"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/reports"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/tasks"
)

// Leadership gates the loop so only one replica polls.
type Leadership interface {
	IsLeader() bool
}

// AlwaysLeader is the single-instance default.
type AlwaysLeader struct{}

func (AlwaysLeader) IsLeader() bool { return true }

type Poller struct {
	reports  *reports.Dispatcher
	tasks    *tasks.Processor
	sweeper  *recovery.StaleSweeper
	cleaner  *recovery.Cleaner
	leader   Leadership
	interval time.Duration
	log      zerolog.Logger
}

func New(
	reportsDispatcher *reports.Dispatcher,
	taskProcessor *tasks.Processor,
	sweeper *recovery.StaleSweeper,
	cleaner *recovery.Cleaner,
	leader Leadership,
	interval time.Duration,
	log zerolog.Logger,
) *Poller {
	if leader == nil {
		leader = AlwaysLeader{}
	}
	return &Poller{
		reports:  reportsDispatcher,
		tasks:    taskProcessor,
		sweeper:  sweeper,
		cleaner:  cleaner,
		leader:   leader,
		interval: interval,
		log:      log,
	}
}

// Run ticks until the context ends. Each tick sweeps stuck executions
// first so recovered slots are schedulable in the same pass, then runs
// both dispatchers. Retention cleanup rides along hourly.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	cleanup := time.NewTicker(time.Hour)
	defer cleanup.Stop()

	p.log.Info().Dur("interval", p.interval).Msg("poll loop started")

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("poll loop stopped")
			return
		case <-ticker.C:
			if !p.leader.IsLeader() {
				continue
			}
			p.tick(ctx)
		case <-cleanup.C:
			if !p.leader.IsLeader() {
				continue
			}
			if _, err := p.cleaner.Clean(ctx); err != nil {
				p.log.Error().Err(err).Msg("retention cleanup failed")
			}
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if res, err := p.sweeper.Sweep(ctx); err != nil {
		p.log.Error().Err(err).Msg("stale sweep failed")
	} else if res.Recovered > 0 {
		p.log.Info().Int("recovered", res.Recovered).Msg("stale sweep recovered executions")
	}

	if res, err := p.reports.Run(ctx, reports.Options{Trigger: "poll"}); err != nil {
		p.log.Error().Err(err).Msg("report poll run failed")
	} else {
		p.logRun("reports", res)
	}

	if res, err := p.tasks.Run(ctx, tasks.Options{Trigger: "poll"}); err != nil {
		p.log.Error().Err(err).Msg("task poll run failed")
	} else {
		p.logRun("tasks", res)
	}
}

func (p *Poller) logRun(name string, res *dispatch.Result) {
	if res.Processed == 0 && res.Failed == 0 && res.SkippedCount == 0 {
		return
	}
	p.log.Info().
		Str("dispatcher", name).
		Int("processed", res.Processed).
		Int("failed", res.Failed).
		Int("skipped", res.SkippedCount).
		Msg("poll run finished")
}

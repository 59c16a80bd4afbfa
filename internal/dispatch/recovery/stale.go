// Package recovery closes out the debris a crashed dispatcher leaves
// behind: executions stuck in running and terminal audit rows past
// their retention window.
package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RocketHubAI/rocket-dispatch/internal/domain/models"
	"github.com/RocketHubAI/rocket-dispatch/internal/pkg/metrics"
)

// ExecutionSweepStore is the slice of the execution repository the
// sweep needs.
type ExecutionSweepStore interface {
	FindStuckRunning(ctx context.Context, threshold time.Duration) ([]models.TaskExecution, error)
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}

// TaskClaimReleaser releases the parent task's lease so the recovered
// slot becomes schedulable again.
type TaskClaimReleaser interface {
	ReleaseClaim(ctx context.Context, id uuid.UUID) error
}

// SweepResult summarizes one recovery pass.
type SweepResult struct {
	Recovered int       `json:"recovered"`
	Failed    int       `json:"failed"`
	CheckedAt time.Time `json:"checkedAt"`
}

type StaleSweeper struct {
	executions ExecutionSweepStore
	tasks      TaskClaimReleaser
	threshold  time.Duration
	log        zerolog.Logger
}

func NewStaleSweeper(executions ExecutionSweepStore, tasks TaskClaimReleaser, threshold time.Duration, log zerolog.Logger) *StaleSweeper {
	return &StaleSweeper{executions: executions, tasks: tasks, threshold: threshold, log: log}
}

// Sweep closes executions stuck in running past the threshold and
// releases their parent task claims.
func (s *StaleSweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	result := &SweepResult{CheckedAt: time.Now().UTC()}

	stuck, err := s.executions.FindStuckRunning(ctx, s.threshold)
	if err != nil {
		return nil, fmt.Errorf("find stuck executions: %w", err)
	}
	if len(stuck) == 0 {
		return result, nil
	}

	s.log.Warn().Int("count", len(stuck)).Dur("threshold", s.threshold).Msg("recovering stuck executions")

	for _, exec := range stuck {
		log := s.log.With().
			Str("execution_id", exec.ID.String()).
			Str("task_id", exec.TaskID.String()).
			Logger()

		msg := fmt.Sprintf("execution exceeded %s in running state, closed by recovery sweep", s.threshold)
		if err := s.executions.MarkFailed(ctx, exec.ID, msg); err != nil {
			log.Error().Err(err).Msg("mark stuck execution failed")
			result.Failed++
			continue
		}

		if err := s.tasks.ReleaseClaim(ctx, exec.TaskID); err != nil {
			log.Error().Err(err).Msg("release parent claim failed")
		}

		metrics.StaleRecoveredTotal.Inc()
		result.Recovered++
		log.Info().Time("started_at", exec.StartedAt).Msg("stuck execution recovered")
	}

	return result, nil
}

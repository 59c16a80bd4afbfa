package repositories

import (
	"context"
	"time"

	"github.com/RocketHubAI/rocket-dispatch/internal/domain/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ExecutionRepository struct {
	*BaseRepository[models.TaskExecution]
}

func NewExecutionRepository(db *gorm.DB) *ExecutionRepository {
	return &ExecutionRepository{
		BaseRepository: NewBaseRepository[models.TaskExecution](db),
	}
}

func (r *ExecutionRepository) FindByTaskID(ctx context.Context, taskID uuid.UUID, opts *ListOptions) ([]models.TaskExecution, int64, error) {
	var executions []models.TaskExecution
	var total int64

	query := r.DB().WithContext(ctx).Where("task_id = ?", taskID)
	query.Model(&models.TaskExecution{}).Count(&total)

	if opts != nil {
		query = query.Offset(opts.Offset).Limit(opts.Limit).Order(opts.OrderBy + " " + opts.Order)
	}

	err := query.Find(&executions).Error
	return executions, total, err
}

// FindStuckRunning returns executions still marked running past the
// threshold. These are casualties of a crash mid-dispatch.
func (r *ExecutionRepository) FindStuckRunning(ctx context.Context, threshold time.Duration) ([]models.TaskExecution, error) {
	cutoff := time.Now().Add(-threshold)

	var executions []models.TaskExecution
	err := r.DB().WithContext(ctx).
		Where("status = ? AND started_at < ?", models.ExecutionStatusRunning, cutoff).
		Find(&executions).Error
	return executions, err
}

// MarkFailed closes a running execution. The status guard keeps the
// transition one-directional even if a sweep races the dispatcher.
func (r *ExecutionRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	now := time.Now()
	return r.DB().WithContext(ctx).Model(&models.TaskExecution{}).
		Where("id = ? AND status = ?", id, models.ExecutionStatusRunning).
		Updates(map[string]interface{}{
			"status":       models.ExecutionStatusFailed,
			"error":        errMsg,
			"completed_at": now,
		}).Error
}

func (r *ExecutionRepository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.DB().WithContext(ctx).
		Where("status IN ? AND created_at < ?", []string{models.ExecutionStatusSuccess, models.ExecutionStatusFailed}, cutoff).
		Delete(&models.TaskExecution{})
	return result.RowsAffected, result.Error
}

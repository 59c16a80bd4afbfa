package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RocketHubAI/rocket-dispatch/internal/domain/models"
)

// PostgresStore backs every dispatch store interface with gorm.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetDue(ctx context.Context, cutoff time.Time, limit int) ([]*Report, int, error) {
	due := func() *gorm.DB {
		return s.db.WithContext(ctx).
			Model(&models.ReportDefinition{}).
			Where("schedule_type = ? AND is_active = ? AND next_run_at IS NOT NULL AND next_run_at <= ?",
				models.ScheduleTypeScheduled, true, cutoff)
	}

	var total int64
	if err := due().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count due reports: %w", err)
	}

	var defs []models.ReportDefinition
	if err := due().Order("next_run_at ASC").Limit(limit).Find(&defs).Error; err != nil {
		return nil, 0, fmt.Errorf("select due reports: %w", err)
	}

	out := make([]*Report, 0, len(defs))
	for i := range defs {
		out = append(out, reportFromModel(&defs[i]))
	}
	return out, int(total), nil
}

func (s *PostgresStore) Claim(ctx context.Context, id uuid.UUID, lease time.Duration) (bool, error) {
	return s.claim(ctx, &models.ReportDefinition{}, id, lease)
}

func (s *PostgresStore) ReleaseClaim(ctx context.Context, id uuid.UUID) error {
	return s.releaseClaim(ctx, &models.ReportDefinition{}, id)
}

func (s *PostgresStore) RecordRun(ctx context.Context, id uuid.UUID, nextRun *time.Time) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"last_run_at":   now,
		"next_run_at":   nextRun,
		"claimed_until": nil,
	}
	if nextRun == nil {
		updates["is_active"] = false
	}
	err := s.db.WithContext(ctx).
		Model(&models.ReportDefinition{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("record report run: %w", err)
	}
	return nil
}

// TaskPostgresStore implements TaskStore and ExecutionStore on the same
// gorm handle. Split from PostgresStore so both can satisfy the Claim
// signature against their own table.
type TaskPostgresStore struct {
	db *gorm.DB
}

func NewTaskPostgresStore(db *gorm.DB) *TaskPostgresStore {
	return &TaskPostgresStore{db: db}
}

func (s *TaskPostgresStore) GetDue(ctx context.Context, cutoff time.Time, limit int) ([]*Task, int, error) {
	due := func() *gorm.DB {
		return s.db.WithContext(ctx).
			Model(&models.ScheduledTask{}).
			Where("status = ? AND next_run_at IS NOT NULL AND next_run_at <= ?",
				models.TaskStatusActive, cutoff)
	}

	var total int64
	if err := due().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count due tasks: %w", err)
	}

	var tasks []models.ScheduledTask
	if err := due().Order("next_run_at ASC").Limit(limit).Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("select due tasks: %w", err)
	}

	out := make([]*Task, 0, len(tasks))
	for i := range tasks {
		out = append(out, taskFromModel(&tasks[i]))
	}
	return out, int(total), nil
}

func (s *TaskPostgresStore) Claim(ctx context.Context, id uuid.UUID, lease time.Duration) (bool, error) {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(&models.ScheduledTask{}).
		Where("id = ? AND (claimed_until IS NULL OR claimed_until < ?)", id, now).
		Update("claimed_until", now.Add(lease))
	if res.Error != nil {
		return false, fmt.Errorf("claim task: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *TaskPostgresStore) ReleaseClaim(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Model(&models.ScheduledTask{}).
		Where("id = ?", id).
		Update("claimed_until", nil).Error
	if err != nil {
		return fmt.Errorf("release task claim: %w", err)
	}
	return nil
}

func (s *TaskPostgresStore) RecordRun(ctx context.Context, id uuid.UUID, nextRun *time.Time, status string) error {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).
		Model(&models.ScheduledTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"run_count":     gorm.Expr("run_count + 1"),
			"last_run_at":   now,
			"next_run_at":   nextRun,
			"status":        status,
			"claimed_until": nil,
		}).Error
	if err != nil {
		return fmt.Errorf("record task run: %w", err)
	}
	return nil
}

func (s *TaskPostgresStore) Reschedule(ctx context.Context, id uuid.UUID, nextRun *time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&models.ScheduledTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"next_run_at":   nextRun,
			"claimed_until": nil,
		}).Error
	if err != nil {
		return fmt.Errorf("reschedule task: %w", err)
	}
	return nil
}

func (s *TaskPostgresStore) Start(ctx context.Context, taskID, userID, teamID uuid.UUID) (uuid.UUID, error) {
	exec := models.TaskExecution{
		TaskID:    taskID,
		UserID:    userID,
		TeamID:    teamID,
		Status:    models.ExecutionStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&exec).Error; err != nil {
		return uuid.Nil, fmt.Errorf("start execution: %w", err)
	}
	return exec.ID, nil
}

func (s *TaskPostgresStore) Complete(ctx context.Context, id uuid.UUID, result string) error {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).
		Model(&models.TaskExecution{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         models.ExecutionStatusSuccess,
			"completed_at":   now,
			"result_message": result,
		}).Error
	if err != nil {
		return fmt.Errorf("complete execution: %w", err)
	}
	return nil
}

func (s *TaskPostgresStore) Fail(ctx context.Context, id uuid.UUID, errMsg string) error {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).
		Model(&models.TaskExecution{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.ExecutionStatusFailed,
			"completed_at": now,
			"error":        errMsg,
		}).Error
	if err != nil {
		return fmt.Errorf("fail execution: %w", err)
	}
	return nil
}

func (s *PostgresStore) claim(ctx context.Context, model interface{}, id uuid.UUID, lease time.Duration) (bool, error) {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND (claimed_until IS NULL OR claimed_until < ?)", id, now).
		Update("claimed_until", now.Add(lease))
	if res.Error != nil {
		return false, fmt.Errorf("claim: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *PostgresStore) releaseClaim(ctx context.Context, model interface{}, id uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Model(model).
		Where("id = ?", id).
		Update("claimed_until", nil).Error
	if err != nil {
		return fmt.Errorf("release claim: %w", err)
	}
	return nil
}

func (s *PostgresStore) TeamRecipients(ctx context.Context, teamID uuid.UUID) ([]Recipient, error) {
	var members []models.TeamMember
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("team_id = ?", teamID).
		Order("created_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("select team members: %w", err)
	}

	return recipientsFromMembers(members), nil
}

// recipientsFromMembers drops rows whose user failed to preload, so a
// deleted account never produces an empty recipient.
func recipientsFromMembers(members []models.TeamMember) []Recipient {
	out := make([]Recipient, 0, len(members))
	for i := range members {
		u := members[i].User
		if u == nil {
			continue
		}
		out = append(out, Recipient{UserID: u.ID, Email: u.Email, Name: u.DisplayName()})
	}
	return out
}

func (s *PostgresStore) OwnerRecipient(ctx context.Context, userID uuid.UUID) (Recipient, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		return Recipient{}, fmt.Errorf("select owner: %w", err)
	}
	return Recipient{UserID: u.ID, Email: u.Email, Name: u.DisplayName()}, nil
}

func (s *PostgresStore) InsertMessage(ctx context.Context, m *Message) (uuid.UUID, error) {
	row := models.ChatMessage{
		UserID:       m.UserID,
		TeamID:       m.TeamID,
		Channel:      m.Channel,
		Role:         models.MessageRoleAssistant,
		Content:      m.Content,
		SourceType:   m.SourceType,
		ReportID:     m.ReportID,
		TaskID:       m.TaskID,
		Title:        m.Title,
		Frequency:    m.Frequency,
		IsTeamReport: m.IsTeamReport,
		CreatedBy:    m.CreatedBy,
		DeliverAt:    m.DeliverAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return uuid.Nil, fmt.Errorf("insert message: %w", err)
	}
	return row.ID, nil
}

func (s *PostgresStore) InsertNotice(ctx context.Context, n *Notice) error {
	row := models.Notification{
		UserID: n.UserID,
		TaskID: n.TaskID,
		Title:  n.Title,
		Body:   n.Body,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func reportFromModel(m *models.ReportDefinition) *Report {
	return &Report{
		ID:             m.ID,
		UserID:         m.UserID,
		TeamID:         m.TeamID,
		CreatedBy:      m.CreatedBy,
		IsTeamReport:   m.IsTeamReport,
		Title:          m.Title,
		Prompt:         m.Prompt,
		Frequency:      m.Frequency,
		ScheduleDay:    m.ScheduleDay,
		ScheduleHour:   m.ScheduleHour,
		ScheduleMinute: m.ScheduleMin,
		Timezone:       m.Timezone,
		SendEmail:      m.SendEmail,
		NextRunAt:      m.NextRunAt,
		LastRunAt:      m.LastRunAt,
	}
}

func taskFromModel(m *models.ScheduledTask) *Task {
	t := &Task{
		ID:             m.ID,
		UserID:         m.UserID,
		TeamID:         m.TeamID,
		TaskType:       m.TaskType,
		Title:          m.Title,
		AIPrompt:       m.AIPrompt,
		Frequency:      m.Frequency,
		ScheduleDay:    m.ScheduleDay,
		ScheduleHour:   m.ScheduleHour,
		ScheduleMinute: m.ScheduleMin,
		Timezone:       m.Timezone,
		DeliveryMethod: m.DeliveryMethod,
		RunCount:       m.RunCount,
		MaxRuns:        m.MaxRuns,
		NextRunAt:      m.NextRunAt,
	}
	if m.Description != nil {
		t.Description = *m.Description
	}
	if m.CronExpression != nil {
		t.CronExpression = *m.CronExpression
	}
	return t
}

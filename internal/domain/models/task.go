package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScheduledTask is the generic task processor's unit of work: a
// reminder, research request, check-in or custom instruction executed
// on a recurrence rule. CronExpression, when set, overrides the named
// frequency with a full cron cadence.
type ScheduledTask struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;index;not null" json:"user_id"`
	TeamID         uuid.UUID      `gorm:"type:uuid;index;not null" json:"team_id"`
	TaskType       string         `gorm:"size:20;not null;default:custom" json:"task_type"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Description    *string        `gorm:"type:text" json:"description,omitempty"`
	AIPrompt       string         `gorm:"type:text;not null" json:"ai_prompt"`
	Frequency      string         `gorm:"size:20;not null" json:"frequency"`
	ScheduleDay    *int           `json:"schedule_day,omitempty"`
	ScheduleHour   int            `gorm:"default:9" json:"schedule_hour"`
	ScheduleMin    int            `gorm:"column:schedule_minute;default:0" json:"schedule_minute"`
	Timezone       string         `gorm:"size:50;default:UTC" json:"timezone"`
	CronExpression *string        `gorm:"size:100" json:"cron_expression,omitempty"`
	DeliveryMethod string         `gorm:"size:20;not null;default:conversation" json:"delivery_method"`
	Status         string         `gorm:"size:20;not null;default:active;index" json:"status"`
	RunCount       int            `gorm:"default:0" json:"run_count"`
	MaxRuns        *int           `json:"max_runs,omitempty"`
	NextRunAt      *time.Time     `gorm:"index" json:"next_run_at,omitempty"`
	LastRunAt      *time.Time     `json:"last_run_at,omitempty"`
	ClaimedUntil   *time.Time     `json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Owner User `gorm:"foreignKey:UserID" json:"-"`
	Team  Team `gorm:"foreignKey:TeamID" json:"-"`
}

func (ScheduledTask) TableName() string {
	return "scheduled_tasks"
}

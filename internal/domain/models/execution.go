package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskExecution is the append-only audit record: exactly one row per
// dispatch attempt. Status moves running -> success|failed and is never
// reopened.
type TaskExecution struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TaskID        uuid.UUID  `gorm:"type:uuid;index;not null" json:"task_id"`
	UserID        uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	TeamID        uuid.UUID  `gorm:"type:uuid;index;not null" json:"team_id"`
	Status        string     `gorm:"size:20;not null;default:running;index" json:"status"`
	StartedAt     time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ResultMessage *string    `gorm:"type:text" json:"result_message,omitempty"`
	Error         *string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`

	Task ScheduledTask `gorm:"foreignKey:TaskID" json:"-"`
}

func (TaskExecution) TableName() string {
	return "task_executions"
}

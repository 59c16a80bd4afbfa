package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportDefinition is the report scheduler's unit of work: a recurring
// AI-generated report owned by a user, optionally fanned out to a whole
// team. NextRunAt is mutated exclusively by the dispatcher after each
// confirmed run.
type ReportDefinition struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;index;not null" json:"user_id"`
	TeamID       *uuid.UUID     `gorm:"type:uuid;index" json:"team_id,omitempty"`
	CreatedBy    *uuid.UUID     `gorm:"type:uuid" json:"created_by,omitempty"`
	IsTeamReport bool           `gorm:"default:false" json:"is_team_report"`
	Title        string         `gorm:"size:255;not null" json:"title"`
	Prompt       string         `gorm:"type:text;not null" json:"prompt"`
	ScheduleType string         `gorm:"size:20;not null;default:scheduled" json:"schedule_type"`
	Frequency    string         `gorm:"size:20;not null" json:"frequency"`
	ScheduleDay  *int           `json:"schedule_day,omitempty"`
	ScheduleHour int            `gorm:"default:9" json:"schedule_hour"`
	ScheduleMin  int            `gorm:"column:schedule_minute;default:0" json:"schedule_minute"`
	Timezone     string         `gorm:"size:50;default:America/New_York" json:"timezone"`
	SendEmail    bool           `gorm:"default:false" json:"send_email"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	NextRunAt    *time.Time     `gorm:"index" json:"next_run_at,omitempty"`
	LastRunAt    *time.Time     `json:"last_run_at,omitempty"`
	ClaimedUntil *time.Time     `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Owner   User  `gorm:"foreignKey:UserID" json:"-"`
	Team    *Team `gorm:"foreignKey:TeamID" json:"-"`
	Creator *User `gorm:"foreignKey:CreatedBy" json:"-"`
}

func (ReportDefinition) TableName() string {
	return "report_definitions"
}

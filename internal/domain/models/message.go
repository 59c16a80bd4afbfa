package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is the durable proof of delivery: one row per recipient
// per successful run. A future DeliverAt keeps pre-generated content
// invisible until its scheduled delivery time.
type ChatMessage struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	TeamID       *uuid.UUID `gorm:"type:uuid;index" json:"team_id,omitempty"`
	Channel      string     `gorm:"size:20;not null;default:conversation;index" json:"channel"`
	Role         string     `gorm:"size:20;not null;default:assistant" json:"role"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	SourceType   string     `gorm:"size:30;index" json:"source_type"`
	ReportID     *uuid.UUID `gorm:"type:uuid;index" json:"report_id,omitempty"`
	TaskID       *uuid.UUID `gorm:"type:uuid;index" json:"task_id,omitempty"`
	Title        string     `gorm:"size:255" json:"title"`
	Frequency    string     `gorm:"size:20" json:"frequency"`
	IsTeamReport bool       `gorm:"default:false" json:"is_team_report"`
	CreatedBy    *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	DeliverAt    *time.Time `gorm:"index" json:"deliver_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// Notification is a push-style delivery queue row written for tasks
// whose delivery method is notification or both.
type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	TaskID    *uuid.UUID `gorm:"type:uuid;index" json:"task_id,omitempty"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Body      string     `gorm:"type:text" json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/lib/pq"
)

// JSON type for JSONB columns
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan JSON: not a byte slice")
	}
	return json.Unmarshal(bytes, j)
}

// StringArray type for text[] columns
type StringArray = pq.StringArray

// Schedule types
const (
	ScheduleTypeManual    = "manual"
	ScheduleTypeScheduled = "scheduled"
)

// Recurrence frequencies
const (
	FrequencyOnce     = "once"
	FrequencyDaily    = "daily"
	FrequencyWeekly   = "weekly"
	FrequencyBiweekly = "biweekly"
	FrequencyMonthly  = "monthly"
)

// Task types
const (
	TaskTypeReminder = "reminder"
	TaskTypeResearch = "research"
	TaskTypeReport   = "report"
	TaskTypeCheckIn  = "check_in"
	TaskTypeCustom   = "custom"
)

// Task status constants
const (
	TaskStatusActive    = "active"
	TaskStatusPaused    = "paused"
	TaskStatusCompleted = "completed"
	TaskStatusExpired   = "expired"
)

// Execution status constants
const (
	ExecutionStatusRunning = "running"
	ExecutionStatusSuccess = "success"
	ExecutionStatusFailed  = "failed"
)

// Delivery methods
const (
	DeliveryConversation = "conversation"
	DeliveryNotification = "notification"
	DeliveryBoth         = "both"
)

// Message roles
const (
	MessageRoleAssistant = "assistant"
)

// Message channels
const (
	ChannelConversation = "conversation"
	ChannelReports      = "reports"
)

// Message source tags
const (
	SourceScheduledReport = "scheduled_report"
	SourceScheduledTask   = "scheduled_task"
)

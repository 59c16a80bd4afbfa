// Package store gives the dispatchers a narrow, fake-able view of the
// database, decoupled from the gorm models.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Report is a due report definition as the dispatcher sees it.
type Report struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	TeamID         *uuid.UUID
	CreatedBy      *uuid.UUID
	IsTeamReport   bool
	Title          string
	Prompt         string
	Frequency      string
	ScheduleDay    *int
	ScheduleHour   int
	ScheduleMinute int
	Timezone       string
	SendEmail      bool
	NextRunAt      *time.Time
	LastRunAt      *time.Time
}

// Task is a due scheduled task as the processor sees it.
type Task struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	TeamID         uuid.UUID
	TaskType       string
	Title          string
	Description    string
	AIPrompt       string
	Frequency      string
	ScheduleDay    *int
	ScheduleHour   int
	ScheduleMinute int
	Timezone       string
	CronExpression string
	DeliveryMethod string
	RunCount       int
	MaxRuns        *int
	NextRunAt      *time.Time
}

// Recipient is one addressable delivery target, resolved at run time.
type Recipient struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

// Message is one delivery row to insert.
type Message struct {
	UserID       uuid.UUID
	TeamID       *uuid.UUID
	Channel      string
	Content      string
	SourceType   string
	ReportID     *uuid.UUID
	TaskID       *uuid.UUID
	Title        string
	Frequency    string
	IsTeamReport bool
	CreatedBy    *uuid.UUID
	DeliverAt    *time.Time
}

// Notice is one push-style notification row to insert.
type Notice struct {
	UserID uuid.UUID
	TaskID *uuid.UUID
	Title  string
	Body   string
}

type ReportStore interface {
	// GetDue fetches active scheduled reports with next_run_at at or
	// before the cutoff, oldest-due first, capped at limit. The second
	// return is the total number of due rows, so callers can report
	// how many fell past the cap.
	GetDue(ctx context.Context, cutoff time.Time, limit int) ([]*Report, int, error)

	// Claim leases an item for processing. The conditional update wins
	// on exactly one concurrent invocation; false means another run
	// already holds the item.
	Claim(ctx context.Context, id uuid.UUID, lease time.Duration) (bool, error)

	// ReleaseClaim clears the lease without touching schedule state,
	// leaving the item due for the next tick.
	ReleaseClaim(ctx context.Context, id uuid.UUID) error

	// RecordRun marks a confirmed run: last_run_at now, next_run_at
	// advanced, lease cleared. A nil nextRun deactivates the
	// definition (one-shot schedules).
	RecordRun(ctx context.Context, id uuid.UUID, nextRun *time.Time) error
}

type TaskStore interface {
	GetDue(ctx context.Context, cutoff time.Time, limit int) ([]*Task, int, error)
	Claim(ctx context.Context, id uuid.UUID, lease time.Duration) (bool, error)
	ReleaseClaim(ctx context.Context, id uuid.UUID) error

	// RecordRun marks a successful dispatch: run_count incremented,
	// last_run_at set, next_run_at and status updated, lease cleared.
	// A nil nextRun writes NULL (terminal).
	RecordRun(ctx context.Context, id uuid.UUID, nextRun *time.Time, status string) error

	// Reschedule advances next_run_at without counting a run; used by
	// the skip_slot failure policy.
	Reschedule(ctx context.Context, id uuid.UUID, nextRun *time.Time) error
}

type ExecutionStore interface {
	// Start opens the audit row for one dispatch attempt.
	Start(ctx context.Context, taskID, userID, teamID uuid.UUID) (uuid.UUID, error)

	// Complete closes the attempt as success with the result attached.
	Complete(ctx context.Context, id uuid.UUID, result string) error

	// Fail closes the attempt with an error description.
	Fail(ctx context.Context, id uuid.UUID, errMsg string) error
}

type DeliveryStore interface {
	// TeamRecipients resolves the roster in iteration order.
	TeamRecipients(ctx context.Context, teamID uuid.UUID) ([]Recipient, error)

	// OwnerRecipient resolves the singleton owner set.
	OwnerRecipient(ctx context.Context, userID uuid.UUID) (Recipient, error)

	InsertMessage(ctx context.Context, m *Message) (uuid.UUID, error)
	InsertNotice(ctx context.Context, n *Notice) error
}

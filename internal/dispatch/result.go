// Package dispatch holds the run result contract shared by the report
// dispatcher and the task processor.
package dispatch

import "time"

// Item statuses reported per processed entry.
const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// ItemResult describes the outcome of one due item.
type ItemResult struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	Detail     string `json:"detail,omitempty"`
	Recipients int    `json:"recipients,omitempty"`
}

// Result is the outcome of one dispatcher run. Success reflects the
// run itself: a run that selected its batch and worked through it is
// successful even when individual items failed.
type Result struct {
	Success      bool         `json:"success"`
	Processed    int          `json:"processed"`
	Failed       int          `json:"failed"`
	SkippedCount int          `json:"skippedCount"`
	Results      []ItemResult `json:"results"`
	CheckedAt    time.Time    `json:"checkedAt"`
}

func NewResult(checkedAt time.Time) *Result {
	return &Result{Success: true, Results: []ItemResult{}, CheckedAt: checkedAt}
}

func (r *Result) Add(item ItemResult) {
	r.Results = append(r.Results, item)
	switch item.Status {
	case StatusDelivered:
		r.Processed++
	case StatusFailed:
		r.Failed++
	case StatusSkipped:
		r.SkippedCount++
	}
}

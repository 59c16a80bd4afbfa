// Package recurrence computes the next due instant for a scheduled
// work item. One IANA-timezone implementation serves both dispatchers;
// DST transitions are handled by the tz database, so a rule scheduled
// for 9:00 AM Eastern resolves the UTC offset of the target date, not
// of "now".
package recurrence

import (
	"fmt"
	"time"

	cronlib "github.com/robfig/cron/v3"
)

// Frequencies accepted by Next. "once" yields no next occurrence.
const (
	Once     = "once"
	Daily    = "daily"
	Weekly   = "weekly"
	Biweekly = "biweekly"
	Monthly  = "monthly"
)

var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow,
)

// Rule describes a recurrence. Day means weekday (0=Sunday..6=Saturday)
// for weekly/biweekly rules and day-of-month (1..31, clamped to the
// target month) for monthly rules. CronExpression, when non-empty,
// overrides the named frequency entirely.
type Rule struct {
	Frequency      string
	Day            *int
	Hour           int
	Minute         int
	Timezone       string
	CronExpression string
}

// Location resolves the rule's zone, falling back to UTC for unknown
// identifiers.
func (r Rule) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Next returns the next occurrence strictly after now as a UTC instant,
// or nil for one-time rules. It is pure and idempotent: the same now
// and rule always produce the same answer.
func Next(now time.Time, r Rule) (*time.Time, error) {
	loc := r.Location()

	if r.CronExpression != "" {
		sched, err := cronParser.Parse(r.CronExpression)
		if err != nil {
			return nil, fmt.Errorf("invalid cron expression %q: %w", r.CronExpression, err)
		}
		next := sched.Next(now.In(loc)).UTC()
		return &next, nil
	}

	local := now.In(loc)

	var next time.Time
	switch r.Frequency {
	case Once:
		return nil, nil
	case Daily:
		next = nextDaily(local, r, loc)
	case Weekly:
		next = nextWeekly(local, r, loc, 7)
	case Biweekly:
		next = nextWeekly(local, r, loc, 14)
	case Monthly:
		next = nextMonthly(local, r, loc)
	default:
		return nil, fmt.Errorf("unknown frequency %q", r.Frequency)
	}

	// Safety net: never hand back an instant at or before now.
	if !next.After(local) {
		switch r.Frequency {
		case Monthly:
			next = addMonthClamped(next, r.dayOrDefault(local), loc)
		case Weekly:
			next = next.AddDate(0, 0, 7)
		case Biweekly:
			next = next.AddDate(0, 0, 14)
		default:
			next = next.AddDate(0, 0, 1)
		}
	}

	utc := next.UTC()
	return &utc, nil
}

func (r Rule) dayOrDefault(local time.Time) int {
	if r.Day != nil {
		return *r.Day
	}
	return local.Day()
}

func nextDaily(local time.Time, r Rule, loc *time.Location) time.Time {
	target := time.Date(local.Year(), local.Month(), local.Day(), r.Hour, r.Minute, 0, 0, loc)
	if !target.After(local) {
		target = time.Date(local.Year(), local.Month(), local.Day()+1, r.Hour, r.Minute, 0, 0, loc)
	}
	return target
}

func nextWeekly(local time.Time, r Rule, loc *time.Location, period int) time.Time {
	weekday := int(local.Weekday())
	if r.Day != nil {
		weekday = *r.Day
	}

	delta := (weekday - int(local.Weekday()) + 7) % 7
	target := time.Date(local.Year(), local.Month(), local.Day()+delta, r.Hour, r.Minute, 0, 0, loc)

	// Zero delta with the time already passed today means a full period.
	if !target.After(local) {
		target = time.Date(local.Year(), local.Month(), local.Day()+delta+period, r.Hour, r.Minute, 0, 0, loc)
	}
	return target
}

func nextMonthly(local time.Time, r Rule, loc *time.Location) time.Time {
	dom := r.dayOrDefault(local)

	target := monthTarget(local.Year(), local.Month(), dom, r.Hour, r.Minute, loc)
	if !target.After(local) {
		target = monthTarget(local.Year(), local.Month()+1, dom, r.Hour, r.Minute, loc)
	}
	return target
}

// monthTarget builds the due instant for a month, clamping the
// configured day to the last valid day of that month (day 31 in April
// becomes April 30, never a rollover into May).
func monthTarget(year int, month time.Month, dom, hour, minute int, loc *time.Location) time.Time {
	// Normalize the month first so clamping uses the right calendar.
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	if days := daysIn(first.Year(), first.Month()); dom > days {
		dom = days
	}
	return time.Date(first.Year(), first.Month(), dom, hour, minute, 0, 0, loc)
}

func addMonthClamped(t time.Time, dom int, loc *time.Location) time.Time {
	return monthTarget(t.Year(), t.Month()+1, dom, t.Hour(), t.Minute(), loc)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Validate checks that a rule is well formed without computing anything.
func Validate(r Rule) error {
	if r.CronExpression != "" {
		if _, err := cronParser.Parse(r.CronExpression); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", r.CronExpression, err)
		}
		return nil
	}

	switch r.Frequency {
	case Once, Daily, Weekly, Biweekly, Monthly:
	default:
		return fmt.Errorf("unknown frequency %q", r.Frequency)
	}

	if r.Hour < 0 || r.Hour > 23 {
		return fmt.Errorf("hour out of range: %d", r.Hour)
	}
	if r.Minute < 0 || r.Minute > 59 {
		return fmt.Errorf("minute out of range: %d", r.Minute)
	}

	if r.Day != nil {
		switch r.Frequency {
		case Weekly, Biweekly:
			if *r.Day < 0 || *r.Day > 6 {
				return fmt.Errorf("weekday out of range: %d", *r.Day)
			}
		case Monthly:
			if *r.Day < 1 || *r.Day > 31 {
				return fmt.Errorf("day of month out of range: %d", *r.Day)
			}
		}
	}

	return nil
}

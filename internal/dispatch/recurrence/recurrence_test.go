package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestNextIsIdempotentAndStrictlyAfter(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	rules := []Rule{
		{Frequency: Daily, Hour: 9, Minute: 0, Timezone: "America/New_York"},
		{Frequency: Weekly, Day: intPtr(1), Hour: 9, Minute: 0, Timezone: "America/New_York"},
		{Frequency: Biweekly, Day: intPtr(3), Hour: 17, Minute: 30, Timezone: "Europe/London"},
		{Frequency: Monthly, Day: intPtr(15), Hour: 8, Minute: 0, Timezone: "UTC"},
		{Frequency: Monthly, Day: intPtr(31), Hour: 23, Minute: 59, Timezone: "Asia/Tokyo"},
	}

	for _, rule := range rules {
		first, err := Next(now, rule)
		require.NoError(t, err)
		require.NotNil(t, first)

		second, err := Next(now, rule)
		require.NoError(t, err)
		require.NotNil(t, second)

		assert.True(t, first.Equal(*second), "same now and rule must produce the same instant")
		assert.True(t, first.After(now), "next occurrence must be strictly after now")
	}
}

func TestNextDaily(t *testing.T) {
	eastern := mustZone(t, "America/New_York")

	t.Run("before today's time targets today", func(t *testing.T) {
		now := time.Date(2025, 6, 16, 7, 0, 0, 0, eastern)
		next, err := Next(now, Rule{Frequency: Daily, Hour: 9, Timezone: "America/New_York"})
		require.NoError(t, err)

		want := time.Date(2025, 6, 16, 9, 0, 0, 0, eastern)
		assert.True(t, next.Equal(want))
	})

	t.Run("after today's time targets tomorrow", func(t *testing.T) {
		now := time.Date(2025, 6, 16, 9, 5, 0, 0, eastern)
		next, err := Next(now, Rule{Frequency: Daily, Hour: 9, Timezone: "America/New_York"})
		require.NoError(t, err)

		want := time.Date(2025, 6, 17, 9, 0, 0, 0, eastern)
		assert.True(t, next.Equal(want))
	})
}

func TestNextWeekly(t *testing.T) {
	eastern := mustZone(t, "America/New_York")

	// Monday June 2, 2025, 09:05 Eastern; rule says Monday 09:00.
	now := time.Date(2025, 6, 2, 9, 5, 0, 0, eastern)
	next, err := Next(now, Rule{Frequency: Weekly, Day: intPtr(1), Hour: 9, Timezone: "America/New_York"})
	require.NoError(t, err)

	// Zero day-delta with the time already passed pushes a full week.
	want := time.Date(2025, 6, 9, 9, 0, 0, 0, eastern)
	assert.True(t, next.Equal(want))
	assert.Equal(t, time.Monday, next.In(eastern).Weekday())
}

func TestNextWeeklyForwardDelta(t *testing.T) {
	eastern := mustZone(t, "America/New_York")

	// Tuesday targeting Friday lands this week.
	now := time.Date(2025, 6, 3, 12, 0, 0, 0, eastern)
	next, err := Next(now, Rule{Frequency: Weekly, Day: intPtr(5), Hour: 9, Timezone: "America/New_York"})
	require.NoError(t, err)

	want := time.Date(2025, 6, 6, 9, 0, 0, 0, eastern)
	assert.True(t, next.Equal(want))
}

func TestNextBiweekly(t *testing.T) {
	now := time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC) // Wednesday
	next, err := Next(now, Rule{Frequency: Biweekly, Day: intPtr(3), Hour: 9, Timezone: "UTC"})
	require.NoError(t, err)

	// Same weekday, time passed: two full weeks out.
	want := time.Date(2025, 6, 18, 9, 0, 0, 0, time.UTC)
	assert.True(t, next.Equal(want))
}

func TestNextMonthlyClampsToShortMonth(t *testing.T) {
	// Day 31 scheduled; April has 30 days.
	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	next, err := Next(now, Rule{Frequency: Monthly, Day: intPtr(31), Hour: 9, Timezone: "UTC"})
	require.NoError(t, err)

	want := time.Date(2025, 4, 30, 9, 0, 0, 0, time.UTC)
	assert.True(t, next.Equal(want), "got %v", next)
}

func TestNextMonthlyRollsToNextMonth(t *testing.T) {
	// Clamped due time already passed this month.
	now := time.Date(2025, 4, 30, 10, 0, 0, 0, time.UTC)
	next, err := Next(now, Rule{Frequency: Monthly, Day: intPtr(31), Hour: 9, Timezone: "UTC"})
	require.NoError(t, err)

	want := time.Date(2025, 5, 31, 9, 0, 0, 0, time.UTC)
	assert.True(t, next.Equal(want), "got %v", next)
}

func TestNextUsesTargetDateDSTOffset(t *testing.T) {
	eastern := mustZone(t, "America/New_York")

	// March 8, 2025 is the day before the US spring-forward transition.
	// The next 9:00 AM Eastern falls on March 9 in EDT (UTC-4), so the
	// UTC instant must be 13:00, not the EST-derived 14:00.
	now := time.Date(2025, 3, 8, 12, 0, 0, 0, eastern)
	next, err := Next(now, Rule{Frequency: Daily, Hour: 9, Timezone: "America/New_York"})
	require.NoError(t, err)

	assert.Equal(t, 13, next.UTC().Hour())
	assert.Equal(t, 9, next.In(eastern).Hour())
}

func TestNextOnceReturnsNil(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	next, err := Next(now, Rule{Frequency: Once, Hour: 9})
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestNextCronOverride(t *testing.T) {
	now := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC) // Tuesday
	next, err := Next(now, Rule{
		Frequency:      Daily, // ignored when a cron expression is set
		Timezone:       "UTC",
		CronExpression: "0 9 * * 1",
	})
	require.NoError(t, err)

	want := time.Date(2025, 6, 9, 9, 0, 0, 0, time.UTC) // next Monday
	assert.True(t, next.Equal(want), "got %v", next)
}

func TestNextUnknownTimezoneFallsBackToUTC(t *testing.T) {
	now := time.Date(2025, 6, 16, 7, 0, 0, 0, time.UTC)
	next, err := Next(now, Rule{Frequency: Daily, Hour: 9, Timezone: "Not/AZone"})
	require.NoError(t, err)

	want := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	assert.True(t, next.Equal(want))
}

func TestNextUnknownFrequency(t *testing.T) {
	now := time.Now()
	_, err := Next(now, Rule{Frequency: "hourly"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Rule{Frequency: Daily, Hour: 9}))
	assert.NoError(t, Validate(Rule{Frequency: Weekly, Day: intPtr(6), Hour: 23, Minute: 59}))
	assert.NoError(t, Validate(Rule{CronExpression: "*/5 * * * *"}))

	assert.Error(t, Validate(Rule{Frequency: "hourly"}))
	assert.Error(t, Validate(Rule{Frequency: Daily, Hour: 24}))
	assert.Error(t, Validate(Rule{Frequency: Weekly, Day: intPtr(7), Hour: 9}))
	assert.Error(t, Validate(Rule{Frequency: Monthly, Day: intPtr(0), Hour: 9}))
	assert.Error(t, Validate(Rule{CronExpression: "not a cron"}))
}

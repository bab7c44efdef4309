package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsScheduledDay_MatchesIntervalFromStart(t *testing.T) {
	assert.True(t, IsScheduledDay(100, 100, 4))
	assert.True(t, IsScheduledDay(104, 100, 4))
	assert.False(t, IsScheduledDay(102, 100, 4))
}

func TestIsScheduledDay_BeforeStartDateNeverFires(t *testing.T) {
	assert.False(t, IsScheduledDay(50, 100, 4))
}

func TestIsScheduledDay_ZeroIntervalNeverFires(t *testing.T) {
	assert.False(t, IsScheduledDay(104, 100, 0))
}

func TestSkippedByRuntime(t *testing.T) {
	assert.True(t, SkippedByRuntime(3000, 1))
	assert.False(t, SkippedByRuntime(3000, 0))
	assert.False(t, SkippedByRuntime(500, 1000))
}

func TestWindowStart_SameCalendarDayAtGivenOffset(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 5, 14, 22, 0, 0, loc)
	want := time.Date(2026, 3, 5, 6, 30, 0, 0, loc)
	assert.Equal(t, want, WindowStart(now, 6*3600+30*60))
}

func TestWindowStart_NormalizesOutOfRangeSeconds(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 5, 0, 0, 0, 0, loc)
	want := time.Date(2026, 3, 5, 0, 0, 15, 0, loc)
	assert.Equal(t, want, WindowStart(now, 86400+15))
}

func TestDayNumber_SameDayDifferentTimes(t *testing.T) {
	loc := time.UTC
	morning := time.Date(2026, 3, 5, 1, 0, 0, 0, loc)
	evening := time.Date(2026, 3, 5, 23, 0, 0, 0, loc)
	assert.Equal(t, DayNumber(morning), DayNumber(evening))

	nextDay := time.Date(2026, 3, 6, 0, 0, 1, 0, loc)
	assert.Equal(t, DayNumber(morning)+1, DayNumber(nextDay))
}

// Package schedule holds the pure date-arithmetic rules behind the test-run
// scheduler (spec.md §4.5), kept free of any wall-clock-alignment mechanism
// so it can be tested without a clock or a cron library.
package schedule

import (
	"time"
)

// DayNumber returns the Unix-day number (days since epoch) for the calendar
// date of t, in t's own location.
func DayNumber(t time.Time) int64 {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return midnight.Unix() / 86400
}

// IsScheduledDay reports whether day d is a multiple of interval days after
// startDate, per "(d - StartDate)/86400 is a non-negative integer multiple
// of Interval" in spec.md §4.5. startDate and d are both Unix-day numbers.
func IsScheduledDay(d, startDate int64, intervalDays int) bool {
	if intervalDays <= 0 {
		return false
	}
	delta := d - startDate
	if delta < 0 {
		return false
	}
	return delta%int64(intervalDays) == 0
}

// SkippedByRuntime reports whether yesterday's accumulated runtime exceeds
// skipRuntimeSeconds, per spec.md §4.5's SkipRuntime rule. A skipRuntime of
// 0 never skips (the setting is disabled).
func SkippedByRuntime(yesterdayRuntimeSeconds, skipRuntimeSeconds int) bool {
	if skipRuntimeSeconds <= 0 {
		return false
	}
	return yesterdayRuntimeSeconds > skipRuntimeSeconds
}

// WindowStart returns the local instant startTimeSeconds after midnight on
// now's calendar date, the one wall-clock instant a day's test-run window
// can begin. Re-deriving it from now on every call (rather than latching a
// fired/not-fired flag) is what lets a same-day settings change take effect
// on the very next evaluation.
func WindowStart(now time.Time, startTimeSeconds int) time.Time {
	startTimeSeconds = ((startTimeSeconds % 86400) + 86400) % 86400
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return midnight.Add(time.Duration(startTimeSeconds) * time.Second)
}

package main

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/offgrid-systems/gensetctl/src/schedule"
)

// TestRunEvaluator implements the `testrun` condition from spec.md §4.5: on
// a scheduled day, a window opens at StartTime and stays active until
// Duration elapses (or, with RunTillBatteryFull, until SoC reaches 100%).
// Every field read here is re-derived from (now, settings) on each
// Evaluate call — there is no latched "already fired today" flag — so a
// settings change (e.g. Interval) takes effect on the very next tick
// instead of waiting for tomorrow's window.
type TestRunEvaluator struct {
	Battery func() string

	active bool
}

func NewTestRunEvaluator(battery func() string) *TestRunEvaluator {
	return &TestRunEvaluator{Battery: battery}
}

func (e *TestRunEvaluator) Kind() ConditionKind { return KindTestRun }

func (e *TestRunEvaluator) Reset() {
	e.active = false
}

func (e *TestRunEvaluator) Evaluate(now time.Time, snap *BusSnapshot, set SettingsView, quietHoursActive bool) Vote {
	enabled, _ := set.Bool("TestRun.Enabled")
	if !enabled {
		return e.stop()
	}

	startTimeSeconds, _ := set.Int("TestRun.StartTime")
	windowStart := schedule.WindowStart(now, startTimeSeconds)
	if now.Before(windowStart) {
		return e.stop()
	}

	startDate, _ := set.Int("TestRun.StartDate")
	interval, _ := set.Int("TestRun.Interval")
	day := schedule.DayNumber(now)
	if !schedule.IsScheduledDay(day, int64(startDate), interval) {
		return e.stop()
	}

	skipRuntime, _ := set.Int("TestRun.SkipRuntime")
	if schedule.SkippedByRuntime(yesterdayRuntimeSeconds(set, day), skipRuntime) {
		return e.stop()
	}

	runTillFull, _ := set.Bool("TestRun.RunTillBatteryFull")
	if runTillFull {
		if soc, ok := snap.Float(pathBatterySoc(e.Battery())); ok && soc >= 100 {
			return e.stop()
		}
		return e.start()
	}

	duration, _ := set.Int("TestRun.Duration")
	if now.Sub(windowStart) >= time.Duration(duration)*time.Second {
		return e.stop()
	}
	return e.start()
}

func (e *TestRunEvaluator) start() Vote {
	e.active = true
	return VoteStart
}

func (e *TestRunEvaluator) stop() Vote {
	if !e.active {
		return VoteIndifferent
	}
	e.active = false
	return VoteStop
}

// yesterdayRuntimeSeconds reads the previous day's accumulated runtime out
// of the AccumulatedDaily JSON history (see statistics.go), keyed by
// decimal-string midnight Unix timestamps.
func yesterdayRuntimeSeconds(set SettingsView, today int64) int {
	raw, ok := set.String("AccumulatedDaily")
	if !ok || raw == "" {
		return 0
	}
	var history map[string]int64
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return 0
	}
	yesterdayMidnight := (today - 1) * 86400
	return int(history[strconv.FormatInt(yesterdayMidnight, 10)])
}

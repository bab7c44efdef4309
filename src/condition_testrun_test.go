package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/offgrid-systems/gensetctl/src/schedule"
)

// fakeSettings is a minimal in-memory SettingsView, enough to drive one
// evaluator without the round-trip machinery of a real SettingsStore.
type fakeSettings struct {
	floats map[string]float64
	ints   map[string]int
	bools  map[string]bool
	strs   map[string]string
}

func (f *fakeSettings) Float(name string) (float64, bool) { v, ok := f.floats[name]; return v, ok }
func (f *fakeSettings) Int(name string) (int, bool)       { v, ok := f.ints[name]; return v, ok }
func (f *fakeSettings) Bool(name string) (bool, bool)     { v, ok := f.bools[name]; return v, ok }
func (f *fakeSettings) String(name string) (string, bool) { v, ok := f.strs[name]; return v, ok }

func secondsSinceMidnight(now time.Time) int {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return int(now.Sub(midnight).Seconds())
}

func TestTestRunEvaluator_IntervalChangeTakesEffectOnSameTick(t *testing.T) {
	now := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	startDate := schedule.DayNumber(now) - 1 // yesterday, so Interval=2 misses today

	settings := &fakeSettings{
		bools: map[string]bool{"TestRun.Enabled": true},
		ints: map[string]int{
			"TestRun.StartDate": int(startDate),
			"TestRun.StartTime": secondsSinceMidnight(now),
			"TestRun.Interval":  2,
			"TestRun.Duration":  600,
		},
	}

	e := NewTestRunEvaluator(func() string { return "battery0" })
	snap := NewBusSnapshot()

	vote := e.Evaluate(now, snap, settings, false)
	assert.Equal(t, VoteIndifferent, vote, "today is not a scheduled day at Interval=2")

	// No time advance: only the setting changes.
	settings.ints["TestRun.Interval"] = 1
	vote = e.Evaluate(now, snap, settings, false)
	assert.Equal(t, VoteStart, vote, "an Interval change must take effect on the very next evaluation")
}

func TestTestRunEvaluator_StopsOnceDurationElapses(t *testing.T) {
	now := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	settings := &fakeSettings{
		bools: map[string]bool{"TestRun.Enabled": true},
		ints: map[string]int{
			"TestRun.StartDate": int(schedule.DayNumber(now)),
			"TestRun.StartTime": secondsSinceMidnight(now),
			"TestRun.Interval":  1,
			"TestRun.Duration":  600,
		},
	}

	e := NewTestRunEvaluator(func() string { return "battery0" })
	snap := NewBusSnapshot()

	assert.Equal(t, VoteStart, e.Evaluate(now, snap, settings, false))
	assert.Equal(t, VoteStart, e.Evaluate(now.Add(5*time.Minute), snap, settings, false))
	assert.Equal(t, VoteStop, e.Evaluate(now.Add(11*time.Minute), snap, settings, false))
}

func TestTestRunEvaluator_RunTillBatteryFullStopsAtFullSoc(t *testing.T) {
	now := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	settings := &fakeSettings{
		bools: map[string]bool{
			"TestRun.Enabled":             true,
			"TestRun.RunTillBatteryFull": true,
		},
		ints: map[string]int{
			"TestRun.StartDate": int(schedule.DayNumber(now)),
			"TestRun.StartTime": secondsSinceMidnight(now),
			"TestRun.Interval":  1,
		},
	}

	e := NewTestRunEvaluator(func() string { return "battery0" })
	snap := NewBusSnapshot()
	snap.SetFloat(pathBatterySoc("battery0"), 80, now)

	assert.Equal(t, VoteStart, e.Evaluate(now, snap, settings, false))

	snap.SetFloat(pathBatterySoc("battery0"), 100, now)
	assert.Equal(t, VoteStop, e.Evaluate(now, snap, settings, false))
}

func TestTestRunEvaluator_DisabledNeverStarts(t *testing.T) {
	now := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	settings := &fakeSettings{
		bools: map[string]bool{"TestRun.Enabled": false},
		ints: map[string]int{
			"TestRun.StartDate": int(schedule.DayNumber(now)),
			"TestRun.StartTime": secondsSinceMidnight(now),
			"TestRun.Interval":  1,
			"TestRun.Duration":  600,
		},
	}

	e := NewTestRunEvaluator(func() string { return "battery0" })
	snap := NewBusSnapshot()
	assert.Equal(t, VoteIndifferent, e.Evaluate(now, snap, settings, false))
}

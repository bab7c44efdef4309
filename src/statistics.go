package main

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/offgrid-systems/gensetctl/src/schedule"
)

// maxHistoryDays is the retention window for AccumulatedDaily, per
// spec.md's P5 ("retains at most 30 entries").
const maxHistoryDays = 30

// Statistics accumulates daily and lifetime generator runtime, per
// spec.md §4.6, grounded on the teacher's cleanupTicker retention-window
// pattern in stats.go (there: drop readings older than 15 minutes, keep at
// least one; here: drop AccumulatedDaily entries beyond the most recent 30)
// and on battery_soc_worker.go's "derive a value from accumulated counters,
// publish on change" shape.
type Statistics struct {
	day             int64 // Unix-day number of the currently accumulating bucket
	dailyRuntimeS   int64
	lifetimeRuntimeS int64
	history         map[int64]int64 // midnight unix timestamp -> seconds
	lastTick        time.Time
}

// NewStatistics seeds Statistics from the persisted settings values (the
// JSON history string and the lifetime counter), so a restart does not
// lose prior accumulation.
func NewStatistics(now time.Time, historyJSON string, lifetimeRuntimeS int64) *Statistics {
	s := &Statistics{
		day:              schedule.DayNumber(now),
		lifetimeRuntimeS: lifetimeRuntimeS,
		history:          map[int64]int64{},
		lastTick:         now,
	}
	var raw map[string]int64
	if err := json.Unmarshal([]byte(historyJSON), &raw); err == nil {
		for k, v := range raw {
			ts, err := strconv.ParseInt(k, 10, 64)
			if err != nil {
				continue
			}
			s.history[ts] = v
		}
	}
	return s
}

// Tick advances the accumulators by the elapsed wall-clock delta since the
// previous tick, crediting it to daily/lifetime runtime only while running.
// Crossing local midnight rolls the prior day's total into history and
// trims it to the retention window, per spec.md's daily-reset invariant.
func (s *Statistics) Tick(now time.Time, running bool) {
	delta := now.Sub(s.lastTick)
	s.lastTick = now
	if delta < 0 {
		delta = 0
	}

	today := schedule.DayNumber(now)
	if today != s.day {
		s.rolloverTo(today)
	}

	if running {
		seconds := int64(delta.Seconds())
		s.dailyRuntimeS += seconds
		s.lifetimeRuntimeS += seconds
	}
}

func (s *Statistics) rolloverTo(today int64) {
	midnight := s.day * 86400
	s.history[midnight] = s.dailyRuntimeS
	s.trimHistory()

	s.day = today
	s.dailyRuntimeS = 0
}

// trimHistory keeps only the most recent maxHistoryDays entries.
func (s *Statistics) trimHistory() {
	if len(s.history) <= maxHistoryDays {
		return
	}
	keys := make([]int64, 0, len(s.history))
	for k := range s.history {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	drop := len(keys) - maxHistoryDays
	for _, k := range keys[:drop] {
		delete(s.history, k)
	}
}

// DailyRuntimeSeconds is the current day's accumulated runtime.
func (s *Statistics) DailyRuntimeSeconds() int64 { return s.dailyRuntimeS }

// LifetimeRuntimeSeconds is the monotonically increasing lifetime counter.
func (s *Statistics) LifetimeRuntimeSeconds() int64 { return s.lifetimeRuntimeS }

// YesterdayRuntimeSeconds returns the previous calendar day's total from the
// retained history. The test-run evaluator does not call it; it reads the
// same figure from the persisted AccumulatedDaily setting.
func (s *Statistics) YesterdayRuntimeSeconds(now time.Time) int64 {
	yesterday := (schedule.DayNumber(now) - 1) * 86400
	return s.history[yesterday]
}

// HistoryJSON serializes the retained history bit-exact per spec.md §9: a
// mapping from decimal string of midnight Unix timestamp to integer
// seconds, using encoding/json exactly as the teacher does for its own
// discovery/calibration payloads.
func (s *Statistics) HistoryJSON() string {
	raw := make(map[string]int64, len(s.history))
	for ts, seconds := range s.history {
		raw[strconv.FormatInt(ts, 10)] = seconds
	}
	b, _ := json.Marshal(raw)
	return string(b)
}

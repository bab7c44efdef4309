package main

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatistics_AccumulatesWhileRunning(t *testing.T) {
	now := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	stats := NewStatistics(now, "{}", 0)

	stats.Tick(now.Add(30*time.Second), true)
	assert.Equal(t, int64(30), stats.DailyRuntimeSeconds())
	assert.Equal(t, int64(30), stats.LifetimeRuntimeSeconds())
}

func TestStatistics_DoesNotAccumulateWhileStopped(t *testing.T) {
	now := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	stats := NewStatistics(now, "{}", 0)

	stats.Tick(now.Add(time.Minute), false)
	assert.Equal(t, int64(0), stats.DailyRuntimeSeconds())
}

func TestStatistics_RolloverAtMidnightAppendsHistory(t *testing.T) {
	day1 := time.Date(2026, 3, 5, 23, 59, 0, 0, time.UTC)
	stats := NewStatistics(day1, "{}", 0)
	stats.Tick(day1.Add(30*time.Second), true)
	assert.Equal(t, int64(30), stats.DailyRuntimeSeconds())

	day2 := time.Date(2026, 3, 6, 0, 5, 0, 0, time.UTC)
	stats.Tick(day2, false)

	assert.Equal(t, int64(0), stats.DailyRuntimeSeconds())
	assert.Equal(t, int64(30), stats.YesterdayRuntimeSeconds(day2))
}

func TestStatistics_HistoryRetainsAtMost30Entries(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC)
	stats := NewStatistics(now, "{}", 0)

	for i := 0; i < 40; i++ {
		now = now.Add(24 * time.Hour)
		stats.Tick(now, true)
	}

	var decoded map[string]int64
	raw := stats.HistoryJSON()
	assert.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.LessOrEqual(t, len(decoded), 30)
}

func TestStatistics_SeedsFromPersistedHistory(t *testing.T) {
	now := time.Date(2026, 3, 5, 1, 0, 0, 0, time.UTC)
	yesterdayMidnight := (now.Unix()/86400 - 1) * 86400
	historyJSON := `{"` + strconv.FormatInt(yesterdayMidnight, 10) + `":1234}`

	stats := NewStatistics(now, historyJSON, 5000)
	assert.Equal(t, int64(5000), stats.LifetimeRuntimeSeconds())
	assert.Equal(t, int64(1234), stats.YesterdayRuntimeSeconds(now))
}

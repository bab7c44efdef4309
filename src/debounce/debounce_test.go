package debounce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimer_ZeroTimersFireSameTick(t *testing.T) {
	var timer Timer
	now := time.Now()

	vote := timer.Update(now, true, false, 0, 0)
	assert.Equal(t, Start, vote)

	vote = timer.Update(now, false, true, 0, 0)
	assert.Equal(t, Stop, vote)
}

func TestTimer_HoldsUntilTimerElapses(t *testing.T) {
	var timer Timer
	now := time.Now()
	startTimer := 10 * time.Second

	vote := timer.Update(now, true, false, startTimer, 0)
	assert.Equal(t, Indifferent, vote)

	vote = timer.Update(now.Add(5*time.Second), true, false, startTimer, 0)
	assert.Equal(t, Indifferent, vote)

	vote = timer.Update(now.Add(10*time.Second), true, false, startTimer, 0)
	assert.Equal(t, Start, vote)
}

func TestTimer_FlickerResetsCounter(t *testing.T) {
	var timer Timer
	now := time.Now()
	startTimer := 10 * time.Second

	timer.Update(now, true, false, startTimer, 0)
	timer.Update(now.Add(8*time.Second), true, false, startTimer, 0)

	// Predicate drops before the timer elapses.
	vote := timer.Update(now.Add(9*time.Second), false, false, startTimer, 0)
	assert.Equal(t, Indifferent, vote)
	assert.True(t, timer.ReachedSince().IsZero())

	// Predicate becomes true again; counter must restart from here.
	restart := now.Add(9 * time.Second)
	timer.Update(restart, true, false, startTimer, 0)
	vote = timer.Update(restart.Add(9*time.Second), true, false, startTimer, 0)
	assert.Equal(t, Indifferent, vote, "timer should not have elapsed yet since restart")

	vote = timer.Update(restart.Add(10*time.Second), true, false, startTimer, 0)
	assert.Equal(t, Start, vote)
}

func TestTimer_StopTimerIndependentOfStartTimer(t *testing.T) {
	var timer Timer
	now := time.Now()
	startTimer := 1 * time.Second
	stopTimer := 30 * time.Second

	timer.Update(now, true, false, startTimer, stopTimer)
	vote := timer.Update(now.Add(1*time.Second), true, false, startTimer, stopTimer)
	assert.Equal(t, Start, vote)

	// Stop predicate becomes true, but must hold for stopTimer before Stop fires.
	vote = timer.Update(now.Add(2*time.Second), false, true, startTimer, stopTimer)
	assert.Equal(t, Start, vote)

	vote = timer.Update(now.Add(31*time.Second), false, true, startTimer, stopTimer)
	assert.Equal(t, Start, vote)

	vote = timer.Update(now.Add(32*time.Second), false, true, startTimer, stopTimer)
	assert.Equal(t, Stop, vote)
}

func TestTimer_ResetClearsLatchedVote(t *testing.T) {
	var timer Timer
	now := time.Now()

	timer.Update(now, true, false, 0, 0)
	assert.True(t, timer.voting)

	timer.Reset()
	assert.False(t, timer.voting)
	assert.True(t, timer.ReachedSince().IsZero())
}

package main

import (
	"time"

	"github.com/offgrid-systems/gensetctl/src/debounce"
)

// ConditionKind names one of the seven evaluator kinds, in the fixed
// priority order spec.md §4.3 defines for running_by_condition selection.
type ConditionKind string

const (
	KindSoc              ConditionKind = "soc"
	KindAcLoad            ConditionKind = "acload"
	KindBatteryCurrent    ConditionKind = "batterycurrent"
	KindBatteryVoltage    ConditionKind = "batteryvoltage"
	KindInverterHighTemp  ConditionKind = "inverterhightemp"
	KindInverterOverload  ConditionKind = "inverteroverload"
	KindTestRun           ConditionKind = "testrun"
)

// PriorityOrder is the fixed evaluation and selection order from §4.3.
var PriorityOrder = []ConditionKind{
	KindSoc, KindAcLoad, KindBatteryCurrent, KindBatteryVoltage,
	KindInverterHighTemp, KindInverterOverload, KindTestRun,
}

// Vote is the tri-state result of one evaluator's tick, re-exported from
// debounce so callers outside this package need only import one Vote type.
type Vote = debounce.Vote

const (
	VoteIndifferent = debounce.Indifferent
	VoteStart       = debounce.Start
	VoteStop        = debounce.Stop
)

// ConditionRecord is the per-condition, per-generator state from spec.md
// §3: enabled flag, thresholds (with optional quiet-hours variants), the
// debounce timers and the current valid/vote outcome. It is owned
// exclusively by its Generator's worker goroutine.
type ConditionRecord struct {
	Kind ConditionKind

	Enabled bool

	StartValue, StopValue                     float64
	QuietHoursStartValue, QuietHoursStopValue float64
	HasThresholds                              bool

	StartTimer, StopTimer time.Duration

	Valid bool
	Vote  Vote

	timer debounce.Timer
}

// Reset clears the debounce timer and any latched vote, used when inputs
// become invalid or the condition is disabled.
func (c *ConditionRecord) Reset() {
	c.timer.Reset()
	c.Valid = false
	c.Vote = VoteIndifferent
}

// effectiveThresholds substitutes the quiet-hours start/stop values for the
// ordinary ones when quiet hours are active and a quiet-hours override is
// configured (non-zero), per spec.md §4.3.
func (c *ConditionRecord) effectiveThresholds(quietHoursActive bool) (start, stop float64) {
	start, stop = c.StartValue, c.StopValue
	if quietHoursActive {
		if c.QuietHoursStartValue != 0 {
			start = c.QuietHoursStartValue
		}
		if c.QuietHoursStopValue != 0 {
			stop = c.QuietHoursStopValue
		}
	}
	return start, stop
}

// evaluateThreshold runs the shared "invalid -> indifferent, else debounce
// the symmetric start/stop predicates" shape used by soc, acload,
// batterycurrent and batteryvoltage. startPredicate/stopPredicate are
// computed by the caller from the measured value and effective thresholds.
func (c *ConditionRecord) evaluateThreshold(now time.Time, valid bool, startPredicate, stopPredicate bool) Vote {
	c.Valid = valid
	if !c.Enabled || !valid {
		c.Reset()
		c.Valid = valid
		return VoteIndifferent
	}
	c.Vote = c.timer.Update(now, startPredicate, stopPredicate, c.StartTimer, c.StopTimer)
	return c.Vote
}

// QuietHoursActive reports whether "now" falls inside [StartTime, EndTime)
// expressed as seconds-since-local-midnight, with wrap-around support
// (EndTime < StartTime means the window crosses midnight). See DESIGN.md
// for the "today" resolution used when combined with test-run scheduling.
func QuietHoursActive(now time.Time, enabled bool, startTime, endTime int) bool {
	if !enabled {
		return false
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	nowSeconds := int(now.Sub(midnight).Seconds())

	if startTime <= endTime {
		return nowSeconds >= startTime && nowSeconds < endTime
	}
	// Wrap-around window, e.g. 22:00 -> 06:00.
	return nowSeconds >= startTime || nowSeconds < endTime
}

// Evaluator is the tagged-capability-set shape SPEC_FULL.md §4.3 specifies,
// grounded on the teacher's PowerRequest/PowerLimit/selectMode texture in
// unified_inverter_enabler.go: free functions producing a small result,
// composed by one priority-selection function.
type Evaluator interface {
	Kind() ConditionKind
	Evaluate(now time.Time, snap *BusSnapshot, set SettingsView, quietHoursActive bool) Vote
	Reset()
}

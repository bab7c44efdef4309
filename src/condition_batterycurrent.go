package main

import "time"

// BatteryCurrentEvaluator starts the generator when the sign-flipped
// battery current (discharge, positive) rises to or above StartValue and
// stops it once it falls to or below StopValue, per spec.md §4.3.
type BatteryCurrentEvaluator struct {
	Record  ConditionRecord
	Battery func() string
}

func NewBatteryCurrentEvaluator(battery func() string) *BatteryCurrentEvaluator {
	return &BatteryCurrentEvaluator{
		Record:  ConditionRecord{Kind: KindBatteryCurrent, HasThresholds: true},
		Battery: battery,
	}
}

func (e *BatteryCurrentEvaluator) Kind() ConditionKind { return KindBatteryCurrent }
func (e *BatteryCurrentEvaluator) Reset()              { e.Record.Reset() }

func (e *BatteryCurrentEvaluator) Evaluate(now time.Time, snap *BusSnapshot, set SettingsView, quietHoursActive bool) Vote {
	loadConditionSettings(&e.Record, "BatteryCurrent", set)

	raw, ok := snap.Float(pathBatteryCurrent(e.Battery()))
	current := -raw
	start, stop := e.Record.effectiveThresholds(quietHoursActive)

	startPredicate := ok && current >= start
	stopPredicate := ok && current <= stop

	return e.Record.evaluateThreshold(now, ok, startPredicate, stopPredicate)
}

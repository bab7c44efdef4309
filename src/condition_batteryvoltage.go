package main

import "time"

// BatteryVoltageEvaluator starts the generator when battery voltage falls
// to or below StartValue and stops it once it recovers to or above
// StopValue, per spec.md §4.3.
type BatteryVoltageEvaluator struct {
	Record  ConditionRecord
	Battery func() string
}

func NewBatteryVoltageEvaluator(battery func() string) *BatteryVoltageEvaluator {
	return &BatteryVoltageEvaluator{
		Record:  ConditionRecord{Kind: KindBatteryVoltage, HasThresholds: true},
		Battery: battery,
	}
}

func (e *BatteryVoltageEvaluator) Kind() ConditionKind { return KindBatteryVoltage }
func (e *BatteryVoltageEvaluator) Reset()              { e.Record.Reset() }

func (e *BatteryVoltageEvaluator) Evaluate(now time.Time, snap *BusSnapshot, set SettingsView, quietHoursActive bool) Vote {
	loadConditionSettings(&e.Record, "BatteryVoltage", set)

	voltage, ok := snap.Float(pathBatteryVoltage(e.Battery()))
	start, stop := e.Record.effectiveThresholds(quietHoursActive)

	startPredicate := ok && voltage <= start
	stopPredicate := ok && voltage >= stop

	return e.Record.evaluateThreshold(now, ok, startPredicate, stopPredicate)
}

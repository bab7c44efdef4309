package main

import "time"

// InverterAlarmEvaluator implements both inverterhightemp and
// inverteroverload from spec.md §4.3: they share identical logic, differing
// only in which vebus alarm path they read. Source selection prefers the
// per-phase paths, falling back to the aggregate path only when all three
// phases are null; if both are null the evaluator is invalid.
type InverterAlarmEvaluator struct {
	Record    ConditionRecord
	AlarmName string // "HighTemperature" or "Overload"
	Vebus     func() string
}

func NewInverterAlarmEvaluator(kind ConditionKind, alarmName string, vebus func() string) *InverterAlarmEvaluator {
	return &InverterAlarmEvaluator{
		Record:    ConditionRecord{Kind: kind},
		AlarmName: alarmName,
		Vebus:     vebus,
	}
}

func (e *InverterAlarmEvaluator) Kind() ConditionKind { return e.Record.Kind }
func (e *InverterAlarmEvaluator) Reset()              { e.Record.Reset() }

func (e *InverterAlarmEvaluator) Evaluate(now time.Time, snap *BusSnapshot, set SettingsView, quietHoursActive bool) Vote {
	shortName := conditionSettingsPrefix(e.Record.Kind)
	loadConditionSettings(&e.Record, shortName, set)

	alarm, valid := e.readAlarm(snap)

	return e.Record.evaluateThreshold(now, valid, alarm, !alarm)
}

func (e *InverterAlarmEvaluator) readAlarm(snap *BusSnapshot) (active bool, valid bool) {
	vebus := e.Vebus()
	anyPhaseKnown := false
	for phase := 1; phase <= 3; phase++ {
		if v, ok := snap.Float(pathVebusAlarm(vebus, e.AlarmName, phase)); ok {
			anyPhaseKnown = true
			if v != 0 {
				return true, true
			}
		}
	}
	if anyPhaseKnown {
		return false, true
	}

	if v, ok := snap.Float(pathVebusAlarm(vebus, e.AlarmName, 0)); ok {
		return v != 0, true
	}
	return false, false
}

// conditionSettingsPrefix maps a ConditionKind to the settings short-name
// prefix used by settings_specs.go (InverterHighTemp / InverterOverload).
func conditionSettingsPrefix(kind ConditionKind) string {
	switch kind {
	case KindInverterHighTemp:
		return "InverterHighTemp"
	case KindInverterOverload:
		return "InverterOverload"
	default:
		return string(kind)
	}
}

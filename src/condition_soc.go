package main

import "time"

// SocEvaluator starts the generator when battery SoC falls to or below
// StartValue and stops it once SoC recovers to or above StopValue, per the
// `soc` row of spec.md §4.3's condition table.
type SocEvaluator struct {
	Record  ConditionRecord
	Battery func() string // resolves the currently selected battery service
}

func NewSocEvaluator(battery func() string) *SocEvaluator {
	return &SocEvaluator{
		Record:  ConditionRecord{Kind: KindSoc, HasThresholds: true},
		Battery: battery,
	}
}

func (e *SocEvaluator) Kind() ConditionKind { return KindSoc }
func (e *SocEvaluator) Reset()              { e.Record.Reset() }

func (e *SocEvaluator) Evaluate(now time.Time, snap *BusSnapshot, set SettingsView, quietHoursActive bool) Vote {
	loadConditionSettings(&e.Record, "Soc", set)

	soc, ok := snap.Float(pathBatterySoc(e.Battery()))
	start, stop := e.Record.effectiveThresholds(quietHoursActive)

	startPredicate := ok && soc <= start
	stopPredicate := ok && soc >= stop

	return e.Record.evaluateThreshold(now, ok, startPredicate, stopPredicate)
}

// loadConditionSettings refreshes a ConditionRecord's configured fields
// from the settings store every tick, since the remote settings service may
// be mutated by other processes at any time (spec.md §5).
func loadConditionSettings(rec *ConditionRecord, name string, set SettingsView) {
	rec.Enabled, _ = set.Bool(name + ".Enabled")
	startTimer, _ := set.Int(name + ".StartTimer")
	stopTimer, _ := set.Int(name + ".StopTimer")
	rec.StartTimer = time.Duration(startTimer) * time.Second
	rec.StopTimer = time.Duration(stopTimer) * time.Second

	if rec.HasThresholds {
		rec.StartValue, _ = set.Float(name + ".StartValue")
		rec.StopValue, _ = set.Float(name + ".StopValue")
		rec.QuietHoursStartValue, _ = set.Float(name + ".QuietHoursStartValue")
		rec.QuietHoursStopValue, _ = set.Float(name + ".QuietHoursStopValue")
	}
}

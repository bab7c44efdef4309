package main

import "time"

// AC-load measurement modes, per spec.md §4.3.
const (
	MeasurementTotalConsumption  = 0
	MeasurementInverterOutput    = 1
	MeasurementHighestSinglePhase = 2
)

// AcLoadEvaluator starts the generator when AC load power rises to or
// above StartValue and stops it once it falls to or below StopValue, with
// three selectable measurement strategies.
type AcLoadEvaluator struct {
	Record      ConditionRecord
	Vebus       func() string
	Measurement int
}

func NewAcLoadEvaluator(vebus func() string) *AcLoadEvaluator {
	return &AcLoadEvaluator{
		Record: ConditionRecord{Kind: KindAcLoad, HasThresholds: true},
		Vebus:  vebus,
	}
}

func (e *AcLoadEvaluator) Kind() ConditionKind { return KindAcLoad }
func (e *AcLoadEvaluator) Reset()              { e.Record.Reset() }

func (e *AcLoadEvaluator) Evaluate(now time.Time, snap *BusSnapshot, set SettingsView, quietHoursActive bool) Vote {
	loadConditionSettings(&e.Record, "AcLoad", set)
	e.Measurement, _ = set.Int("AcLoad.Measurement")

	power, valid := e.measure(snap)
	start, stop := e.Record.effectiveThresholds(quietHoursActive)

	startPredicate := valid && power >= start
	stopPredicate := valid && power <= stop

	return e.Record.evaluateThreshold(now, valid, startPredicate, stopPredicate)
}

func (e *AcLoadEvaluator) measure(snap *BusSnapshot) (float64, bool) {
	switch e.Measurement {
	case MeasurementInverterOutput:
		if p, ok := snap.Float(pathVebusOutTotal(e.Vebus())); ok {
			return p, true
		}
		return snap.SumFloat([]BusPath{
			pathVebusOutPhase(e.Vebus(), 1),
			pathVebusOutPhase(e.Vebus(), 2),
			pathVebusOutPhase(e.Vebus(), 3),
		})

	case MeasurementHighestSinglePhase:
		return snap.MaxFloat([]BusPath{
			pathVebusOutPhase(e.Vebus(), 1),
			pathVebusOutPhase(e.Vebus(), 2),
			pathVebusOutPhase(e.Vebus(), 3),
		})

	default: // MeasurementTotalConsumption
		return snap.SumFloat([]BusPath{
			pathConsumptionPhase(1),
			pathConsumptionPhase(2),
			pathConsumptionPhase(3),
		})
	}
}

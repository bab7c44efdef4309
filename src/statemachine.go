package main

import "time"

// GeneratorState is the published /State enum from spec.md §6.
type GeneratorState int

const (
	Stopped GeneratorState = iota
	Running
	Warmup
	Cooldown
	ErrorState
)

// GeneratorError is the published /Error enum, the error taxonomy from
// spec.md §7.
type GeneratorError int

const (
	ErrNone GeneratorError = iota
	ErrRemoteInFault
	ErrRemoteDisabled
	ErrRemoteIncompatible
)

const (
	noGenAlarmOK     = 0
	noGenAlarmArmed  = 1
	noGenAlarmFired  = 2
	noGenAlarmWindow = 5 * time.Minute
)

// GeneratorRecord is the per-generator record from spec.md §3, owned
// exclusively by its Generator worker and never shared by pointer across
// goroutines; observers only ever see values published through the Command
// Publisher.
type GeneratorRecord struct {
	AutoStartEnabled   bool
	ManualStart        bool
	State              GeneratorState
	RunningSince       time.Time
	RunningByCondition string
	Error              GeneratorError
	NoGenAlarm         int
	LastStartRequestAt time.Time

	DailyRuntimeS      int64
	AccumulatedRuntimeS int64
}

// GeneratorInputs bundles everything one state-machine tick needs, derived
// fresh each tick from the shared BusSnapshot, this generator's
// ConditionRecords and its SettingsStore — the "consistent tuple observed
// at tick start" the concurrency model requires.
type GeneratorInputs struct {
	Now time.Time

	Votes map[ConditionKind]Vote

	ManualStart      bool
	AutoStartEnabled bool

	MinimumRuntime time.Duration
	WarmupTime     time.Duration
	CooldownTime   time.Duration

	CommsLossPolicy      int
	RequiredServiceAlive bool

	ACOverrideActive bool // StopWhenAc{1,2}Available and an AC input is connected+active

	GensetErrorCode int
	GensetAutoStart bool
	GensetConnected bool

	AcInSupported    bool
	AcInIsGenerator  bool // /Ac/ActiveIn/Connected=1 and source=2=generator
}

// StateMachine runs the generator state machine from spec.md §4.4.
type StateMachine struct {
	Record GeneratorRecord

	holdUntil    time.Time
	noGenArmedAt time.Time
}

// acOverrideApplies reports whether the active-input override applies to
// the given RunningByCondition tag. It does not apply to "manual", to the
// inverter alarm conditions (safety conditions) or to
// "lossofcommunication".
func acOverrideApplies(runningByCondition string) bool {
	switch runningByCondition {
	case "manual", string(KindInverterHighTemp), string(KindInverterOverload), "lossofcommunication":
		return false
	default:
		return true
	}
}

// Tick evaluates one state-machine step and mutates Record in place.
func (sm *StateMachine) Tick(in GeneratorInputs) {
	rec := &sm.Record
	now := in.Now

	if sm.handleError(in) {
		sm.tickNoGenAlarm(in)
		return
	}

	winner, anyStart := selectWinner(in)

	if in.RequiredServiceAlive {
		// nothing to do; comms-loss policy only applies while lost.
	} else {
		winner, anyStart = applyCommsLossPolicy(rec, in, winner, anyStart)
	}

	if anyStart && in.ACOverrideActive && acOverrideApplies(winner) {
		anyStart = false
		winner = ""
	}

	switch rec.State {
	case Stopped:
		if anyStart && (in.AutoStartEnabled || winner == "manual") {
			sm.beginStart(now, winner, in)
		}

	case Warmup:
		rec.RunningByCondition = currentRunningByCondition(rec.RunningByCondition, winner, anyStart)
		if !anyStart && winner == "" && !rec.ManualStart {
			// The start reason evaporated before warmup finished; treat the
			// same as an immediate stop request, subject to the same
			// minimum-runtime rule once RUNNING begins (warmup has no
			// running_since yet, so it can always abort).
			sm.beginStop(now, in)
			break
		}
		if now.Sub(sm.holdUntil) >= 0 {
			rec.State = Running
			rec.RunningSince = now
		}

	case Running:
		rec.RunningByCondition = currentRunningByCondition(rec.RunningByCondition, winner, anyStart)
		shouldStop := !anyStart && !rec.ManualStart
		if shouldStop && now.Sub(rec.RunningSince) >= in.MinimumRuntime {
			sm.beginStop(now, in)
		}

	case Cooldown:
		if now.Sub(sm.holdUntil) >= 0 {
			rec.State = Stopped
			rec.RunningByCondition = ""
		}
	}

	sm.tickNoGenAlarm(in)
}

// selectWinner picks the highest-priority currently-voting-start condition
// in the fixed order from spec.md §4.3, with manual_start taking absolute
// priority.
func selectWinner(in GeneratorInputs) (winner string, anyStart bool) {
	for _, kind := range PriorityOrder {
		if in.Votes[kind] == VoteStart {
			winner = string(kind)
			anyStart = true
			break
		}
	}
	if in.ManualStart {
		winner = "manual"
		anyStart = true
	}
	return winner, anyStart
}

// applyCommsLossPolicy implements the 0/1/2 policy from spec.md §4.4 once a
// required service has been missing for >= 5 minutes.
func applyCommsLossPolicy(rec *GeneratorRecord, in GeneratorInputs, winner string, anyStart bool) (string, bool) {
	switch in.CommsLossPolicy {
	case 0:
		return "", false
	case 1:
		return "lossofcommunication", true
	case 2:
		if rec.State == Running || rec.State == Warmup || rec.State == Cooldown {
			if winner == "" {
				winner = rec.RunningByCondition
			}
			return winner, true
		}
		return "", false
	default:
		return winner, anyStart
	}
}

// currentRunningByCondition applies the handoff rule from spec.md §4.3: the
// tag shifts to the next voting condition without a STOPPED transition, and
// is left unchanged if nothing is currently voting (a stop decision, not a
// handoff, is made by the caller).
func currentRunningByCondition(prev, winner string, anyStart bool) string {
	if anyStart {
		return winner
	}
	return prev
}

func (sm *StateMachine) beginStart(now time.Time, winner string, in GeneratorInputs) {
	rec := &sm.Record
	rec.RunningByCondition = winner
	rec.LastStartRequestAt = now
	sm.noGenArmedAt = time.Time{}

	if in.WarmupTime > 0 {
		rec.State = Warmup
		sm.holdUntil = now.Add(in.WarmupTime)
		return
	}
	rec.State = Running
	rec.RunningSince = now
}

func (sm *StateMachine) beginStop(now time.Time, in GeneratorInputs) {
	rec := &sm.Record
	if in.CooldownTime > 0 {
		rec.State = Cooldown
		sm.holdUntil = now.Add(in.CooldownTime)
		return
	}
	rec.State = Stopped
	rec.RunningByCondition = ""
}

// handleError implements the ERROR transitions and recovery from
// spec.md §4.4/§7. Returns true if Record.State is ERROR after the call
// (meaning the rest of Tick's normal transition logic should be skipped).
func (sm *StateMachine) handleError(in GeneratorInputs) bool {
	rec := &sm.Record

	if rec.State == ErrorState {
		cleared := in.GensetErrorCode == 0 &&
			(rec.Error != ErrRemoteDisabled || in.GensetAutoStart) &&
			(rec.Error != ErrRemoteIncompatible || in.GensetConnected)
		if !cleared {
			return true
		}
		rec.Error = ErrNone
		rec.State = Stopped
		rec.RunningByCondition = ""
		return false
	}

	wantsRunning := rec.State == Running || rec.State == Warmup

	switch {
	case in.GensetErrorCode != 0:
		rec.Error = ErrRemoteInFault
		rec.State = ErrorState
		return true
	case wantsRunning && !in.GensetConnected:
		rec.Error = ErrRemoteIncompatible
		rec.State = ErrorState
		return true
	case wantsRunning && !in.GensetAutoStart:
		rec.Error = ErrRemoteDisabled
		rec.State = ErrorState
		return true
	}
	return false
}

// tickNoGenAlarm implements the no-generator-at-AC-in alarm from
// spec.md §4.4: armed on the first RUNNING tick of a non-manual run while
// the AC input does not report a generator source, and fired once that has
// lasted 5 minutes.
func (sm *StateMachine) tickNoGenAlarm(in GeneratorInputs) {
	rec := &sm.Record

	if rec.State != Running || rec.RunningByCondition == "manual" {
		rec.NoGenAlarm = noGenAlarmOK
		sm.noGenArmedAt = time.Time{}
		return
	}
	if !in.AcInSupported {
		rec.NoGenAlarm = noGenAlarmOK
		return
	}
	if in.AcInIsGenerator {
		rec.NoGenAlarm = noGenAlarmOK
		sm.noGenArmedAt = time.Time{}
		return
	}

	if sm.noGenArmedAt.IsZero() {
		sm.noGenArmedAt = in.Now
		rec.NoGenAlarm = noGenAlarmArmed
		return
	}
	if in.Now.Sub(sm.noGenArmedAt) >= noGenAlarmWindow {
		rec.NoGenAlarm = noGenAlarmFired
		return
	}
	rec.NoGenAlarm = noGenAlarmArmed
}

// WantsStart reports whether the state machine currently commands the
// physical Start output high, used by the Command Publisher.
func (r GeneratorRecord) WantsStart() bool {
	return r.State == Running || r.State == Warmup
}

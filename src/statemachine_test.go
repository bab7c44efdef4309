package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func baseInputs(now time.Time) GeneratorInputs {
	return GeneratorInputs{
		Now:                  now,
		Votes:                map[ConditionKind]Vote{},
		AutoStartEnabled:     true,
		MinimumRuntime:       5 * time.Minute,
		RequiredServiceAlive: true,
		GensetAutoStart:      true,
		GensetConnected:      true,
	}
}

func TestStateMachine_StartsOnVote(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.Votes[KindAcLoad] = VoteStart
	sm.Tick(in)

	assert.Equal(t, Running, sm.Record.State)
	assert.Equal(t, "acload", sm.Record.RunningByCondition)
}

func TestStateMachine_P1_NoStopBeforeMinimumRuntime(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.Votes[KindAcLoad] = VoteStart
	sm.Tick(in)
	assert.Equal(t, Running, sm.Record.State)

	later := baseInputs(now.Add(1 * time.Minute))
	sm.Tick(later) // no votes now, but minimum runtime (5m) not elapsed

	assert.Equal(t, Running, sm.Record.State, "must not stop before MinimumRuntime elapses")
}

func TestStateMachine_StopsAfterMinimumRuntimeWithNoVotes(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.Votes[KindAcLoad] = VoteStart
	sm.Tick(in)

	later := baseInputs(now.Add(6 * time.Minute))
	sm.Tick(later)

	assert.Equal(t, Stopped, sm.Record.State)
	assert.Equal(t, "", sm.Record.RunningByCondition)
}

func TestStateMachine_P2_AllDisabledStaysStopped(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	sm.Tick(in)

	assert.Equal(t, Stopped, sm.Record.State)
}

func TestStateMachine_P3_PriorityOrderSelectsFirstVoter(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.Votes[KindAcLoad] = VoteStart
	in.Votes[KindSoc] = VoteStart
	sm.Tick(in)

	assert.Equal(t, "soc", sm.Record.RunningByCondition, "soc precedes acload in priority order")
}

func TestStateMachine_S3_ConditionCascadeWithoutStoppedTransition(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.Votes[KindSoc] = VoteStart
	sm.Tick(in)
	assert.Equal(t, "soc", sm.Record.RunningByCondition)
	assert.Equal(t, Running, sm.Record.State)

	in2 := baseInputs(now.Add(time.Second))
	in2.Votes[KindAcLoad] = VoteStart // soc stopped voting, acload took over
	sm.Tick(in2)

	assert.Equal(t, Running, sm.Record.State, "handoff must not pass through STOPPED")
	assert.Equal(t, "acload", sm.Record.RunningByCondition)
}

func TestStateMachine_ManualStartTakesPriority(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.Votes[KindSoc] = VoteStart
	in.ManualStart = true
	sm.Tick(in)

	assert.Equal(t, "manual", sm.Record.RunningByCondition)
}

func TestStateMachine_ManualStartRoundTrip(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.ManualStart = true
	sm.Tick(in)
	assert.Equal(t, Running, sm.Record.State)

	// ManualStart clears, but the condition engine would otherwise still
	// want to run via soc.
	in2 := baseInputs(now.Add(time.Second))
	in2.Votes[KindSoc] = VoteStart
	sm.Tick(in2)

	assert.Equal(t, Running, sm.Record.State)
	assert.Equal(t, "soc", sm.Record.RunningByCondition)
}

func TestStateMachine_CommsLossPolicyZeroForcesStopped(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.Votes[KindAcLoad] = VoteStart
	sm.Tick(in)
	assert.Equal(t, Running, sm.Record.State)

	lost := baseInputs(now.Add(6 * time.Minute)) // past MinimumRuntime (5m)
	lost.Votes[KindAcLoad] = VoteStart
	lost.RequiredServiceAlive = false
	lost.CommsLossPolicy = 0
	sm.Tick(lost)

	assert.Equal(t, Stopped, sm.Record.State)
}

func TestStateMachine_CommsLossPolicyOneForcesRunning(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.RequiredServiceAlive = false
	in.CommsLossPolicy = 1
	sm.Tick(in)

	assert.Equal(t, Running, sm.Record.State)
	assert.Equal(t, "lossofcommunication", sm.Record.RunningByCondition)
}

func TestStateMachine_CommsLossPolicyTwoKeepsRunningIfAlreadyRunning(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.Votes[KindAcLoad] = VoteStart
	sm.Tick(in)

	lost := baseInputs(now.Add(time.Second))
	lost.RequiredServiceAlive = false
	lost.CommsLossPolicy = 2
	sm.Tick(lost)

	assert.Equal(t, Running, sm.Record.State)
}

func TestStateMachine_CommsLossPolicyTwoStaysStoppedIfNotRunning(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.RequiredServiceAlive = false
	in.CommsLossPolicy = 2
	sm.Tick(in)

	assert.Equal(t, Stopped, sm.Record.State)
}

func TestStateMachine_S6_RemoteFaultEntersErrorAndRecovers(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.Votes[KindAcLoad] = VoteStart
	sm.Tick(in)
	assert.Equal(t, Running, sm.Record.State)

	faulted := baseInputs(now.Add(time.Second))
	faulted.Votes[KindAcLoad] = VoteStart
	faulted.GensetErrorCode = 17
	sm.Tick(faulted)

	assert.Equal(t, ErrorState, sm.Record.State)
	assert.Equal(t, ErrRemoteInFault, sm.Record.Error)

	cleared := baseInputs(now.Add(2 * time.Second))
	cleared.Votes[KindAcLoad] = VoteStart
	sm.Tick(cleared)

	assert.Equal(t, Running, sm.Record.State)
	assert.Equal(t, ErrNone, sm.Record.Error)
}

func TestStateMachine_RemoteDisabledWhileWantingToRun(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.Votes[KindAcLoad] = VoteStart
	sm.Tick(in)

	disabled := baseInputs(now.Add(time.Second))
	disabled.Votes[KindAcLoad] = VoteStart
	disabled.GensetAutoStart = false
	sm.Tick(disabled)

	assert.Equal(t, ErrorState, sm.Record.State)
	assert.Equal(t, ErrRemoteDisabled, sm.Record.Error)
}

func TestStateMachine_WarmupHoldsBeforeRunning(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.Votes[KindAcLoad] = VoteStart
	in.WarmupTime = 30 * time.Second
	sm.Tick(in)

	assert.Equal(t, Warmup, sm.Record.State)
	assert.True(t, sm.Record.WantsStart(), "warmup must still publish Start=1")

	later := baseInputs(now.Add(30 * time.Second))
	later.Votes[KindAcLoad] = VoteStart
	later.WarmupTime = 30 * time.Second
	sm.Tick(later)

	assert.Equal(t, Running, sm.Record.State)
}

func TestStateMachine_CooldownHoldsBeforeStopped(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.Votes[KindAcLoad] = VoteStart
	sm.Tick(in)

	stopping := baseInputs(now.Add(6 * time.Minute))
	stopping.CooldownTime = 10 * time.Second
	sm.Tick(stopping)

	assert.Equal(t, Cooldown, sm.Record.State)
	assert.False(t, sm.Record.WantsStart(), "cooldown must publish Start=0")

	done := baseInputs(now.Add(6*time.Minute + 10*time.Second))
	done.CooldownTime = 10 * time.Second
	sm.Tick(done)

	assert.Equal(t, Stopped, sm.Record.State)
}

func TestStateMachine_ActiveInputOverrideStopsNonSafetyCondition(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.Votes[KindAcLoad] = VoteStart
	sm.Tick(in)

	overridden := baseInputs(now.Add(6 * time.Minute)) // past MinimumRuntime (5m)
	overridden.Votes[KindAcLoad] = VoteStart
	overridden.ACOverrideActive = true
	sm.Tick(overridden)

	assert.Equal(t, Stopped, sm.Record.State)
}

func TestStateMachine_ActiveInputOverrideIgnoredForInverterAlarm(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.Votes[KindInverterOverload] = VoteStart
	sm.Tick(in)

	overridden := baseInputs(now.Add(time.Second))
	overridden.Votes[KindInverterOverload] = VoteStart
	overridden.ACOverrideActive = true
	sm.Tick(overridden)

	assert.Equal(t, Running, sm.Record.State, "inverter alarm conditions ignore the active-input override")
}

func TestStateMachine_NoGenAlarmArmsThenFires(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.Votes[KindAcLoad] = VoteStart
	in.AcInSupported = true
	sm.Tick(in)
	assert.Equal(t, noGenAlarmArmed, sm.Record.NoGenAlarm)

	later := baseInputs(now.Add(6 * time.Minute))
	later.Votes[KindAcLoad] = VoteStart
	later.AcInSupported = true
	sm.Tick(later)

	assert.Equal(t, noGenAlarmFired, sm.Record.NoGenAlarm)
}

func TestStateMachine_NoGenAlarmClearsWhenGeneratorSourced(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.Votes[KindAcLoad] = VoteStart
	in.AcInSupported = true
	sm.Tick(in)
	assert.Equal(t, noGenAlarmArmed, sm.Record.NoGenAlarm)

	sourced := baseInputs(now.Add(time.Second))
	sourced.Votes[KindAcLoad] = VoteStart
	sourced.AcInSupported = true
	sourced.AcInIsGenerator = true
	sm.Tick(sourced)

	assert.Equal(t, noGenAlarmOK, sm.Record.NoGenAlarm)
}

func TestStateMachine_NoGenAlarmNeverFiresWhenUnsupported(t *testing.T) {
	var sm StateMachine
	now := time.Now()

	in := baseInputs(now)
	in.Votes[KindAcLoad] = VoteStart
	in.AcInSupported = false
	sm.Tick(in)

	later := baseInputs(now.Add(10 * time.Minute))
	later.Votes[KindAcLoad] = VoteStart
	later.AcInSupported = false
	sm.Tick(later)

	assert.Equal(t, noGenAlarmOK, sm.Record.NoGenAlarm)
}

package main

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"
)

// commsLossWindow is the 5-minute service-absence threshold from
// spec.md §4.4.
const commsLossWindow = 5 * time.Minute

func pathManualStartSet(genName string) BusPath {
	return BusPath{Service: genName, Path: "/ManualStart/set"}
}

func pathManualStart(genName string) BusPath {
	return BusPath{Service: genName, Path: "/ManualStart"}
}

// GeneratorWorker owns one full instance of components 3-8 from spec.md §2
// (evaluators, state machine, scheduler, statistics, publisher) for either
// the relay generator ("Generator0") or the Fischer-Panda unit
// ("FischerPanda0"). Two instances run as independent goroutines sharing
// the Bus Monitor's broadcast snapshot and one CommandPublisher.
type GeneratorWorker struct {
	Name      string
	Settings  *SettingsStore
	SM        StateMachine
	Stats     *Statistics
	Publisher *CommandPublisher

	evaluators []Evaluator
	routes     BusRoutes

	manualStart      bool
	lastManualSetSeen bool

	// statusMu guards the fields the debug REPL reads from a different
	// goroutine than the one ticking this generator.
	statusMu  sync.Mutex
	lastState GeneratorState
	lastCond  string
	lastError GeneratorError
	lastDaily int64
	lastLife  int64
}

// Status returns a thread-safe snapshot of the values most recently
// published, for the debug REPL.
func (g *GeneratorWorker) Status() (state GeneratorState, runningByCondition string, err GeneratorError, dailyRuntimeS, lifetimeRuntimeS int64) {
	g.statusMu.Lock()
	defer g.statusMu.Unlock()
	return g.lastState, g.lastCond, g.lastError, g.lastDaily, g.lastLife
}

func (g *GeneratorWorker) recordStatus() {
	g.statusMu.Lock()
	defer g.statusMu.Unlock()
	g.lastState = g.SM.Record.State
	g.lastCond = g.SM.Record.RunningByCondition
	g.lastError = g.SM.Record.Error
	g.lastDaily = g.Stats.DailyRuntimeSeconds()
	g.lastLife = g.Stats.LifetimeRuntimeSeconds()
}

// NewGeneratorWorker constructs a worker with its full evaluator set, in
// the priority order from spec.md §4.3.
func NewGeneratorWorker(genName string, pub *CommandPublisher) *GeneratorWorker {
	g := &GeneratorWorker{
		Name:      genName,
		Settings:  NewSettingsStore(genName, BuildSettingSpecs(genName)),
		Publisher: pub,
	}

	battery := func() string { return g.routes.BatteryService }
	vebus := func() string { return g.routes.VebusService }

	g.evaluators = []Evaluator{
		NewSocEvaluator(battery),
		NewAcLoadEvaluator(vebus),
		NewBatteryCurrentEvaluator(battery),
		NewBatteryVoltageEvaluator(battery),
		NewInverterAlarmEvaluator(KindInverterHighTemp, "HighTemperature", vebus),
		NewInverterAlarmEvaluator(KindInverterOverload, "Overload", vebus),
		NewTestRunEvaluator(battery),
	}
	return g
}

// SubscribedPaths returns every bus path this generator instance needs the
// Bus Monitor to subscribe to, folded into the shared subscription list in
// main.go.
func (g *GeneratorWorker) SubscribedPaths() []BusPath {
	var paths []BusPath
	for _, spec := range g.Settings.Specs() {
		paths = append(paths, BusPath{Service: ServiceSettings, Path: spec.Path})
	}
	paths = append(paths,
		pathManualStartSet(g.Name),
		pathConsumptionPhase(1), pathConsumptionPhase(2), pathConsumptionPhase(3),
		pathGensetStart(GensetService(g.Name)),
		pathGensetAutoStart(GensetService(g.Name)),
		pathGensetErrorCode(GensetService(g.Name)),
		pathGensetConnected(GensetService(g.Name)),
	)
	return paths
}

// Run drives this generator's tick loop: fold in settings-path bus echoes,
// evaluate conditions, step the state machine, accumulate statistics and
// publish the resulting self-consistent tuple — all inside one select case
// per tick, per the concurrency model in spec.md §5 / SPEC_FULL.md §2.
func (g *GeneratorWorker) Run(ctx context.Context, snapChan <-chan *BusSnapshot, defaultsPath string) {
	log.Printf("%s worker started\n", g.Name)

	if f, err := loadDefaultsFile(defaultsPath); err == nil {
		applyDefaultsFile(g.Settings, g.Name, f)
	} else {
		log.Printf("%s: failed to load settings defaults: %v\n", g.Name, err)
	}

	historyJSON, _ := g.Settings.String("AccumulatedDaily")
	lifetime, _ := g.Settings.Int("AccumulatedRuntime")
	g.Stats = NewStatistics(time.Now(), historyJSON, int64(lifetime))

	for {
		select {
		case snap := <-snapChan:
			g.tick(snap)
		case <-ctx.Done():
			log.Printf("%s worker stopped\n", g.Name)
			return
		}
	}
}

func (g *GeneratorWorker) tick(snap *BusSnapshot) {
	now := time.Now()
	g.routes = ResolveRoutes(snap, g.routes)

	// Settings round-trip: fold bus echoes for every subscribed settings
	// path into the store, confirming any pending writes.
	for _, spec := range g.Settings.Specs() {
		if raw, ok := snap.String(BusPath{Service: ServiceSettings, Path: spec.Path}); ok {
			g.Settings.ApplyBusEcho(spec.Path, raw)
		} else if f, ok := snap.Float(BusPath{Service: ServiceSettings, Path: spec.Path}); ok {
			g.Settings.ApplyBusEcho(spec.Path, formatSettingRaw(spec.Kind, f))
		}
	}
	g.flushPendingWrites()

	// ManualStart round-trip: a write only takes effect once echoed back.
	if v, ok := snap.Float(pathManualStartSet(g.Name)); ok {
		wants := v != 0
		if wants != g.manualStart || !g.lastManualSetSeen {
			g.manualStart = wants
			g.Publisher.PublishInt(pathManualStart(g.Name), boolToInt(wants))
		}
		g.lastManualSetSeen = true
	}

	qhEnabled, _ := g.Settings.Bool("QuietHours.Enabled")
	qhStart, _ := g.Settings.Int("QuietHours.StartTime")
	qhEnd, _ := g.Settings.Int("QuietHours.EndTime")
	quietHoursActive := QuietHoursActive(now, qhEnabled, qhStart, qhEnd)

	votes := make(map[ConditionKind]Vote, len(g.evaluators))
	for _, e := range g.evaluators {
		votes[e.Kind()] = e.Evaluate(now, snap, g.Settings, quietHoursActive)
	}

	genset := GensetService(g.Name)
	gensetConnected, _ := snap.Bool(pathGensetConnected(genset))
	gensetAutoStart, _ := snap.Bool(pathGensetAutoStart(genset))
	errorCode, _ := snap.Float(pathGensetErrorCode(genset))

	minRuntimeMinutes, _ := g.Settings.Float("MinimumRuntime")
	warmupSeconds, _ := g.Settings.Int("WarmupTime")
	cooldownSeconds, _ := g.Settings.Int("CooldownTime")
	autoStartEnabled, _ := g.Settings.Bool("AutoStartEnabled")
	commsLossPolicy, _ := g.Settings.Int("OnLossCommunication")

	requiredAlive := snap.ServiceAlive(g.routes.VebusService, now, commsLossWindow) &&
		snap.ServiceAlive(g.routes.BatteryService, now, commsLossWindow)

	ac1Override, _ := g.Settings.Bool("AcLoad.StopWhenAc1Available")
	ac2Override, _ := g.Settings.Bool("AcLoad.StopWhenAc2Available")
	acOverrideActive := (ac1Override || ac2Override) && g.activeInputConnected(snap)

	acInSource, acInKnown := snap.Float(BusPath{Service: ServiceSystem, Path: "/Ac/ActiveIn/Source"})

	g.SM.Tick(GeneratorInputs{
		Now:                  now,
		Votes:                votes,
		ManualStart:          g.manualStart,
		AutoStartEnabled:     autoStartEnabled,
		MinimumRuntime:       time.Duration(minRuntimeMinutes * float64(time.Minute)),
		WarmupTime:           time.Duration(warmupSeconds) * time.Second,
		CooldownTime:         time.Duration(cooldownSeconds) * time.Second,
		CommsLossPolicy:      commsLossPolicy,
		RequiredServiceAlive: requiredAlive,
		ACOverrideActive:     acOverrideActive,
		GensetErrorCode:      int(errorCode),
		GensetAutoStart:      gensetAutoStart,
		GensetConnected:      gensetConnected,
		AcInSupported:        acInKnown,
		AcInIsGenerator:      acInKnown && g.activeInputConnected(snap) && acInSource == 2,
	})

	g.Stats.Tick(now, g.SM.Record.State == Running)
	g.Settings.Set("AccumulatedDaily", SettingValue{Kind: KindString, String: g.Stats.HistoryJSON()})
	g.Settings.Set("AccumulatedRuntime", SettingValue{Kind: KindInt, Int: int(g.Stats.LifetimeRuntimeSeconds())})
	g.flushPendingWrites()

	g.recordStatus()
	g.publish()
}

func (g *GeneratorWorker) activeInputConnected(snap *BusSnapshot) bool {
	connected, ok := snap.Bool(pathVebusActiveInConnected(g.routes.VebusService))
	return ok && connected
}

func (g *GeneratorWorker) flushPendingWrites() {
	for _, spec := range g.Settings.Specs() {
		if spec2, raw, ok := g.Settings.PendingWrite(spec.ShortName); ok {
			g.Publisher.Send(GeneratorCommand{
				Topic:   BusPath{Service: ServiceSettings, Path: spec2.Path}.Topic() + "/set",
				Payload: []byte(raw),
				QoS:     1,
			})
		}
	}
}

func (g *GeneratorWorker) publish() {
	rec := g.SM.Record
	root := g.Name

	g.Publisher.PublishInt(BusPath{Service: root, Path: "/State"}, int(rec.State))
	g.Publisher.PublishString(BusPath{Service: root, Path: "/RunningByCondition"}, rec.RunningByCondition)
	g.Publisher.PublishInt(BusPath{Service: root, Path: "/Error"}, int(rec.Error))
	g.Publisher.PublishInt(BusPath{Service: root, Path: "/Alarms/NoGeneratorAtAcIn"}, rec.NoGenAlarm)
	runtime := 0.0
	if rec.State == Running {
		runtime = time.Since(rec.RunningSince).Seconds()
	}
	g.Publisher.PublishFloat(BusPath{Service: root, Path: "/Runtime"}, runtime)
	g.Publisher.PublishFloat(BusPath{Service: root, Path: "/TodayRuntime"}, float64(g.Stats.DailyRuntimeSeconds()))
	g.Publisher.PublishFloat(BusPath{Service: root, Path: "/AccumulatedRuntime"}, float64(g.Stats.LifetimeRuntimeSeconds()))

	g.Publisher.PublishInt(pathGensetStart(GensetService(g.Name)), boolToInt(rec.WantsStart()))
}

func formatSettingRaw(kind SettingKind, f float64) string {
	if kind == KindBool {
		if f != 0 {
			return "1"
		}
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

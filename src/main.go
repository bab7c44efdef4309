package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/joho/godotenv"
)

// fixedPaths lists the system-service paths this daemon needs that are not
// derived from either generator's settings specs: the routing paths read by
// ResolveRoutes, the per-phase consumption paths and the active-input
// source. The vebus and battery paths come from vebusWildcardPaths and
// batteryWildcardPaths.
func fixedPaths() []BusPath {
	return []BusPath{
		{Service: ServiceSystem, Path: "/VebusService"},
		{Service: ServiceSystem, Path: "/AutoSelectedBatteryMeasurement"},
		{Service: ServiceSystem, Path: "/Ac/Consumption/L1/Power"},
		{Service: ServiceSystem, Path: "/Ac/Consumption/L2/Power"},
		{Service: ServiceSystem, Path: "/Ac/Consumption/L3/Power"},
		{Service: ServiceSystem, Path: "/Ac/ActiveIn/Source"},
	}
}

// vebusWildcardPaths returns the vebus-rooted paths the daemon needs once a
// vebus service is known. Since the Bus Monitor subscribes by fixed topic
// rather than wildcard, every plausible vebus instance name gensetctl has
// been deployed against is subscribed up front; unused subscriptions simply
// never receive a retained value.
func vebusWildcardPaths(vebusCandidates []string) []BusPath {
	var paths []BusPath
	for _, v := range vebusCandidates {
		paths = append(paths,
			pathVebusOutPhase(v, 1), pathVebusOutPhase(v, 2), pathVebusOutPhase(v, 3),
			pathVebusOutTotal(v),
			pathVebusActiveInConnected(v), pathVebusActiveInActiveInput(v),
			pathVebusAlarm(v, "HighTemperature", 0), pathVebusAlarm(v, "HighTemperature", 1),
			pathVebusAlarm(v, "HighTemperature", 2), pathVebusAlarm(v, "HighTemperature", 3),
			pathVebusAlarm(v, "Overload", 0), pathVebusAlarm(v, "Overload", 1),
			pathVebusAlarm(v, "Overload", 2), pathVebusAlarm(v, "Overload", 3),
		)
	}
	return paths
}

func batteryWildcardPaths(batteryCandidates []string) []BusPath {
	var paths []BusPath
	for _, b := range batteryCandidates {
		paths = append(paths, pathBatteryVoltage(b), pathBatteryCurrent(b), pathBatterySoc(b))
	}
	return paths
}

func gensetPaths(genName string) []BusPath {
	genset := GensetService(genName)
	return []BusPath{
		pathGensetStart(genset), pathGensetAutoStart(genset),
		pathGensetErrorCode(genset), pathGensetConnected(genset),
	}
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging")
	debugMode := flag.Bool("debug", false, "Enable debug introspection REPL")
	defaultsPath := flag.String("defaults", "config/settings.defaults.yaml", "Path to the settings defaults YAML file")
	flag.Parse()

	log.Println("Starting gensetctl...")
	if *verbose {
		log.Println("verbose logging enabled")
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v\n", err)
	}

	mqttUsername := os.Getenv("MQTT_USERNAME")
	mqttPassword := os.Getenv("MQTT_PASSWORD")
	if mqttUsername == "" || mqttPassword == "" {
		log.Fatal("MQTT_USERNAME and MQTT_PASSWORD must be set in .env file")
	}

	mqttBroker := os.Getenv("MQTT_BROKER")
	if mqttBroker == "" {
		mqttBroker = "homeassistant.lan"
	}

	mqttClientID := os.Getenv("MQTT_CLIENT_ID")
	if mqttClientID == "" {
		mqttClientID = "gensetctl"
	}

	ctx, cancel := context.WithCancel(context.Background())

	pub := make(chan GeneratorCommand, 100)
	publisher := NewCommandPublisher(pub)

	generator0 := NewGeneratorWorker("Generator0", publisher)
	fischerPanda0 := NewGeneratorWorker("FischerPanda0", publisher)

	vebusCandidates := []string{
		"com.victronenergy.vebus.ttyO1", "com.victronenergy.vebus.ttyUSB0",
	}
	batteryCandidates := []string{
		"com.victronenergy.battery.ttyUSB0", "com.victronenergy.system",
	}

	var topics []BusPath
	topics = append(topics, fixedPaths()...)
	topics = append(topics, vebusWildcardPaths(vebusCandidates)...)
	topics = append(topics, batteryWildcardPaths(batteryCandidates)...)
	topics = append(topics, generator0.SubscribedPaths()...)
	topics = append(topics, fischerPanda0.SubscribedPaths()...)

	slices.SortFunc(topics, func(a, b BusPath) int {
		if a.Service != b.Service {
			if a.Service < b.Service {
				return -1
			}
			return 1
		}
		if a.Path < b.Path {
			return -1
		} else if a.Path > b.Path {
			return 1
		}
		return 0
	})
	topics = slices.Compact(topics)

	rawChan := make(chan RawMessage, 100)
	snapChan := make(chan *BusSnapshot, 4)
	gen0Chan := make(chan *BusSnapshot, 1)
	fp0Chan := make(chan *BusSnapshot, 1)
	mqttClientChan := make(chan mqtt.Client, 1)

	SafeGo(ctx, cancel, "snapshot-worker", func(ctx context.Context) {
		snapshotWorker(ctx, rawChan, snapChan, time.Second)
	})

	SafeGo(ctx, cancel, "broadcast-worker", func(ctx context.Context) {
		broadcastWorker(ctx, snapChan, []chan<- *BusSnapshot{gen0Chan, fp0Chan})
	})

	SafeGo(ctx, cancel, "command-publisher", func(ctx context.Context) {
		commandPublisherWorker(ctx, pub, mqttClientChan)
	})

	stores := map[string]*SettingsStore{
		"Generator0":    generator0.Settings,
		"FischerPanda0": fischerPanda0.Settings,
	}
	SafeGo(ctx, cancel, "settings-defaults-watcher", func(ctx context.Context) {
		defaultsWatcherWorker(ctx, *defaultsPath, stores)
	})

	SafeGo(ctx, cancel, "generator0-worker", func(ctx context.Context) {
		generator0.Run(ctx, gen0Chan, *defaultsPath)
	})
	SafeGo(ctx, cancel, "fischerpanda0-worker", func(ctx context.Context) {
		fischerPanda0.Run(ctx, fp0Chan, *defaultsPath)
	})

	if *debugMode {
		SafeGo(ctx, cancel, "debug-repl", func(ctx context.Context) {
			debugReplWorker(ctx, generator0, fischerPanda0)
		})
	}

	SafeGo(ctx, cancel, "bus-monitor", func(ctx context.Context) {
		busMonitorWorker(ctx, mqttBroker, topics, mqttUsername, mqttPassword, mqttClientID, rawChan, mqttClientChan)
	})
	log.Println("bus monitor started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Println("shutting down...")
	case <-ctx.Done():
		log.Println("shutting down due to error...")
	}
	cancel()
}

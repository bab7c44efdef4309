package main

// Fixed service names from the consumed bus paths in spec.md §6.
const (
	ServiceSystem   = "com.victronenergy.system"
	ServiceSettings = "com.victronenergy.settings"
)

// GensetService returns the genset service name for a generator instance,
// e.g. "com.victronenergy.genset.relay0" / "com.victronenergy.genset.fischerpanda0".
func GensetService(genName string) string {
	switch genName {
	case "Generator0":
		return "com.victronenergy.genset.relay0"
	default:
		return "com.victronenergy.genset.fischerpanda0"
	}
}

// BusRoutes resolves the two service names that are only known at runtime:
// which vebus instance is "the" inverter/charger, and which service is
// currently selected as the battery measurement, per /VebusService and
// /AutoSelectedBatteryMeasurement on the system service (spec.md §6).
type BusRoutes struct {
	VebusService   string
	BatteryService string
}

// ResolveRoutes reads the dynamic routing paths out of snap, falling back to
// the previous value when the system service has not reported yet.
func ResolveRoutes(snap *BusSnapshot, prev BusRoutes) BusRoutes {
	routes := prev
	if v, ok := snap.String(BusPath{Service: ServiceSystem, Path: "/VebusService"}); ok && v != "" {
		routes.VebusService = v
	}
	if v, ok := snap.String(BusPath{Service: ServiceSystem, Path: "/AutoSelectedBatteryMeasurement"}); ok && v != "" {
		routes.BatteryService = v
	}
	return routes
}

// Consumed path builders, grouped by component for readability. Every one
// of these exactly names a path from spec.md §6.

func pathConsumptionPhase(phase int) BusPath {
	return BusPath{Service: ServiceSystem, Path: phaseSuffix("/Ac/Consumption/L", phase, "/Power")}
}

func pathVebusOutPhase(vebus string, phase int) BusPath {
	return BusPath{Service: vebus, Path: phaseSuffix("/Ac/Out/L", phase, "/P")}
}

func pathVebusOutTotal(vebus string) BusPath {
	return BusPath{Service: vebus, Path: "/Ac/Out/P"}
}

func pathVebusActiveInConnected(vebus string) BusPath {
	return BusPath{Service: vebus, Path: "/Ac/ActiveIn/Connected"}
}

func pathVebusActiveInActiveInput(vebus string) BusPath {
	return BusPath{Service: vebus, Path: "/Ac/ActiveIn/ActiveInput"}
}

// pathVebusAlarm returns the per-phase alarm path (phase 1-3) or, with
// phase 0, the aggregate alarm path, per the inverter alarm source
// selection rule in spec.md §4.3.
func pathVebusAlarm(vebus, alarm string, phase int) BusPath {
	if phase == 0 {
		return BusPath{Service: vebus, Path: "/Alarms/" + alarm}
	}
	return BusPath{Service: vebus, Path: phaseSuffix("/Alarms/L", phase, "/"+alarm)}
}

func pathBatteryVoltage(battery string) BusPath {
	return BusPath{Service: battery, Path: "/Dc/0/Voltage"}
}

func pathBatteryCurrent(battery string) BusPath {
	return BusPath{Service: battery, Path: "/Dc/0/Current"}
}

func pathBatterySoc(battery string) BusPath {
	return BusPath{Service: battery, Path: "/Soc"}
}

func pathGensetStart(genset string) BusPath    { return BusPath{Service: genset, Path: "/Start"} }
func pathGensetAutoStart(genset string) BusPath { return BusPath{Service: genset, Path: "/AutoStart"} }
func pathGensetErrorCode(genset string) BusPath { return BusPath{Service: genset, Path: "/ErrorCode"} }
func pathGensetConnected(genset string) BusPath { return BusPath{Service: genset, Path: "/Connected"} }

func phaseSuffix(prefix string, phase int, suffix string) string {
	digits := [...]string{"1", "2", "3"}
	return prefix + digits[phase-1] + suffix
}

package main

import (
	"strings"
	"time"
)

// BusPath identifies one (serviceName, path) pair on the message bus, per the
// data model's telemetry mapping.
type BusPath struct {
	Service string
	Path    string
}

// Topic returns the MQTT topic this path maps to: victron/<service><path>.
// This is the one deliberate transport substitution documented in
// SPEC_FULL.md — every consumed/published bus path keeps its exact service
// and path strings, only prefixed and joined for MQTT.
func (p BusPath) Topic() string {
	return "victron/" + p.Service + p.Path
}

// parseTopic recovers the (service, path) pair from a subscribed topic.
// Returns ok=false for anything outside the victron/ namespace.
func parseTopic(topic string) (BusPath, bool) {
	const prefix = "victron/"
	if !strings.HasPrefix(topic, prefix) {
		return BusPath{}, false
	}
	rest := topic[len(prefix):]
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return BusPath{}, false
	}
	return BusPath{Service: rest[:slash], Path: rest[slash:]}, true
}

// BusValue is one scalar slot in the telemetry snapshot. Unlike the
// teacher's DisplayData (where a map miss is the only "no value" case), the
// domain needs both "service absent" (handled by a missing map entry) and
// "remote known but value unavailable" (an explicit null), so BusValue
// carries an Unknown flag rather than relying on the zero value.
type BusValue struct {
	Unknown bool
	Float   float64
	String  string
	// LastSeen is the local receive time of this value, used by the Bus
	// Monitor's 5-minute communication-loss detector.
	LastSeen time.Time
}

var unknownValue = BusValue{Unknown: true}

// BusSnapshot is the Bus Monitor's keyed mirror of remote telemetry, folded
// from raw MQTT messages exactly as the teacher's statsWorker folds
// SensorMessage into DisplayData.
type BusSnapshot struct {
	values map[BusPath]BusValue
	// seenAt records the most recent message time per *service*, regardless
	// of path, so a vanished service can be detected even if only some of
	// its paths were ever subscribed.
	seenAt map[string]time.Time
}

// NewBusSnapshot returns an empty snapshot.
func NewBusSnapshot() *BusSnapshot {
	return &BusSnapshot{
		values: make(map[BusPath]BusValue),
		seenAt: make(map[string]time.Time),
	}
}

// Clone returns a deep-enough copy safe to hand to a reader goroutine while
// the original keeps mutating, matching the teacher's cloneTopicData
// texture in stats.go.
func (s *BusSnapshot) Clone() *BusSnapshot {
	out := NewBusSnapshot()
	for k, v := range s.values {
		out.values[k] = v
	}
	for k, v := range s.seenAt {
		out.seenAt[k] = v
	}
	return out
}

// SetFloat/SetString record a received value at the given path. The wire
// format has no separate boolean type: Victron booleans (Connected,
// AutoStart, and the like) arrive as the same "0"/"1" numeric payload as any
// other scalar, so they are folded through SetFloat like everything else and
// recovered by Bool below.
func (s *BusSnapshot) SetFloat(p BusPath, v float64, at time.Time) {
	s.values[p] = BusValue{Float: v, LastSeen: at}
	s.seenAt[p.Service] = at
}

func (s *BusSnapshot) SetString(p BusPath, v string, at time.Time) {
	s.values[p] = BusValue{String: v, LastSeen: at}
	s.seenAt[p.Service] = at
}

// SetNull records that the remote is known but the value is currently
// unavailable ("null" in the data model), keeping the service marked alive.
func (s *BusSnapshot) SetNull(p BusPath, at time.Time) {
	s.values[p] = unknownValue
	s.seenAt[p.Service] = at
}

// RemoveService clears every path belonging to a service, used when the bus
// monitor detects service disappearance.
func (s *BusSnapshot) RemoveService(service string) {
	for p := range s.values {
		if p.Service == service {
			delete(s.values, p)
		}
	}
	delete(s.seenAt, service)
}

// Float returns the value at p and whether it is present and known.
func (s *BusSnapshot) Float(p BusPath) (float64, bool) {
	v, ok := s.values[p]
	if !ok || v.Unknown {
		return 0, false
	}
	return v.Float, true
}

// String returns the value at p and whether it is present and known.
func (s *BusSnapshot) String(p BusPath) (string, bool) {
	v, ok := s.values[p]
	if !ok || v.Unknown {
		return "", false
	}
	return v.String, true
}

// Bool returns the value at p and whether it is present and known, treating
// any non-zero stored Float as true (see SetFloat).
func (s *BusSnapshot) Bool(p BusPath) (bool, bool) {
	v, ok := s.values[p]
	if !ok || v.Unknown {
		return false, false
	}
	return v.Float != 0, true
}

// ServiceAlive reports whether any value from service has arrived within
// window of now. A service never seen is not alive.
func (s *BusSnapshot) ServiceAlive(service string, now time.Time, window time.Duration) bool {
	last, ok := s.seenAt[service]
	if !ok {
		return false
	}
	return now.Sub(last) < window
}

// SumFloat sums the known values at paths, treating unknown/absent entries
// as 0 but reporting validity as false if every one of them is unavailable,
// mirroring the teacher's SumTopics helper.
func (s *BusSnapshot) SumFloat(paths []BusPath) (sum float64, anyValid bool) {
	for _, p := range paths {
		if v, ok := s.Float(p); ok {
			sum += v
			anyValid = true
		}
	}
	return sum, anyValid
}

// MaxFloat returns the largest known value among paths.
func (s *BusSnapshot) MaxFloat(paths []BusPath) (max float64, anyValid bool) {
	for _, p := range paths {
		if v, ok := s.Float(p); ok {
			if !anyValid || v > max {
				max = v
			}
			anyValid = true
		}
	}
	return max, anyValid
}

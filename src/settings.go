package main

import (
	"strconv"
)

// SettingKind tags the scalar type stored for one short name, since the
// settings store (unlike BusSnapshot) always knows its schema up front.
type SettingKind int

const (
	KindFloat SettingKind = iota
	KindInt
	KindBool
	KindString
)

// SettingSpec describes one short-name entry in the settings store: its
// remote path, its scalar kind and its seed default, grounded on the
// teacher's expectedTopics/topic-registry pattern in stats.go and
// buildTopicsList in main.go.
type SettingSpec struct {
	ShortName string
	Path       string // path under /Settings/<genName>/...
	Kind       SettingKind
	Default    string // textual default, parsed per Kind
}

// SettingValue is one stored scalar.
type SettingValue struct {
	Kind   SettingKind
	Float  float64
	Int    int
	Bool   bool
	String string
}

func parseSettingValue(kind SettingKind, raw string) SettingValue {
	switch kind {
	case KindFloat:
		f, _ := strconv.ParseFloat(raw, 64)
		return SettingValue{Kind: kind, Float: f}
	case KindInt:
		i, _ := strconv.Atoi(raw)
		return SettingValue{Kind: kind, Int: i}
	case KindBool:
		return SettingValue{Kind: kind, Bool: raw == "1" || raw == "true"}
	default:
		return SettingValue{Kind: kind, String: raw}
	}
}

// SettingsView is the read-only interface condition evaluators and the
// state machine consume, matching the Settings Mirror's get/short_name_of
// collaborator contract from spec.md §4.2.
type SettingsView interface {
	Float(shortName string) (float64, bool)
	Int(shortName string) (int, bool)
	Bool(shortName string) (bool, bool)
	String(shortName string) (string, bool)
}

// SettingsStore mirrors one generator's settings subtree: short-name keyed
// values plus the reverse path lookup, seeded from YAML defaults and
// updated only once the broker echoes a write back (round-trip semantics
// from spec.md §4.2), the way the teacher's mqttSenderWorker only treats
// Home Assistant as authoritative once a queued message is flushed.
//
// A single SettingsStore instance is owned by one generator worker; it is
// never shared by pointer across goroutines.
type SettingsStore struct {
	genName       string
	specs         map[string]SettingSpec // by short name
	pathToShort   map[string]string
	values        map[string]SettingValue
	pendingWrites map[string]SettingValue // short name -> value awaiting echo
	onChange      func(shortName string)
}

func NewSettingsStore(genName string, specs []SettingSpec) *SettingsStore {
	s := &SettingsStore{
		genName:       genName,
		specs:         make(map[string]SettingSpec, len(specs)),
		pathToShort:   make(map[string]string, len(specs)),
		values:        make(map[string]SettingValue, len(specs)),
		pendingWrites: make(map[string]SettingValue),
	}
	for _, spec := range specs {
		s.specs[spec.ShortName] = spec
		s.pathToShort[spec.Path] = spec.ShortName
		s.values[spec.ShortName] = parseSettingValue(spec.Kind, spec.Default)
	}
	return s
}

// OnChange registers the callback invoked each time a value is applied,
// either from a default or a bus echo. It is also invoked when the applied
// value equals the stored one.
func (s *SettingsStore) OnChange(fn func(shortName string)) {
	s.onChange = fn
}

// ShortNameOf is the reverse path -> short-name lookup from spec.md §4.2.
func (s *SettingsStore) ShortNameOf(path string) (string, bool) {
	name, ok := s.pathToShort[path]
	return name, ok
}

// Spec returns the registered spec for a short name, used to build the bus
// subscription list and to know the path/kind for outgoing writes.
func (s *SettingsStore) Spec(shortName string) (SettingSpec, bool) {
	spec, ok := s.specs[shortName]
	return spec, ok
}

// Specs returns every registered spec, in registration order is not
// guaranteed (map iteration), used to build subscription/default lists.
func (s *SettingsStore) Specs() []SettingSpec {
	out := make([]SettingSpec, 0, len(s.specs))
	for _, spec := range s.specs {
		out = append(out, spec)
	}
	return out
}

// ApplyDefault seeds shortName from a YAML override, used both at startup
// and by the fsnotify hot-reload path. A pending remote write always wins
// over a late-arriving default.
func (s *SettingsStore) ApplyDefault(shortName, raw string) {
	spec, ok := s.specs[shortName]
	if !ok {
		return
	}
	if _, pending := s.pendingWrites[shortName]; pending {
		return
	}
	s.values[shortName] = parseSettingValue(spec.Kind, raw)
	if s.onChange != nil {
		s.onChange(shortName)
	}
}

// ApplyBusEcho is called when the Settings Mirror's bus subscription
// delivers a value on a settings path: it confirms any pending write and
// updates the authoritative local value, per the round-trip contract.
func (s *SettingsStore) ApplyBusEcho(path, raw string) {
	shortName, ok := s.pathToShort[path]
	if !ok {
		return
	}
	spec := s.specs[shortName]
	value := parseSettingValue(spec.Kind, raw)
	delete(s.pendingWrites, shortName)
	s.values[shortName] = value
	if s.onChange != nil {
		s.onChange(shortName)
	}
}

// Set requests a write: it is held as pending until the broker echoes the
// retained value back via ApplyBusEcho. The caller is responsible for
// actually publishing to spec.Path + "/set" via a CommandPublisher.
func (s *SettingsStore) Set(shortName string, value SettingValue) {
	s.pendingWrites[shortName] = value
}

// PendingWrite returns the spec and formatted payload to publish for a
// shortName with an outstanding Set call, and whether one exists.
func (s *SettingsStore) PendingWrite(shortName string) (SettingSpec, string, bool) {
	v, ok := s.pendingWrites[shortName]
	if !ok {
		return SettingSpec{}, "", false
	}
	spec := s.specs[shortName]
	switch spec.Kind {
	case KindFloat:
		return spec, strconv.FormatFloat(v.Float, 'f', -1, 64), true
	case KindInt:
		return spec, strconv.Itoa(v.Int), true
	case KindBool:
		if v.Bool {
			return spec, "1", true
		}
		return spec, "0", true
	default:
		return spec, v.String, true
	}
}

func (s *SettingsStore) Float(shortName string) (float64, bool) {
	v, ok := s.values[shortName]
	return v.Float, ok
}

func (s *SettingsStore) Int(shortName string) (int, bool) {
	v, ok := s.values[shortName]
	return v.Int, ok
}

func (s *SettingsStore) Bool(shortName string) (bool, bool) {
	v, ok := s.values[shortName]
	return v.Bool, ok
}

func (s *SettingsStore) String(shortName string) (string, bool) {
	v, ok := s.values[shortName]
	return v.String, ok
}

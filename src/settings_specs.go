package main

import "fmt"

// BuildSettingSpecs enumerates every short name this daemon mirrors for one
// generator instance, under /Settings/<genName>/..., per the settings store
// field list in spec.md §3 and the condition table in §4.3.
func BuildSettingSpecs(genName string) []SettingSpec {
	root := "/Settings/" + genName
	specs := []SettingSpec{
		{ShortName: "AutoStartEnabled", Path: root + "/AutoStartEnabled", Kind: KindBool, Default: "1"},
		{ShortName: "OnLossCommunication", Path: root + "/OnLossCommunication", Kind: KindInt, Default: "0"},
		// MinimumRuntime is stored in minutes on the remote service (per
		// the original source's test fixtures, which exercise fractional
		// values like 0.010) and converted to a Duration at point of use.
		{ShortName: "MinimumRuntime", Path: root + "/MinimumRuntime", Kind: KindFloat, Default: "5"},
		{ShortName: "WarmupTime", Path: root + "/WarmupTime", Kind: KindInt, Default: "0"},
		{ShortName: "CooldownTime", Path: root + "/CooldownTime", Kind: KindInt, Default: "0"},

		{ShortName: "QuietHours.Enabled", Path: root + "/QuietHours/Enabled", Kind: KindBool, Default: "0"},
		{ShortName: "QuietHours.StartTime", Path: root + "/QuietHours/StartTime", Kind: KindInt, Default: "0"},
		{ShortName: "QuietHours.EndTime", Path: root + "/QuietHours/EndTime", Kind: KindInt, Default: "0"},

		{ShortName: "AccumulatedDaily", Path: root + "/AccumulatedDaily", Kind: KindString, Default: "{}"},
		{ShortName: "AccumulatedRuntime", Path: root + "/AccumulatedRuntime", Kind: KindInt, Default: "0"},
	}

	specs = append(specs, conditionSpecs(root, "Soc", true)...)
	specs = append(specs, acLoadSpecs(root)...)
	specs = append(specs, conditionSpecs(root, "BatteryCurrent", true)...)
	specs = append(specs, conditionSpecs(root, "BatteryVoltage", true)...)
	specs = append(specs, conditionSpecs(root, "InverterHighTemp", false)...)
	specs = append(specs, conditionSpecs(root, "InverterOverload", false)...)
	specs = append(specs, testRunSpecs(root)...)

	return specs
}

// conditionSpecs builds the common Enabled/StartTimer/StopTimer fields
// shared by every condition kind, plus the threshold fields (and their
// quiet-hours variants) for the value-comparison conditions.
func conditionSpecs(root, name string, hasThresholds bool) []SettingSpec {
	prefix := root + "/" + name
	sn := func(field string) string { return name + "." + field }

	specs := []SettingSpec{
		{ShortName: sn("Enabled"), Path: prefix + "/Enabled", Kind: KindBool, Default: "0"},
		{ShortName: sn("StartTimer"), Path: prefix + "/StartTimer", Kind: KindInt, Default: "0"},
		{ShortName: sn("StopTimer"), Path: prefix + "/StopTimer", Kind: KindInt, Default: "0"},
	}
	if hasThresholds {
		specs = append(specs,
			SettingSpec{ShortName: sn("StartValue"), Path: prefix + "/StartValue", Kind: KindFloat, Default: "0"},
			SettingSpec{ShortName: sn("StopValue"), Path: prefix + "/StopValue", Kind: KindFloat, Default: "0"},
			SettingSpec{ShortName: sn("QuietHoursStartValue"), Path: prefix + "/QuietHoursStartValue", Kind: KindFloat, Default: "0"},
			SettingSpec{ShortName: sn("QuietHoursStopValue"), Path: prefix + "/QuietHoursStopValue", Kind: KindFloat, Default: "0"},
		)
	}
	return specs
}

// acLoadSpecs adds the AC-load condition's measurement mode and active-
// input override flags on top of the common condition fields.
func acLoadSpecs(root string) []SettingSpec {
	specs := conditionSpecs(root, "AcLoad", true)
	prefix := root + "/AcLoad"
	return append(specs,
		SettingSpec{ShortName: "AcLoad.Measurement", Path: prefix + "/Measurement", Kind: KindInt, Default: "0"},
		SettingSpec{ShortName: "AcLoad.StopWhenAc1Available", Path: prefix + "/StopWhenAc1Available", Kind: KindBool, Default: "0"},
		SettingSpec{ShortName: "AcLoad.StopWhenAc2Available", Path: prefix + "/StopWhenAc2Available", Kind: KindBool, Default: "0"},
	)
}

// testRunSpecs mirrors the schedule settings from spec.md §4.5.
func testRunSpecs(root string) []SettingSpec {
	prefix := root + "/TestRun"
	return []SettingSpec{
		{ShortName: "TestRun.Enabled", Path: prefix + "/Enabled", Kind: KindBool, Default: "0"},
		{ShortName: "TestRun.StartDate", Path: prefix + "/StartDate", Kind: KindInt, Default: "0"},
		{ShortName: "TestRun.StartTime", Path: prefix + "/StartTime", Kind: KindInt, Default: "0"},
		{ShortName: "TestRun.Interval", Path: prefix + "/Interval", Kind: KindInt, Default: "30"},
		{ShortName: "TestRun.Duration", Path: prefix + "/Duration", Kind: KindInt, Default: "600"},
		{ShortName: "TestRun.SkipRuntime", Path: prefix + "/SkipRuntime", Kind: KindInt, Default: "0"},
		{ShortName: "TestRun.RunTillBatteryFull", Path: prefix + "/RunTillBatteryFull", Kind: KindBool, Default: "0"},
	}
}

// defaultsFileKey is the key a YAML defaults file uses for one spec: the
// generator name plus its short name, so one file can seed both instances.
func defaultsFileKey(genName, shortName string) string {
	return fmt.Sprintf("%s.%s", genName, shortName)
}

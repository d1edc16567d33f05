// Package simconfig holds the simulation's immutable, construction-time
// configuration. It never reads a file or byte stream: a host decodes
// whatever format it likes (YAML, flags, a database row) and builds a
// Config with Go struct literals, per spec §6. Grounded on the teacher's
// utils/config (which did own file decoding); this package keeps only the
// validated-struct half of that idea and drops the decoding half, since
// wire/file format is explicitly out of scope for the simulation core.
package simconfig

import "fmt"

// Config is validated once at construction and never mutated afterward.
type Config struct {
	UpdateTickRate float64 // Hz, ticks per simulated second

	CarBase   CarClassDefaults
	TruckBase CarClassDefaults

	LaneWidth          float64
	IsLeftHandTraffic  bool
	SpatialCellSize    float64 // meters; validated as positive, but spatial.Index does not read it (it has no arc-length buckets)
	HeartbeatInterval  int64   // ticks between heartbeat log lines

	ZoneSpeedLimits map[string]float64 // optional per-zone speed limit overrides
}

// CarClassDefaults mirrors driver.Base's fields so a host can build one
// without importing the driver package's personality-scaling internals.
type CarClassDefaults struct {
	DesiredSpeed  float64
	MaxAccel      float64
	ComfortDecel  float64
	MaxDecel      float64
	TimeHeadway   float64
	MinGap        float64
	AccelExponent float64
	Length        float64

	Politeness           float64
	SafeDecel            float64
	AccelThreshold       float64
	KeepBias             float64
	LaneChangeCooldown   float64
	PlayerReactionMargin float64

	AdjacentMarginPassive          float64
	AdjacentMarginAggressive       float64
	ChainReactionCooldownPassive   float64
	ChainReactionCooldownAggressive float64
}

// ValidationError reports a single invalid Config field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("simconfig: %s: %s", e.Field, e.Reason)
}

// Default returns reasonable defaults for every field, suitable as a
// starting point for a host that only wants to override a few values.
func Default() Config {
	carDefaults := CarClassDefaults{
		DesiredSpeed: 30, MaxAccel: 2.0, ComfortDecel: 2.5, MaxDecel: 8.0,
		TimeHeadway: 1.2, MinGap: 2.0, AccelExponent: 4, Length: 4.5,
		Politeness: 0.25, SafeDecel: 4.0, AccelThreshold: 0.15, KeepBias: 0.1,
		LaneChangeCooldown: 4.0, PlayerReactionMargin: 0.5,
		AdjacentMarginPassive: 20, AdjacentMarginAggressive: 12,
		ChainReactionCooldownPassive: 3.0, ChainReactionCooldownAggressive: 1.5,
	}
	truckDefaults := carDefaults
	truckDefaults.DesiredSpeed = 22
	truckDefaults.MaxAccel = 1.2
	truckDefaults.ComfortDecel = 2.0
	truckDefaults.MaxDecel = 6.0
	truckDefaults.TimeHeadway = 1.8
	truckDefaults.MinGap = 3.5
	truckDefaults.Length = 12.0

	return Config{
		UpdateTickRate:    10,
		CarBase:           carDefaults,
		TruckBase:         truckDefaults,
		LaneWidth:         3.5,
		IsLeftHandTraffic: false,
		SpatialCellSize:   50,
		HeartbeatInterval: 100,
		ZoneSpeedLimits:   map[string]float64{},
	}
}

// Validate checks every field spec §7 calls out as a construction-time
// invariant and returns the first violation found.
func (c Config) Validate() error {
	if c.UpdateTickRate <= 0 {
		return &ValidationError{"UpdateTickRate", "must be positive"}
	}
	if c.LaneWidth <= 0 {
		return &ValidationError{"LaneWidth", "must be positive"}
	}
	if c.SpatialCellSize <= 0 {
		return &ValidationError{"SpatialCellSize", "must be positive"}
	}
	if c.HeartbeatInterval <= 0 {
		return &ValidationError{"HeartbeatInterval", "must be positive"}
	}
	for name, base := range map[string]CarClassDefaults{"CarBase": c.CarBase, "TruckBase": c.TruckBase} {
		if err := base.validate(name); err != nil {
			return err
		}
	}
	for zone, limit := range c.ZoneSpeedLimits {
		if limit <= 0 {
			return &ValidationError{"ZoneSpeedLimits[" + zone + "]", "must be positive"}
		}
	}
	return nil
}

func (b CarClassDefaults) validate(prefix string) error {
	checks := []struct {
		name string
		v    float64
	}{
		{"DesiredSpeed", b.DesiredSpeed}, {"MaxAccel", b.MaxAccel},
		{"ComfortDecel", b.ComfortDecel}, {"MaxDecel", b.MaxDecel},
		{"TimeHeadway", b.TimeHeadway}, {"MinGap", b.MinGap},
		{"AccelExponent", b.AccelExponent}, {"Length", b.Length},
		{"SafeDecel", b.SafeDecel}, {"LaneChangeCooldown", b.LaneChangeCooldown},
	}
	for _, c := range checks {
		if c.v <= 0 {
			return &ValidationError{prefix + "." + c.name, "must be positive"}
		}
	}
	if b.Politeness < 0 || b.Politeness > 0.5 {
		return &ValidationError{prefix + ".Politeness", "must be in [0, 0.5]"}
	}
	return nil
}

// SpeedLimit resolves the effective speed limit for a zone, or 0 (meaning
// unconstrained) if the zone has no override.
func (c Config) SpeedLimit(zone string) float64 {
	return c.ZoneSpeedLimits[zone]
}

// Package driver derives immutable per-vehicle driving parameters from a
// vehicle kind and a driver personality tag. Parameters never change after
// spawn; the IDM and MOBIL packages are pure functions over these values.
package driver

import "fmt"

// Kind distinguishes the base physical profile of a vehicle.
type Kind int

const (
	Car Kind = iota
	Truck
)

func (k Kind) String() string {
	switch k {
	case Car:
		return "car"
	case Truck:
		return "truck"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Personality is a coarse driving-style tag. It scales a handful of base
// parameters by a single factor, per spec: Timid 0.8, Normal 1.0,
// Aggressive 1.2, VeryAggressive 1.4.
type Personality int

const (
	Timid Personality = iota
	Normal
	Aggressive
	VeryAggressive
)

func (p Personality) String() string {
	switch p {
	case Timid:
		return "timid"
	case Normal:
		return "normal"
	case Aggressive:
		return "aggressive"
	case VeryAggressive:
		return "very_aggressive"
	default:
		return fmt.Sprintf("Personality(%d)", int(p))
	}
}

// factor returns the personality scalar f used to scale DesiredSpeed,
// MaxAcceleration (both multiplied by f) and TimeHeadway (divided by f).
func (p Personality) factor() float64 {
	switch p {
	case Timid:
		return 0.8
	case Normal:
		return 1.0
	case Aggressive:
		return 1.2
	case VeryAggressive:
		return 1.4
	default:
		return 1.0
	}
}

// aggressiveness maps a personality to a [0,1] scalar used to interpolate
// the MOBIL safety-overlay margins (passive at 0, aggressive at 1).
func (p Personality) aggressiveness() float64 {
	switch p {
	case Timid:
		return 0
	case Normal:
		return 1.0 / 3
	case Aggressive:
		return 2.0 / 3
	case VeryAggressive:
		return 1
	default:
		return 1.0 / 3
	}
}

// Base holds the unscaled defaults a Params is derived from. A host
// constructs one Base per Kind (e.g. from simconfig defaults) and reuses it
// across every spawn of that kind.
type Base struct {
	DesiredSpeed  float64 // v0, m/s
	MaxAccel      float64 // a, m/s^2
	ComfortDecel  float64 // b, m/s^2 (positive magnitude)
	MaxDecel      float64 // b_max, m/s^2 (positive magnitude, emergency)
	TimeHeadway   float64 // T, s
	MinGap        float64 // s0, m
	AccelExponent float64 // delta, typically 4
	Length        float64 // m

	Politeness           float64 // p in [0, 0.5]
	SafeDecel            float64 // b_safe, m/s^2 (positive magnitude)
	AccelThreshold       float64 // delta_a_th, m/s^2
	KeepBias             float64 // m/s^2
	LaneChangeCooldown   float64 // s
	PlayerReactionMargin float64 // s, added to player-relative safety checks

	AdjacentMarginPassive          float64 // m, margin at aggressiveness=0
	AdjacentMarginAggressive       float64 // m, margin at aggressiveness=1
	ChainReactionCooldownPassive   float64 // s, cooldown at aggressiveness=0
	ChainReactionCooldownAggressive float64 // s, cooldown at aggressiveness=1
}

// DefaultCarBase returns sensible defaults for a Car, grounded on typical
// IDM/MOBIL literature values and the spec's worked examples (§8 boundary
// scenario 2 uses MinGap=2, TimeHeadway=1.2).
func DefaultCarBase() Base {
	return Base{
		DesiredSpeed:  30,
		MaxAccel:      2.0,
		ComfortDecel:  2.5,
		MaxDecel:      8.0,
		TimeHeadway:   1.2,
		MinGap:        2.0,
		AccelExponent: 4,
		Length:        4.5,

		Politeness:           0.25,
		SafeDecel:            4.0,
		AccelThreshold:       0.15,
		KeepBias:             0.1,
		LaneChangeCooldown:   4.0,
		PlayerReactionMargin: 0.5,

		AdjacentMarginPassive:           20,
		AdjacentMarginAggressive:        12,
		ChainReactionCooldownPassive:    3.0,
		ChainReactionCooldownAggressive: 1.5,
	}
}

// DefaultTruckBase returns defaults for a Truck: lower desired speed and
// acceleration, longer headway/gap/length, per spec §3.
func DefaultTruckBase() Base {
	b := DefaultCarBase()
	b.DesiredSpeed = 22
	b.MaxAccel = 1.2
	b.ComfortDecel = 2.0
	b.MaxDecel = 6.0
	b.TimeHeadway = 1.8
	b.MinGap = 3.5
	b.Length = 12.0
	return b
}

// Params are the fully derived, immutable-after-spawn driving parameters
// for one vehicle.
type Params struct {
	Kind        Kind
	Personality Personality

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

	AdjacentMargin        float64
	ChainReactionCooldown float64
}

// Derive applies the personality scaling described in spec §3 to base and
// returns the immutable per-vehicle Params.
func Derive(kind Kind, personality Personality, base Base) Params {
	f := personality.factor()
	agg := personality.aggressiveness()
	return Params{
		Kind:        kind,
		Personality: personality,

		DesiredSpeed:  base.DesiredSpeed * f,
		MaxAccel:      base.MaxAccel * f,
		ComfortDecel:  base.ComfortDecel,
		MaxDecel:      base.MaxDecel,
		TimeHeadway:   base.TimeHeadway / f,
		MinGap:        base.MinGap,
		AccelExponent: base.AccelExponent,
		Length:        base.Length,

		Politeness:           base.Politeness,
		SafeDecel:            base.SafeDecel,
		AccelThreshold:       base.AccelThreshold,
		KeepBias:             base.KeepBias,
		LaneChangeCooldown:   base.LaneChangeCooldown,
		PlayerReactionMargin: base.PlayerReactionMargin,

		AdjacentMargin: lerp(base.AdjacentMarginPassive, base.AdjacentMarginAggressive, agg),
		ChainReactionCooldown: lerp(
			base.ChainReactionCooldownPassive, base.ChainReactionCooldownAggressive, agg,
		),
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

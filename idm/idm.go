// Package idm implements the Intelligent Driver Model car-following law as
// a pure function of ego/leader kinematics and driver parameters, grounded
// on the teacher's controller.followImpl (entity/person/controllermodel.go)
// and generalized from its fixed controller-field access to an explicit
// Params argument per spec §4.1.
package idm

import (
	"math"

	"github.com/samber/lo"

	"github.com/fib-lab/drivecore/driver"
)

// minGapFloor is the distance below which the interaction term is treated
// as saturated (gap -> 0.1m) rather than producing an unbounded deceleration.
const minGapFloor = 0.1

// Accel computes the IDM acceleration command for a vehicle traveling at v
// toward a leader at distance gap (bumper-to-bumper, meters) closing at
// dv = v - leaderV (positive when the ego is catching up). desiredV is the
// lesser of the driver's desired speed and any externally imposed limit
// (e.g. a lane's speed limit); callers are expected to have already taken
// that min. The result is clamped to [-p.MaxDecel, p.MaxAccel].
func Accel(v, desiredV, gap, dv float64, p driver.Params) float64 {
	v = math.Max(v, 0)
	if desiredV <= 0 {
		panic("idm: desiredV must be positive")
	}

	freeRoad := 1 - math.Pow(v/desiredV, p.AccelExponent)

	var interaction float64
	if gap > minGapFloor {
		sStar := p.MinGap + math.Max(0,
			v*p.TimeHeadway+v*dv/(2*math.Sqrt(p.MaxAccel*p.ComfortDecel)),
		)
		interaction = math.Pow(sStar/gap, 2)
	} else {
		interaction = 1.0
	}

	a := p.MaxAccel * (freeRoad - interaction)
	return lo.Clamp(a, -p.MaxDecel, p.MaxAccel)
}

// FreeRoadAccel computes the IDM acceleration when there is no leader
// within range (the interaction term drops out entirely).
func FreeRoadAccel(v, desiredV float64, p driver.Params) float64 {
	v = math.Max(v, 0)
	if desiredV <= 0 {
		panic("idm: desiredV must be positive")
	}
	a := p.MaxAccel * (1 - math.Pow(v/desiredV, p.AccelExponent))
	return lo.Clamp(a, -p.MaxDecel, p.MaxAccel)
}

// DesiredGap returns s*, the dynamic desired following distance at the
// current speed and closing rate — exposed for MOBIL's follower-safety
// check and for tests of the boundary scenarios in spec §8.
func DesiredGap(v, dv float64, p driver.Params) float64 {
	return p.MinGap + math.Max(0, v*p.TimeHeadway+v*dv/(2*math.Sqrt(p.MaxAccel*p.ComfortDecel)))
}

// Package trajectory generates the lateral motion of a lane change: a
// quintic-polynomial offset profile with matching zero-velocity,
// zero-acceleration endpoints, a speed-dependent duration, a steering-yaw
// curve for animation, and a quadratic ease-out profile for a mid-maneuver
// abort. All functions are pure. Grounded on the teacher's Ackermann-style
// lateral update in entity/person/vehicle.go (refreshRuntime) and its
// getLCPhi steering curve (entity/person/controllerutil.go), generalized
// from the teacher's angle-integration approach to the closed-form quintic
// the spec calls for.
package trajectory

import (
	"math"

	"github.com/samber/lo"
)

// quintic evaluates f(t) = 10t^3 - 15t^4 + 6t^5 and its first derivative.
// f(0)=0, f(1)=1, f'(0)=f'(1)=0, f''(0)=f''(1)=0.
func quintic(t float64) (f, fPrime float64) {
	t2 := t * t
	t3 := t2 * t
	t4 := t3 * t
	f = 10*t3 - 15*t4 + 6*t4*t
	fPrime = 30*t2 - 60*t3 + 30*t4
	return
}

// Offset returns the lateral offset y(progress) for a lane change spanning
// lateral distance deltaW, progress in [0,1].
func Offset(progress, deltaW float64) float64 {
	f, _ := quintic(clamp01(progress))
	return deltaW * f
}

// Velocity returns the lateral velocity y'(progress) for a lane change of
// total lateral distance deltaW and duration durationSeconds.
func Velocity(progress, deltaW, durationSeconds float64) float64 {
	_, fPrime := quintic(clamp01(progress))
	return deltaW * fPrime / durationSeconds
}

// Duration returns T_LC(v): the lane-change duration as a function of
// current speed, clamped to [2.5, 7.0]s.
func Duration(v float64) float64 {
	t := 3.5 * (1 + 0.5*math.Log(math.Max(1, v/27.8)))
	return lo.Clamp(t, 2.5, 7.0)
}

// PeakLateralAccel returns the closed-form peak lateral acceleration for a
// lane change of lateral distance deltaW completed in duration seconds,
// exposed for the comfort-guard test in spec §4.2/§8.
func PeakLateralAccel(deltaW, duration float64) float64 {
	return 5.77 * deltaW / (duration * duration)
}

// comfortLimit is the maximum tolerable peak lateral acceleration, m/s^2.
const comfortLimit = 1.5

// WithinComfort reports whether a lane change of lateral distance deltaW
// completed in duration seconds stays within the comfort guard.
func WithinComfort(deltaW, duration float64) bool {
	return PeakLateralAccel(deltaW, duration) <= comfortLimit
}

// yawPeakCoefficient scales the steering-yaw curve so that, at v=30m/s, the
// peak magnitude is 0.12 rad.
const yawPeakCoefficient = 0.12

// steeringYawScale is the quintic-derivative normalization constant so that
// the (30t^2-60t^3+30t^4)/steeringYawScale factor peaks at exactly 1, at
// t=1/2.
const steeringYawScale = 1.875

// SteeringYaw returns the signed heading offset psi(progress) used to
// animate a Changing (or, with dir reversed, Aborting) vehicle. v must be
// positive; dir is +1 (moving toward increasing lane index) or -1.
func SteeringYaw(progress, v float64, dir int) float64 {
	if v <= 0 {
		v = 1
	}
	_, fPrime := quintic(clamp01(progress))
	sign := 1.0
	if dir < 0 {
		sign = -1.0
	}
	return sign * (yawPeakCoefficient / (v / 30)) * fPrime / steeringYawScale
}

// AbortDuration returns the clamp(2*progress, 0.5, 2.0) duration (seconds)
// used by the quadratic ease-out once a Changing vehicle aborts at the
// given progress.
func AbortDuration(progressAtAbort float64) float64 {
	return lo.Clamp(2*progressAtAbort, 0.5, 2.0)
}

// AbortOffset returns the lateral offset during the abort ease-out, given
// the offset captured at the moment of abort (o0) and tau =
// elapsed/AbortDuration clamped to [0,1]. offset(0)=o0, offset(1)=0,
// monotonically decreasing.
func AbortOffset(o0, tau float64) float64 {
	tau = clamp01(tau)
	return o0 * (1 - tau) * (1 - tau)
}

func clamp01(t float64) float64 {
	return lo.Clamp(t, 0, 1)
}
